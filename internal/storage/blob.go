// Package storage abstracts the public blob store downloaded assets are
// written to. Paths are storage-relative; URL maps a stored path to the
// public form that ends up inside page content.
package storage

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// BlobStore is the persistence interface for downloaded binary assets.
type BlobStore interface {
	Put(p string, data []byte) error
	PutStream(p string, r io.Reader) error
	Exists(p string) bool
	URL(p string) string
}

// DiskStore implements BlobStore over an afero filesystem rooted at the
// configured storage directory.
type DiskStore struct {
	fs           afero.Fs
	root         string
	publicPrefix string
}

var _ BlobStore = (*DiskStore)(nil)

// NewDiskStore creates a DiskStore. The fs argument lets tests substitute
// an in-memory filesystem.
func NewDiskStore(fs afero.Fs, root, publicPrefix string) *DiskStore {
	return &DiskStore{
		fs:           fs,
		root:         strings.TrimRight(root, "/"),
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}
}

// Put writes data to the given storage-relative path, creating parent
// directories as needed.
func (s *DiskStore) Put(p string, data []byte) error {
	full := s.fullPath(p)
	if err := s.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	if err := afero.WriteFile(s.fs, full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", p, err)
	}
	return nil
}

// PutStream writes the reader's content to the given path without buffering
// it in memory. Used for large media downloads.
func (s *DiskStore) PutStream(p string, r io.Reader) error {
	full := s.fullPath(p)
	if err := s.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	f, err := s.fs.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create blob %s: %w", p, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to stream blob %s: %w", p, err)
	}
	return nil
}

// Exists reports whether a blob is already stored at the given path. This
// is the cross-run dedup check: a hit means the asset was downloaded by an
// earlier run.
func (s *DiskStore) Exists(p string) bool {
	ok, err := afero.Exists(s.fs, s.fullPath(p))
	return err == nil && ok
}

// URL returns the public-facing path for a stored blob.
func (s *DiskStore) URL(p string) string {
	return s.publicPrefix + "/" + strings.TrimLeft(p, "/")
}

func (s *DiskStore) fullPath(p string) string {
	return s.root + "/" + strings.TrimLeft(p, "/")
}
