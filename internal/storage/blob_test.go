//go:build unit

package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newTestStore() (*DiskStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewDiskStore(fs, "storage/app/public", "/storage"), fs
}

func TestDiskStore_PutAndExists(t *testing.T) {
	store, fs := newTestStore()

	if store.Exists("files/imported/doc.pdf") {
		t.Fatal("expected blob to be absent before Put")
	}
	if err := store.Put("files/imported/doc.pdf", []byte("%PDF-1.4")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !store.Exists("files/imported/doc.pdf") {
		t.Error("expected blob to exist after Put")
	}

	data, err := afero.ReadFile(fs, "storage/app/public/files/imported/doc.pdf")
	if err != nil {
		t.Fatalf("failed to read back blob: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestDiskStore_PutStream(t *testing.T) {
	store, fs := newTestStore()

	payload := bytes.Repeat([]byte("v"), 4096)
	if err := store.PutStream("files/imported/movie.mp4", bytes.NewReader(payload)); err != nil {
		t.Fatalf("PutStream failed: %v", err)
	}

	data, err := afero.ReadFile(fs, "storage/app/public/files/imported/movie.mp4")
	if err != nil {
		t.Fatalf("failed to read back blob: %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), len(data))
	}
}

func TestDiskStore_URL(t *testing.T) {
	store, _ := newTestStore()

	got := store.URL("images/imported/logo.png")
	if got != "/storage/images/imported/logo.png" {
		t.Errorf("unexpected public URL %q", got)
	}
	// Leading slashes on the stored path must not double up.
	if got := store.URL("/images/a.png"); strings.Contains(got, "//") {
		t.Errorf("public URL contains doubled slash: %q", got)
	}
}
