package importer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/content"
	"go-site-importer/internal/data"
	"go-site-importer/internal/encoding"
	"go-site-importer/internal/logger"

	"github.com/spf13/afero"
)

// DirectoryOptions controls one directory import run.
type DirectoryOptions struct {
	CrawlOptions
	// Path is the root directory holding the saved legacy pages.
	Path string
}

// DirectoryImporter imports legacy pages saved as local .html/.htm files.
type DirectoryImporter struct {
	fs        afero.Fs
	extractor *content.Extractor
	stores    Stores
	log       logger.Logger
}

// NewDirectoryImporter creates a DirectoryImporter over the given filesystem.
func NewDirectoryImporter(fs afero.Fs, extractor *content.Extractor, stores Stores, log logger.Logger) *DirectoryImporter {
	return &DirectoryImporter{fs: fs, extractor: extractor, stores: stores, log: log}
}

// Run enumerates the HTML files under the root and imports each one. An
// unusable root directory is a setup error; per-file failures are counted.
func (d *DirectoryImporter) Run(ctx context.Context, opts DirectoryOptions) (*Stats, error) {
	stats := &Stats{}

	info, err := d.fs.Stat(opts.Path)
	if err != nil {
		return stats, fmt.Errorf("cannot read import directory %q: %w", opts.Path, err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("import path %q is not a directory", opts.Path)
	}

	var files []string
	err = afero.Walk(d.fs, opts.Path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".html" || ext == ".htm" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk import directory: %w", err)
	}
	sort.Strings(files)

	cache := assets.Cache{}
	for _, file := range files {
		if opts.Limit > 0 && stats.NodesVisited >= opts.Limit {
			break
		}
		stats.NodesVisited++
		d.importFile(ctx, file, opts, cache, stats)
	}
	return stats, nil
}

// importFile reads one saved page and feeds it through the extractor.
func (d *DirectoryImporter) importFile(ctx context.Context, file string, opts DirectoryOptions, cache assets.Cache, stats *Stats) {
	raw, err := afero.ReadFile(d.fs, file)
	if err != nil {
		d.log.Warn(fmt.Sprintf("failed to read %s: %v", file, err))
		stats.PagesFailed++
		return
	}

	res, err := d.extractor.Extract(ctx, encoding.Normalize(raw), content.Options{
		DownloadImages: opts.DownloadImages,
		ImageDir:       opts.ImageDir,
		FileDir:        opts.FileDir,
		Cache:          cache,
	})
	if err != nil {
		d.log.Warn(fmt.Sprintf("failed to extract %s: %v", file, err))
		stats.PagesFailed++
		return
	}
	if res == nil {
		stats.ContentMissing++
		return
	}
	stats.AddTally(res.Tally)

	pageURL := pageURLForFile(opts.Path, file)
	if err := upsertContentPage(ctx, d.stores.Pages, pageURL, data.TypePage, nil, res, opts.UpdateExisting, stats); err != nil {
		d.log.Error(err, fmt.Sprintf("failed to persist page %s", pageURL))
		stats.PagesFailed++
	}
}

// pageURLForFile maps a file under the import root to its canonical page
// URL: index files become their parent directory path with a trailing
// slash, everything else keeps its literal path.
func pageURLForFile(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)

	base := strings.ToLower(path.Base(rel))
	if base == "index.html" || base == "index.htm" {
		dir := path.Dir(rel)
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}
	return "/" + rel
}
