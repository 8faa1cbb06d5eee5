// Package assets downloads binary assets referenced by legacy pages into
// blob storage, deduplicating within a run (by absolute URL) and across
// runs (by derived target path).
package assets

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"go-site-importer/internal/data"
	"go-site-importer/internal/fetch"
	"go-site-importer/internal/logger"
	"go-site-importer/internal/storage"
)

// Outcome tags the result of one asset resolution.
type Outcome int

const (
	// OutcomeDownloaded means the asset was fetched and written to storage.
	OutcomeDownloaded Outcome = iota
	// OutcomeCacheHit means the absolute URL was already resolved this run.
	OutcomeCacheHit
	// OutcomeStoreHit means a blob already existed at the derived path.
	OutcomeStoreHit
	// OutcomeSkippedHTML means the server returned an HTML page instead of
	// the asset (an error or redirect page) and nothing was saved.
	OutcomeSkippedHTML
	// OutcomeFailed means the fetch or write failed; the original reference
	// is left in place.
	OutcomeFailed
)

// Result is the outcome of resolving one asset URL. On failure PublicPath
// holds the original URL so callers can leave the reference unchanged.
type Result struct {
	PublicPath string
	Outcome    Outcome
}

// Cache is the run-scoped map from absolute source URL to resolved public
// path. It is created per invocation and threaded through the call chain;
// it must never outlive a run.
type Cache map[string]string

// StoredFileStore is the subset of the file repository the downloader needs.
type StoredFileStore interface {
	Upsert(ctx context.Context, path, mime, ext, name string) (*data.StoredFile, error)
}

// Downloader fetches remote assets once and persists them with stable paths.
type Downloader struct {
	client *fetch.Client
	blobs  storage.BlobStore
	files  StoredFileStore
	log    logger.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(client *fetch.Client, blobs storage.BlobStore, files StoredFileStore, log logger.Logger) *Downloader {
	return &Downloader{client: client, blobs: blobs, files: files, log: log}
}

// Fetch resolves an absolute asset URL to a public storage path. It never
// returns an error: broken legacy links must not abort a run, so failures
// are tagged in the Result and the original URL is passed through.
func (d *Downloader) Fetch(ctx context.Context, absURL, dir string, cache Cache) Result {
	if cached, ok := cache[absURL]; ok {
		return Result{PublicPath: cached, Outcome: OutcomeCacheHit}
	}

	resp, err := d.client.Get(ctx, absURL)
	if err != nil {
		d.log.Warn(fmt.Sprintf("asset fetch failed for %s: %v", absURL, err))
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}

	if isErrorPage(resp.Header, resp.Body) {
		d.log.Debug(fmt.Sprintf("skipping %s: server returned an html page", absURL))
		return Result{PublicPath: absURL, Outcome: OutcomeSkippedHTML}
	}

	target := TargetPath(absURL, dir, resp.Header, resp.Body)
	if d.blobs.Exists(target) {
		public := d.resolve(ctx, absURL, target, resp.Header)
		cache[absURL] = public
		return Result{PublicPath: public, Outcome: OutcomeStoreHit}
	}

	if err := d.blobs.Put(target, resp.Body); err != nil {
		d.log.Error(err, fmt.Sprintf("failed to store asset from %s", absURL))
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}

	public := d.resolve(ctx, absURL, target, resp.Header)
	cache[absURL] = public
	return Result{PublicPath: public, Outcome: OutcomeDownloaded}
}

// FetchStream is the large-media variant of Fetch: the body is streamed
// into a temporary file and only moved into storage after the leading bytes
// pass the HTML sniff, so video bytes are never buffered in memory.
func (d *Downloader) FetchStream(ctx context.Context, absURL, dir string, cache Cache) Result {
	if cached, ok := cache[absURL]; ok {
		return Result{PublicPath: cached, Outcome: OutcomeCacheHit}
	}

	tmp, err := os.CreateTemp("", "asset-*")
	if err != nil {
		d.log.Error(err, "failed to create temp file for streaming download")
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	info, err := d.client.GetStream(ctx, absURL, tmp)
	if err != nil {
		d.log.Warn(fmt.Sprintf("asset stream failed for %s: %v", absURL, err))
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}

	if isErrorPage(info.Header, info.Peek) {
		d.log.Debug(fmt.Sprintf("skipping %s: server returned an html page", absURL))
		return Result{PublicPath: absURL, Outcome: OutcomeSkippedHTML}
	}

	target := TargetPath(absURL, dir, info.Header, info.Peek)
	if d.blobs.Exists(target) {
		public := d.resolve(ctx, absURL, target, info.Header)
		cache[absURL] = public
		return Result{PublicPath: public, Outcome: OutcomeStoreHit}
	}

	if _, err := tmp.Seek(0, 0); err != nil {
		d.log.Error(err, "failed to rewind temp file")
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}
	if err := d.blobs.PutStream(target, tmp); err != nil {
		d.log.Error(err, fmt.Sprintf("failed to store asset from %s", absURL))
		return Result{PublicPath: absURL, Outcome: OutcomeFailed}
	}

	public := d.resolve(ctx, absURL, target, info.Header)
	cache[absURL] = public
	return Result{PublicPath: public, Outcome: OutcomeDownloaded}
}

// resolve maps the target path to its public URL and refreshes the
// StoredFile record. Metadata is upserted on storage-level hits too, so
// every caller observes the same policy.
func (d *Downloader) resolve(ctx context.Context, absURL, target string, header http.Header) string {
	mimeType, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
	name := dispositionFilename(header)
	if _, err := d.files.Upsert(ctx, target, mimeType, path.Ext(target), name); err != nil {
		d.log.Error(err, fmt.Sprintf("failed to upsert stored file record for %s", target))
	}
	return d.blobs.URL(target)
}

// isErrorPage applies the content sniff: an HTML response without an
// attachment disposition is a served error/redirect page, not an asset.
func isErrorPage(header http.Header, body []byte) bool {
	if attachmentDisposition(header) {
		return false
	}
	ct := strings.ToLower(header.Get("Content-Type"))
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml") {
		return true
	}
	return ct == "" && looksLikeHTML(body)
}

// dispositionFilename extracts the filename from a Content-Disposition
// header, when present.
func dispositionFilename(header http.Header) string {
	cd := header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		return params["filename"]
	}
	return ""
}
