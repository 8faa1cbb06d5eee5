package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/data"
	"go-site-importer/internal/links"
	"go-site-importer/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// AssetFetcher resolves one asset URL to a public storage path.
type AssetFetcher interface {
	Fetch(ctx context.Context, absURL, dir string, cache assets.Cache) assets.Result
}

// StreamFetcher is the streaming variant used for large media.
type StreamFetcher interface {
	FetchStream(ctx context.Context, absURL, dir string, cache assets.Cache) assets.Result
}

// RelinkOptions controls one file-relink run.
type RelinkOptions struct {
	// PageIDs restricts the run to specific pages; empty means all pages.
	PageIDs []int64
	// Limit bounds the number of pages processed; zero means unbounded.
	Limit int
	// ShowLinks logs every rewritten link.
	ShowLinks bool
	// FileDir is the storage-relative target directory.
	FileDir string
}

// FileRelinker rewrites internal file links in already-stored pages to
// point at downloaded copies.
type FileRelinker struct {
	pages   PageStore
	fetcher AssetFetcher
	base    *url.URL
	prefix  string
	log     logger.Logger
}

// NewFileRelinker creates a FileRelinker. prefix is the public storage
// prefix; links already under it are left alone.
func NewFileRelinker(pages PageStore, fetcher AssetFetcher, base *url.URL, prefix string, log logger.Logger) *FileRelinker {
	return &FileRelinker{pages: pages, fetcher: fetcher, base: base, prefix: prefix, log: log}
}

// Run scans the selected pages and relinks their internal file anchors.
// A page is persisted only when at least one link was replaced.
func (r *FileRelinker) Run(ctx context.Context, opts RelinkOptions) (*Stats, error) {
	stats := &Stats{}

	var pages []*data.Page
	var err error
	if len(opts.PageIDs) > 0 {
		pages, err = r.pages.FindByIDs(ctx, opts.PageIDs)
	} else {
		pages, err = r.pages.FindAll(ctx)
	}
	if err != nil {
		return stats, err
	}

	cache := assets.Cache{}
	for _, page := range pages {
		if opts.Limit > 0 && stats.NodesVisited >= opts.Limit {
			break
		}
		stats.NodesVisited++
		r.relinkPage(ctx, page, opts, cache, stats)
	}
	return stats, nil
}

func (r *FileRelinker) relinkPage(ctx context.Context, page *data.Page, opts RelinkOptions, cache assets.Cache, stats *Stats) {
	doc, err := parseFragment(page.Content)
	if err != nil {
		r.log.Warn(fmt.Sprintf("failed to parse content of page %d: %v", page.ID, err))
		stats.PagesFailed++
		return
	}

	replaced := false
	var added []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if links.Skippable(href) || links.NonFetchable(href) {
			return
		}
		if strings.HasPrefix(href, r.prefix) {
			return
		}

		abs := links.Resolve(href, r.base)
		cls := links.Classify(abs, r.base.Host)
		if !cls.Internal || !cls.File {
			return
		}
		stats.LinksFile++

		result := r.fetcher.Fetch(ctx, abs, opts.FileDir, cache)
		switch result.Outcome {
		case assets.OutcomeDownloaded:
			stats.FilesDownloaded++
		case assets.OutcomeCacheHit, assets.OutcomeStoreHit:
			stats.FilesSkipped++
		default:
			stats.FilesFailed++
			return
		}

		if opts.ShowLinks {
			r.log.Info(fmt.Sprintf("page %d: %s -> %s", page.ID, href, result.PublicPath))
		}
		a.SetAttr("href", result.PublicPath)
		added = append(added, result.PublicPath)
		replaced = true
	})

	if !replaced {
		stats.PagesSkipped++
		return
	}

	body, err := fragmentHTML(doc)
	if err != nil {
		r.log.Error(err, fmt.Sprintf("failed to serialize content of page %d", page.ID))
		stats.PagesFailed++
		return
	}
	page.Content = body
	page.Documents = mergeDocuments(page.Documents, added)

	if err := r.pages.Update(ctx, page); err != nil {
		r.log.Error(err, fmt.Sprintf("failed to save relinked page %d", page.ID))
		stats.PagesFailed++
		return
	}
	stats.PagesRelinked++
}

// MP4Options controls one single-page mp4 relink.
type MP4Options struct {
	// PageURL names the one page to process.
	PageURL string
	// ShowLinks logs every rewritten reference.
	ShowLinks bool
	// FileDir is the storage-relative target directory.
	FileDir string
}

// MP4Relinker rewrites .mp4 references on exactly one page, streaming the
// downloads so video bytes never sit in memory.
type MP4Relinker struct {
	pages   PageStore
	fetcher StreamFetcher
	base    *url.URL
	prefix  string
	log     logger.Logger
}

// NewMP4Relinker creates an MP4Relinker.
func NewMP4Relinker(pages PageStore, fetcher StreamFetcher, base *url.URL, prefix string, log logger.Logger) *MP4Relinker {
	return &MP4Relinker{pages: pages, fetcher: fetcher, base: base, prefix: prefix, log: log}
}

// Run relinks the mp4 references of the named page. A missing page is a
// setup error.
func (r *MP4Relinker) Run(ctx context.Context, opts MP4Options) (*Stats, error) {
	stats := &Stats{}

	page, err := r.pages.FindByURL(ctx, opts.PageURL)
	if err != nil {
		return stats, err
	}
	if page == nil {
		return stats, fmt.Errorf("page %q not found", opts.PageURL)
	}
	stats.NodesVisited++

	doc, err := parseFragment(page.Content)
	if err != nil {
		return stats, fmt.Errorf("failed to parse content of page %d: %w", page.ID, err)
	}

	cache := assets.Cache{}
	replaced := false
	rewrite := func(sel *goquery.Selection, attr string) {
		val, ok := sel.Attr(attr)
		if !ok || links.Skippable(val) || links.NonFetchable(val) {
			return
		}
		if strings.HasPrefix(val, r.prefix) {
			return
		}

		abs := links.Resolve(val, r.base)
		cls := links.Classify(abs, r.base.Host)
		parsed, err := url.Parse(abs)
		if err != nil || !cls.Internal || links.Ext(parsed.Path) != "mp4" {
			return
		}
		stats.LinksFile++

		result := r.fetcher.FetchStream(ctx, abs, opts.FileDir, cache)
		switch result.Outcome {
		case assets.OutcomeDownloaded:
			stats.FilesDownloaded++
		case assets.OutcomeCacheHit, assets.OutcomeStoreHit:
			stats.FilesSkipped++
		default:
			stats.FilesFailed++
			return
		}

		if opts.ShowLinks {
			r.log.Info(fmt.Sprintf("page %d: %s -> %s", page.ID, val, result.PublicPath))
		}
		sel.SetAttr(attr, result.PublicPath)
		replaced = true
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) { rewrite(a, "href") })
	doc.Find("[src]").Each(func(_ int, m *goquery.Selection) { rewrite(m, "src") })

	if !replaced {
		stats.PagesSkipped++
		return stats, nil
	}

	body, err := fragmentHTML(doc)
	if err != nil {
		return stats, fmt.Errorf("failed to serialize content of page %d: %w", page.ID, err)
	}
	page.Content = body

	if err := r.pages.Update(ctx, page); err != nil {
		return stats, fmt.Errorf("failed to save relinked page %d: %w", page.ID, err)
	}
	stats.PagesRelinked++
	return stats, nil
}

// mergeDocuments appends new paths to a page's document list without
// duplicates, preserving order.
func mergeDocuments(existing data.StringList, added []string) data.StringList {
	seen := map[string]bool{}
	for _, doc := range existing {
		seen[doc] = true
	}
	for _, doc := range added {
		if !seen[doc] {
			seen[doc] = true
			existing = append(existing, doc)
		}
	}
	return existing
}
