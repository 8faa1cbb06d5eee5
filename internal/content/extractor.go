// Package content extracts the article body from legacy detail pages,
// strips page chrome, and rewrites every link and asset reference so the
// resulting HTML is self-contained on the new site.
package content

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/links"
	"go-site-importer/internal/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// dateLayout is the only publication-date format legacy pages use.
const dateLayout = "02.01.2006"

var reDate = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)

// imageExtensions are the extensions the fallback preview heuristic accepts.
var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// AssetFetcher is the downloader dependency, narrowed for testability.
type AssetFetcher interface {
	Fetch(ctx context.Context, absURL, dir string, cache assets.Cache) assets.Result
}

// Options controls one extraction call.
type Options struct {
	// DownloadImages enables asset downloads for <img> tags; when false the
	// sources are only normalized to absolute form.
	DownloadImages bool
	// ImageDir and FileDir are the storage-relative target directories.
	ImageDir string
	FileDir  string
	// Cache is the run-scoped URL cache shared across pages of one run.
	Cache assets.Cache
}

// Tally counts the per-reference outcomes of one extraction.
type Tally struct {
	LinksInternal    int
	LinksExternal    int
	LinksFile        int
	ImagesDownloaded int
	ImagesSkipped    int
	ImagesFailed     int
	FilesDownloaded  int
	FilesSkipped     int
	FilesFailed      int
}

// Add merges another tally into this one.
func (t *Tally) Add(o Tally) {
	t.LinksInternal += o.LinksInternal
	t.LinksExternal += o.LinksExternal
	t.LinksFile += o.LinksFile
	t.ImagesDownloaded += o.ImagesDownloaded
	t.ImagesSkipped += o.ImagesSkipped
	t.ImagesFailed += o.ImagesFailed
	t.FilesDownloaded += o.FilesDownloaded
	t.FilesSkipped += o.FilesSkipped
	t.FilesFailed += o.FilesFailed
}

// Result is the extracted content of one legacy page.
type Result struct {
	Title           string
	BodyHTML        string
	MetaDescription string
	MetaKeywords    string
	Images          []string
	Files           []string
	PublishedAt     *time.Time
	Tally           Tally
}

// Extractor locates and rewrites the content region of legacy pages.
type Extractor struct {
	fetcher AssetFetcher
	base    *url.URL
	loc     Locator
	policy  *bluemonday.Policy
	log     logger.Logger
}

// NewExtractor creates an Extractor for one base origin.
func NewExtractor(fetcher AssetFetcher, base *url.URL, loc Locator, log logger.Logger) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		base:    base,
		loc:     loc,
		policy:  NewPolicy(),
		log:     log,
	}
}

// Extract pulls the content region out of a legacy page. A (nil, nil) return
// means the page has no extractable content region; callers count that as a
// distinct outcome rather than an error.
func (e *Extractor) Extract(ctx context.Context, html string, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}
	if opts.Cache == nil {
		opts.Cache = assets.Cache{}
	}

	container := e.loc.container(doc)
	region := e.loc.region(container)
	if region == nil {
		e.log.Debug("no extractable content region found")
		return nil, nil
	}

	res := &Result{}
	res.MetaDescription, res.MetaKeywords = extractMeta(doc)
	res.Title = e.consumeTitle(region, container)
	res.PublishedAt = e.consumeDate(doc)

	e.cleanup(region)
	e.rewriteAnchors(ctx, region, opts, res)
	e.rewriteForms(ctx, region, opts, res)
	e.rewriteImages(ctx, region, opts, res)
	e.rewriteMedia(region)

	body, err := region.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content region: %w", err)
	}

	if len(res.Images) == 0 {
		if preview := e.fallbackPreview(ctx, region, opts, res); preview != "" {
			body = `<img src="` + preview + `">` + body
		}
	}

	res.BodyHTML = strings.TrimSpace(e.policy.Sanitize(body))
	return res, nil
}

// consumeTitle takes the first h1 of the region (falling back to the
// container) as the page title and removes it so it is not duplicated in
// the body.
func (e *Extractor) consumeTitle(region, container *goquery.Selection) string {
	h1 := region.Find("h1").First()
	if h1.Length() == 0 && container != nil {
		h1 = container.Find("h1").First()
	}
	if h1.Length() == 0 {
		return ""
	}
	title := collapseSpace(h1.Text())
	h1.Remove()
	return title
}

// consumeDate finds a date label, parses it as day.month.year and removes
// the element. Unparseable dates are tolerated and left nil.
func (e *Extractor) consumeDate(doc *goquery.Document) *time.Time {
	for _, sel := range e.loc.DateSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		raw := reDate.FindString(node.Text())
		node.Remove()
		if raw == "" {
			return nil
		}
		when, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil
		}
		return &when
	}
	return nil
}

// cleanup strips scripts, styles and known chrome from the content region.
func (e *Extractor) cleanup(region *goquery.Selection) {
	region.Find("script, style").Remove()
	for _, sel := range e.loc.ChromeSelectors {
		region.Find(sel).Remove()
	}
}

// rewriteAnchors rewrites every <a href> in the region: file links are
// downloaded and relinked, internal page links become root-relative, and
// external links stay fully qualified.
func (e *Extractor) rewriteAnchors(ctx context.Context, region *goquery.Selection, opts Options, res *Result) {
	region.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if rewritten, ok := e.rewriteRef(ctx, href, opts, res); ok {
			a.SetAttr("href", rewritten)
		}
	})
}

// rewriteForms applies the same resolution to <form action>.
func (e *Extractor) rewriteForms(ctx context.Context, region *goquery.Selection, opts Options, res *Result) {
	region.Find("form[action]").Each(func(_ int, f *goquery.Selection) {
		action, _ := f.Attr("action")
		if rewritten, ok := e.rewriteRef(ctx, action, opts, res); ok {
			f.SetAttr("action", rewritten)
		}
	})
}

// rewriteRef resolves and classifies one href/action value. The second
// return is false when the attribute must be left untouched.
func (e *Extractor) rewriteRef(ctx context.Context, ref string, opts Options, res *Result) (string, bool) {
	if links.Skippable(ref) || links.NonFetchable(ref) {
		return "", false
	}

	abs := links.Resolve(ref, e.base)
	cls := links.Classify(abs, e.base.Host)

	switch {
	case cls.File:
		res.Tally.LinksFile++
		fetched := e.fetcher.Fetch(ctx, abs, opts.FileDir, opts.Cache)
		switch fetched.Outcome {
		case assets.OutcomeDownloaded:
			res.Tally.FilesDownloaded++
		case assets.OutcomeCacheHit, assets.OutcomeStoreHit:
			res.Tally.FilesSkipped++
		default:
			res.Tally.FilesFailed++
			return abs, true
		}
		res.Files = append(res.Files, fetched.PublicPath)
		return fetched.PublicPath, true
	case cls.Internal:
		res.Tally.LinksInternal++
		return links.PathFor(abs), true
	default:
		res.Tally.LinksExternal++
		return abs, true
	}
}

// rewriteImages downloads and relinks every <img src> in document order.
// With downloads disabled the sources are only normalized to absolute form.
func (e *Extractor) rewriteImages(ctx context.Context, region *goquery.Selection, opts Options, res *Result) {
	region.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if links.Skippable(src) || links.NonFetchable(src) {
			return
		}
		abs := links.Resolve(src, e.base)

		if !opts.DownloadImages {
			img.SetAttr("src", abs)
			res.Tally.ImagesSkipped++
			res.Images = append(res.Images, abs)
			return
		}

		fetched := e.fetcher.Fetch(ctx, abs, opts.ImageDir, opts.Cache)
		switch fetched.Outcome {
		case assets.OutcomeDownloaded:
			res.Tally.ImagesDownloaded++
		case assets.OutcomeCacheHit, assets.OutcomeStoreHit:
			res.Tally.ImagesSkipped++
		default:
			res.Tally.ImagesFailed++
			img.SetAttr("src", abs)
			return
		}
		img.SetAttr("src", fetched.PublicPath)
		res.Images = append(res.Images, fetched.PublicPath)
	})
}

// rewriteMedia normalizes video/audio/source src attributes to absolute
// form. Large media is never downloaded here; the mp4 relinker handles it
// in a separate pass so ordinary page import stays fast.
func (e *Extractor) rewriteMedia(region *goquery.Selection) {
	region.Find("video[src], audio[src], source[src]").Each(func(_ int, m *goquery.Selection) {
		src, _ := m.Attr("src")
		if links.Skippable(src) || links.NonFetchable(src) {
			return
		}
		m.SetAttr("src", links.Resolve(src, e.base))
	})
}

// fallbackPreview implements the substitute preview heuristic: when the
// region has no images, look in sibling table rows for a non-ornament image
// and use it as the page preview. Returns the src to prepend, or "".
func (e *Extractor) fallbackPreview(ctx context.Context, region *goquery.Selection, opts Options, res *Result) string {
	row := region.Closest("tr")
	if row.Length() == 0 {
		return ""
	}

	preview := ""
	row.Siblings().Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if links.Skippable(src) {
			return true
		}
		if !imageExtensions[links.Ext(src)] || e.loc.ornament(src) {
			return true
		}
		preview = src
		return false
	})
	if preview == "" {
		return ""
	}

	abs := links.Resolve(preview, e.base)
	if !opts.DownloadImages {
		res.Tally.ImagesSkipped++
		res.Images = append(res.Images, abs)
		return abs
	}

	fetched := e.fetcher.Fetch(ctx, abs, opts.ImageDir, opts.Cache)
	switch fetched.Outcome {
	case assets.OutcomeDownloaded:
		res.Tally.ImagesDownloaded++
	case assets.OutcomeCacheHit, assets.OutcomeStoreHit:
		res.Tally.ImagesSkipped++
	default:
		res.Tally.ImagesFailed++
		return ""
	}
	res.Images = append(res.Images, fetched.PublicPath)
	return fetched.PublicPath
}

// extractMeta pulls description and keywords meta content, matching the
// name attribute case-insensitively.
func extractMeta(doc *goquery.Document) (description, keywords string) {
	doc.Find("meta").Each(func(_ int, m *goquery.Selection) {
		name, _ := m.Attr("name")
		content, _ := m.Attr("content")
		switch {
		case strings.EqualFold(name, "description"):
			description = strings.TrimSpace(content)
		case strings.EqualFold(name, "keywords"):
			keywords = strings.TrimSpace(content)
		}
	})
	return description, keywords
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// containsFold is a case-insensitive substring check.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
