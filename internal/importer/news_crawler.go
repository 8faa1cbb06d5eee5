package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/content"
	"go-site-importer/internal/data"
	"go-site-importer/internal/encoding"
	"go-site-importer/internal/fetch"
	"go-site-importer/internal/links"
	"go-site-importer/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// defaultListPattern builds the page-numbered news list URLs.
const defaultListPattern = "/news/?page=%d"

var reListDate = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)

// NewsOptions controls one news crawl.
type NewsOptions struct {
	CrawlOptions
	// Start and End bound the list page numbers, inclusive.
	Start int
	End   int
	// ParentURL, when set, names an existing page all imported news are
	// parented under.
	ParentURL string
	// ListPattern overrides the list URL pattern; it must contain one %d.
	ListPattern string
}

// newsItem is one entry parsed from a list page.
type newsItem struct {
	Title   string
	URL     string
	Date    *time.Time
	Preview string
}

// NewsCrawler imports news items from page-numbered list pages.
type NewsCrawler struct {
	client    *fetch.Client
	extractor *content.Extractor
	stores    Stores
	base      *url.URL
	log       logger.Logger
}

// NewNewsCrawler creates a NewsCrawler.
func NewNewsCrawler(client *fetch.Client, extractor *content.Extractor, stores Stores, base *url.URL, log logger.Logger) *NewsCrawler {
	return &NewsCrawler{client: client, extractor: extractor, stores: stores, base: base, log: log}
}

// Run walks list pages Start..End, stops early when pagination starts
// repeating, and imports each unique detail URL once.
func (c *NewsCrawler) Run(ctx context.Context, opts NewsOptions) (*Stats, error) {
	stats := &Stats{}

	var parent *int64
	if opts.ParentURL != "" {
		page, err := c.stores.Pages.FindByURL(ctx, opts.ParentURL)
		if err != nil {
			return stats, err
		}
		if page == nil {
			return stats, fmt.Errorf("parent page %q not found", opts.ParentURL)
		}
		parent = &page.ID
	}

	pattern := opts.ListPattern
	if pattern == "" {
		pattern = defaultListPattern
	}

	cache := assets.Cache{}
	seenSignatures := map[string]bool{}
	seenDetails := map[string]bool{}
	imported := 0

	for n := opts.Start; n <= opts.End; n++ {
		listURL := links.Resolve(fmt.Sprintf(pattern, n), c.base)
		body, err := c.client.GetPage(ctx, listURL)
		if err != nil {
			c.log.Warn(fmt.Sprintf("failed to fetch list page %s: %v", listURL, err))
			stats.PagesFailed++
			continue
		}

		items := c.parseList(encoding.Normalize(body))
		sig := listSignature(items)
		if seenSignatures[sig] {
			c.log.Info(fmt.Sprintf("list page %d repeats earlier content, stopping", n))
			break
		}
		seenSignatures[sig] = true

		for _, item := range items {
			if opts.Limit > 0 && imported >= opts.Limit {
				return stats, nil
			}
			if seenDetails[item.URL] {
				stats.PagesSkipped++
				continue
			}
			seenDetails[item.URL] = true
			imported++
			c.importDetail(ctx, item, parent, opts, cache, stats)
		}
	}
	return stats, nil
}

// parseList extracts the news blocks of one list page in document order.
func (c *NewsCrawler) parseList(html string) []newsItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var items []newsItem
	doc.Find(".news").Each(func(_ int, block *goquery.Selection) {
		link := block.Find("a[href]").First()
		href, _ := link.Attr("href")
		if links.Skippable(href) {
			return
		}

		item := newsItem{
			Title: strings.Join(strings.Fields(link.Text()), " "),
			URL:   links.Resolve(href, c.base),
		}
		if raw := reListDate.FindString(block.Text()); raw != "" {
			if when, err := time.Parse("02.01.2006", raw); err == nil {
				item.Date = &when
			}
		}
		if img := block.Find("img[src]").First(); img.Length() > 0 {
			src, _ := img.Attr("src")
			item.Preview = links.Resolve(src, c.base)
		}
		items = append(items, item)
	})
	return items
}

// importDetail fetches and imports one news detail page. Failures are
// counted and never abort the run.
func (c *NewsCrawler) importDetail(ctx context.Context, item newsItem, parent *int64, opts NewsOptions, cache assets.Cache, stats *Stats) {
	body, err := c.client.GetPage(ctx, item.URL)
	if err != nil {
		c.log.Warn(fmt.Sprintf("failed to fetch news detail %s: %v", item.URL, err))
		stats.PagesFailed++
		return
	}

	res, err := c.extractor.Extract(ctx, encoding.Normalize(body), content.Options{
		DownloadImages: opts.DownloadImages,
		ImageDir:       opts.ImageDir,
		FileDir:        opts.FileDir,
		Cache:          cache,
	})
	if err != nil {
		c.log.Warn(fmt.Sprintf("failed to extract news detail %s: %v", item.URL, err))
		stats.PagesFailed++
		return
	}
	if res == nil {
		stats.ContentMissing++
		return
	}
	stats.AddTally(res.Tally)

	if res.Title == "" {
		res.Title = item.Title
	}
	if res.PublishedAt == nil {
		res.PublishedAt = item.Date
	}

	pageURL := links.PathFor(item.URL)
	if err := upsertContentPage(ctx, c.stores.Pages, pageURL, data.TypeNews, parent, res, opts.UpdateExisting, stats); err != nil {
		c.log.Error(err, fmt.Sprintf("failed to persist news page %s", pageURL))
		stats.PagesFailed++
	}
}

// listSignature hashes the sorted item-URL set of one list page, detecting
// when pagination wraps around to already-seen content.
func listSignature(items []newsItem) string {
	urls := make([]string, 0, len(items))
	for _, item := range items {
		urls = append(urls, item.URL)
	}
	sort.Strings(urls)
	sum := sha256.Sum256([]byte(strings.Join(urls, "\n")))
	return hex.EncodeToString(sum[:])
}
