package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/content"
	"go-site-importer/internal/data"
	"go-site-importer/internal/encoding"
	"go-site-importer/internal/fetch"
	"go-site-importer/internal/links"
	"go-site-importer/internal/logger"
	"go-site-importer/internal/sitemap"

	"github.com/PuerkitoBio/goquery"
)

// maxTreeDepth bounds the recursive content crawl.
const maxTreeDepth = 3

// TreeOptions controls one recursive content import.
type TreeOptions struct {
	CrawlOptions
	// Depth bounds the crawl, 1..3.
	Depth int
}

// crawlItem is one queued page with its distance from the seed set.
type crawlItem struct {
	url   string
	depth int
}

// TreeCrawler imports page content breadth-first, seeded from a sitemap
// tree and expanded with internal links discovered on fetched pages.
type TreeCrawler struct {
	client    *fetch.Client
	extractor *content.Extractor
	stores    Stores
	base      *url.URL
	log       logger.Logger
}

// NewTreeCrawler creates a TreeCrawler.
func NewTreeCrawler(client *fetch.Client, extractor *content.Extractor, stores Stores, base *url.URL, log logger.Logger) *TreeCrawler {
	return &TreeCrawler{client: client, extractor: extractor, stores: stores, base: base, log: log}
}

// Run crawls the tree. The visited set and depth bound prevent cycles and
// unbounded growth; each page commits independently.
func (c *TreeCrawler) Run(ctx context.Context, nodes []sitemap.Node, opts TreeOptions) (*Stats, error) {
	stats := &Stats{}
	if opts.Depth < 1 || opts.Depth > maxTreeDepth {
		return stats, fmt.Errorf("depth must be between 1 and %d, got %d", maxTreeDepth, opts.Depth)
	}

	visited := map[string]bool{}
	var queue []crawlItem
	c.seed(nodes, 1, opts.Depth, visited, &queue)

	cache := assets.Cache{}
	for len(queue) > 0 {
		if opts.Limit > 0 && stats.NodesVisited >= opts.Limit {
			break
		}
		item := queue[0]
		queue = queue[1:]
		stats.NodesVisited++

		discovered := c.importPage(ctx, item, opts, cache, stats)
		if item.depth >= opts.Depth {
			continue
		}
		for _, link := range discovered {
			if visited[link] {
				continue
			}
			visited[link] = true
			queue = append(queue, crawlItem{url: link, depth: item.depth + 1})
		}
	}
	return stats, nil
}

// seed enqueues the sitemap tree's internal page links up to the depth
// bound, pre-order.
func (c *TreeCrawler) seed(nodes []sitemap.Node, depth, maxDepth int, visited map[string]bool, queue *[]crawlItem) {
	if depth > maxDepth {
		return
	}
	for _, node := range nodes {
		abs := links.Resolve(node.Href, c.base)
		cls := links.Classify(abs, c.base.Host)
		if cls.Internal && !cls.File && !visited[abs] {
			visited[abs] = true
			*queue = append(*queue, crawlItem{url: abs, depth: depth})
		}
		c.seed(node.Children, depth+1, maxDepth, visited, queue)
	}
}

// importPage fetches and imports one page, returning the internal page
// links found in it for further crawling.
func (c *TreeCrawler) importPage(ctx context.Context, item crawlItem, opts TreeOptions, cache assets.Cache, stats *Stats) []string {
	body, err := c.client.GetPage(ctx, item.url)
	if err != nil {
		c.log.Warn(fmt.Sprintf("failed to fetch %s: %v", item.url, err))
		stats.PagesFailed++
		return nil
	}
	html := encoding.Normalize(body)

	res, err := c.extractor.Extract(ctx, html, content.Options{
		DownloadImages: opts.DownloadImages,
		ImageDir:       opts.ImageDir,
		FileDir:        opts.FileDir,
		Cache:          cache,
	})
	if err != nil {
		c.log.Warn(fmt.Sprintf("failed to extract %s: %v", item.url, err))
		stats.PagesFailed++
		return nil
	}
	if res == nil {
		stats.ContentMissing++
		return c.discoverLinks(html)
	}
	stats.AddTally(res.Tally)

	pageURL := links.PathFor(item.url)
	if err := upsertContentPage(ctx, c.stores.Pages, pageURL, data.TypePage, nil, res, opts.UpdateExisting, stats); err != nil {
		c.log.Error(err, fmt.Sprintf("failed to persist page %s", pageURL))
		stats.PagesFailed++
	}
	return c.discoverLinks(html)
}

// discoverLinks returns the internal page links present in a fetched page.
func (c *TreeCrawler) discoverLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var found []string
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if links.Skippable(href) || links.NonFetchable(href) {
			return
		}
		abs := links.Resolve(href, c.base)
		cls := links.Classify(abs, c.base.Host)
		if cls.Internal && !cls.File && !seen[abs] {
			seen[abs] = true
			found = append(found, abs)
		}
	})
	return found
}
