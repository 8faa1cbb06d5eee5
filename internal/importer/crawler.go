package importer

import (
	"context"
	"strings"

	"go-site-importer/internal/content"
	"go-site-importer/internal/data"

	"github.com/PuerkitoBio/goquery"
)

// CrawlOptions are the knobs shared by every content crawler.
type CrawlOptions struct {
	// UpdateExisting refreshes title and meta fields on pages that already
	// exist; content and media lists are always refreshed.
	UpdateExisting bool
	// DownloadImages enables image downloads during extraction.
	DownloadImages bool
	// ImageDir and FileDir are the storage-relative asset directories.
	ImageDir string
	FileDir  string
	// Limit bounds the number of items processed; zero means unbounded.
	Limit int
}

// upsertContentPage applies the crawler upsert policy: a new page is created
// with the computed fields; an existing one always gets fresh content and
// media lists, while the other metadata is refreshed only with
// UpdateExisting or when it was previously empty.
func upsertContentPage(ctx context.Context, pages PageStore, pageURL, pageType string, parent *int64, res *content.Result, updateExisting bool, stats *Stats) error {
	existing, err := pages.FindByURL(ctx, pageURL)
	if err != nil {
		return err
	}

	if existing == nil {
		page := &data.Page{
			ParentID:        parent,
			Title:           res.Title,
			ShortTitle:      res.Title,
			MetaDescription: res.MetaDescription,
			MetaKeywords:    res.MetaKeywords,
			PublishedAt:     res.PublishedAt,
			Content:         res.BodyHTML,
			Status:          data.StatusPublished,
			Type:            pageType,
			URL:             pageURL,
			Template:        data.DefaultTemplate,
			Images:          data.StringList(res.Images),
			Documents:       data.StringList(res.Files),
		}
		if err := pages.Create(ctx, page); err != nil {
			return err
		}
		stats.PagesCreated++
		return nil
	}

	existing.Content = res.BodyHTML
	existing.Images = data.StringList(res.Images)
	existing.Documents = data.StringList(res.Files)

	if updateExisting || existing.Title == "" {
		existing.Title = res.Title
		existing.ShortTitle = res.Title
	}
	if updateExisting || existing.MetaDescription == "" {
		existing.MetaDescription = res.MetaDescription
	}
	if updateExisting || existing.MetaKeywords == "" {
		existing.MetaKeywords = res.MetaKeywords
	}
	if res.PublishedAt != nil && (updateExisting || existing.PublishedAt == nil) {
		existing.PublishedAt = res.PublishedAt
	}
	if existing.ParentID == nil && parent != nil {
		existing.ParentID = parent
	}

	if err := pages.Update(ctx, existing); err != nil {
		return err
	}
	stats.PagesUpdated++
	return nil
}

// parseFragment parses stored page content, which is an HTML fragment
// rather than a full document.
func parseFragment(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(fragment))
}

// fragmentHTML serializes a fragment document back to the stored form.
func fragmentHTML(doc *goquery.Document) (string, error) {
	return doc.Find("body").Html()
}
