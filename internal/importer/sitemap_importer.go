package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-site-importer/internal/data"
	"go-site-importer/internal/links"
	"go-site-importer/internal/logger"
	"go-site-importer/internal/sitemap"
)

// SitemapOptions controls one sitemap import run.
type SitemapOptions struct {
	// Menu is the name of the pre-provisioned menu to import into.
	Menu string
	// RootTitles, when non-empty, restricts the walk to top-level nodes
	// whose title matches one of the entries.
	RootTitles []string
	// UpdateExisting overwrites title and parent on pages that already exist.
	UpdateExisting bool
	// DryRun walks the tree and accumulates classification counts without
	// any store writes.
	DryRun bool
	// Truncate deletes the target menu's items before importing.
	Truncate bool
	// Wipe is the destructive reset: all menu items and pages are deleted
	// first. Never implied, only explicit.
	Wipe bool
}

// SitemapImporter walks a parsed sitemap tree and upserts pages and menu
// items. The whole tree is written in one transaction.
type SitemapImporter struct {
	runner TxRunner
	base   *url.URL
	log    logger.Logger
}

// NewSitemapImporter creates a SitemapImporter for one base origin.
func NewSitemapImporter(runner TxRunner, base *url.URL, log logger.Logger) *SitemapImporter {
	return &SitemapImporter{runner: runner, base: base, log: log}
}

// Run imports the tree into the named menu. The returned stats are valid
// even when the run aborts with an error.
func (i *SitemapImporter) Run(ctx context.Context, nodes []sitemap.Node, opts SitemapOptions) (*Stats, error) {
	stats := &Stats{}
	roots := filterRoots(nodes, opts.RootTitles)

	err := i.runner.InTx(ctx, func(s Stores) error {
		menu, err := s.Menus.FindByName(ctx, opts.Menu)
		if err != nil {
			return err
		}
		if menu == nil {
			return fmt.Errorf("menu %q not found", opts.Menu)
		}

		if !opts.DryRun {
			switch {
			case opts.Wipe:
				if err := s.Items.DeleteAll(ctx); err != nil {
					return err
				}
				if err := s.Pages.DeleteAll(ctx); err != nil {
					return err
				}
			case opts.Truncate:
				if err := s.Items.DeleteByMenu(ctx, menu.ID); err != nil {
					return err
				}
			}
		}

		return i.walk(ctx, s, menu.ID, roots, nil, nil, opts, stats)
	})
	return stats, err
}

// walk processes nodes in pre-order: parent before children, siblings in
// listed order. The current parent page and parent menu item are passed
// explicitly at every level.
func (i *SitemapImporter) walk(ctx context.Context, s Stores, menuID int64, nodes []sitemap.Node, parentPage, parentItem *int64, opts SitemapOptions, stats *Stats) error {
	for idx, node := range nodes {
		stats.NodesVisited++

		abs := links.Resolve(node.Href, i.base)
		cls := links.Classify(abs, i.base.Host)
		isPage := cls.Internal && !cls.File
		switch {
		case cls.File:
			stats.LinksFile++
		case cls.Internal:
			stats.LinksInternal++
		default:
			stats.LinksExternal++
		}

		if opts.DryRun {
			if err := i.walk(ctx, s, menuID, node.Children, nil, nil, opts, stats); err != nil {
				return err
			}
			continue
		}

		childParentPage := parentPage
		var pageID *int64
		if isPage {
			page, err := i.upsertPage(ctx, s, links.PathFor(abs), node.Title, parentPage, opts, stats)
			if err != nil {
				return err
			}
			pageID = &page.ID
			childParentPage = &page.ID
		}

		item, wasNew, err := s.Items.FindOrCreate(ctx, menuID, parentItem, node.Title)
		if err != nil {
			return err
		}
		item.SortOrder = idx + 1
		if pageID != nil {
			item.PageID = pageID
			item.URL = ""
		} else {
			item.PageID = nil
			item.URL = abs
		}
		if err := s.Items.Save(ctx, item); err != nil {
			return err
		}
		if wasNew {
			stats.MenuItemsCreated++
		} else {
			stats.MenuItemsUpdated++
		}

		if err := i.walk(ctx, s, menuID, node.Children, childParentPage, &item.ID, opts, stats); err != nil {
			return err
		}
	}
	return nil
}

// upsertPage looks a page up by its normalized URL and creates or refreshes
// it. Without UpdateExisting only a missing parent is backfilled.
func (i *SitemapImporter) upsertPage(ctx context.Context, s Stores, pageURL, title string, parent *int64, opts SitemapOptions, stats *Stats) (*data.Page, error) {
	existing, err := s.Pages.FindByURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		page := &data.Page{
			ParentID:   parent,
			Title:      title,
			ShortTitle: title,
			Status:     data.StatusPublished,
			Type:       data.TypePage,
			URL:        pageURL,
			Template:   data.DefaultTemplate,
			Images:     data.StringList{},
			Documents:  data.StringList{},
		}
		if err := s.Pages.Create(ctx, page); err != nil {
			return nil, err
		}
		stats.PagesCreated++
		return page, nil
	}

	changed := false
	if opts.UpdateExisting {
		existing.Title = title
		existing.ShortTitle = title
		existing.ParentID = parent
		changed = true
	} else if existing.ParentID == nil && parent != nil {
		existing.ParentID = parent
		changed = true
	}

	if changed {
		if err := s.Pages.Update(ctx, existing); err != nil {
			return nil, err
		}
		stats.PagesUpdated++
	} else {
		stats.PagesSkipped++
	}
	return existing, nil
}

// filterRoots applies the optional allow-list to the top-level nodes.
func filterRoots(nodes []sitemap.Node, allowed []string) []sitemap.Node {
	if len(allowed) == 0 {
		return nodes
	}
	var roots []sitemap.Node
	for _, node := range nodes {
		if matchesTitle(node.Title, allowed) {
			roots = append(roots, node)
		}
	}
	return roots
}

// matchesTitle is the case- and ё-insensitive, whitespace-collapsed
// substring match used for root filtering.
func matchesTitle(title string, allowed []string) bool {
	normTitle := normalizeTitle(title)
	for _, entry := range allowed {
		if strings.Contains(normTitle, normalizeTitle(entry)) {
			return true
		}
	}
	return false
}

func normalizeTitle(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.ReplaceAll(s, "ё", "е")
}
