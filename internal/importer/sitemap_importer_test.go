//go:build unit

package importer

import (
	"context"
	"net/url"
	"testing"

	"go-site-importer/internal/data"
	"go-site-importer/internal/logger"
	"go-site-importer/internal/sitemap"
)

func setupSitemapTest(t *testing.T) (*SitemapImporter, *fakePageStore, *fakeItemStore) {
	t.Helper()
	pages := newFakePageStore()
	items := &fakeItemStore{}
	menus := &fakeMenuStore{menus: map[string]*data.Menu{
		"SIDEBAR": {ID: 1, Name: "SIDEBAR"},
	}}
	runner := &fakeRunner{stores: Stores{Pages: pages, Menus: menus, Items: items}}
	base, err := url.Parse("http://old.example.ru")
	if err != nil {
		t.Fatal(err)
	}
	return NewSitemapImporter(runner, base, logger.Nop()), pages, items
}

func twoLevelTree() []sitemap.Node {
	return []sitemap.Node{
		{
			Title: "Раздел А",
			Href:  "/a.html",
			Children: []sitemap.Node{
				{Title: "Подраздел А.1", Href: "/a-1.html"},
			},
		},
	}
}

func TestSitemapImporter_TwoLevelTree(t *testing.T) {
	imp, pages, items := setupSitemapTest(t)
	ctx := context.Background()

	stats, err := imp.Run(ctx, twoLevelTree(), SitemapOptions{Menu: "SIDEBAR", Truncate: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.NodesVisited != 2 || stats.PagesCreated != 2 || stats.MenuItemsCreated != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	parent, _ := pages.FindByURL(ctx, "/a.html")
	child, _ := pages.FindByURL(ctx, "/a-1.html")
	if parent == nil || child == nil {
		t.Fatalf("expected both pages, got parent=%v child=%v", parent, child)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("expected child parent %d, got %v", parent.ID, child.ParentID)
	}
	if parent.Status != data.StatusPublished || parent.Type != data.TypePage || parent.Template != data.DefaultTemplate {
		t.Errorf("unexpected page defaults %+v", parent)
	}

	if len(items.items) != 2 {
		t.Fatalf("expected 2 menu items, got %d", len(items.items))
	}
	root, leaf := items.items[0], items.items[1]
	if root.ParentID != nil {
		t.Errorf("root item must have no parent, got %v", root.ParentID)
	}
	if leaf.ParentID == nil || *leaf.ParentID != root.ID {
		t.Errorf("expected leaf parent item %d, got %v", root.ID, leaf.ParentID)
	}
	if root.PageID == nil || *root.PageID != parent.ID || root.URL != "" {
		t.Errorf("internal item must reference the page, got %+v", root)
	}
	if leaf.SortOrder != 1 {
		t.Errorf("expected 1-based sibling sort order, got %d", leaf.SortOrder)
	}
}

func TestSitemapImporter_SecondRunIsIdempotent(t *testing.T) {
	imp, pages, items := setupSitemapTest(t)
	ctx := context.Background()

	if _, err := imp.Run(ctx, twoLevelTree(), SitemapOptions{Menu: "SIDEBAR"}); err != nil {
		t.Fatal(err)
	}
	stats, err := imp.Run(ctx, twoLevelTree(), SitemapOptions{Menu: "SIDEBAR"})
	if err != nil {
		t.Fatal(err)
	}

	if stats.PagesCreated != 0 || stats.MenuItemsCreated != 0 {
		t.Errorf("second run must not create anything: %+v", stats)
	}
	if stats.PagesSkipped != 2 || stats.MenuItemsUpdated != 2 {
		t.Errorf("second run must only touch existing rows: %+v", stats)
	}
	if len(pages.pages) != 2 || len(items.items) != 2 {
		t.Errorf("expected no duplicate rows, got %d pages %d items", len(pages.pages), len(items.items))
	}
}

func TestSitemapImporter_DryRunCountsWithoutWrites(t *testing.T) {
	imp, pages, items := setupSitemapTest(t)

	nodes := []sitemap.Node{
		{Title: "Раздел А", Href: "/a.html"},
		{Title: "Внешняя", Href: "http://other.example.com/x"},
		{Title: "Документ", Href: "/files/doc.pdf"},
	}
	stats, err := imp.Run(context.Background(), nodes, SitemapOptions{Menu: "SIDEBAR", DryRun: true})
	if err != nil {
		t.Fatal(err)
	}

	if stats.NodesVisited != 3 || stats.LinksInternal != 1 || stats.LinksExternal != 1 || stats.LinksFile != 1 {
		t.Errorf("unexpected classification counts %+v", stats)
	}
	if len(pages.pages) != 0 || len(items.items) != 0 {
		t.Error("dry run must not write to the stores")
	}
}

func TestSitemapImporter_ExternalAndFileNodesGetURLItems(t *testing.T) {
	imp, pages, items := setupSitemapTest(t)

	nodes := []sitemap.Node{
		{Title: "Внешняя", Href: "http://other.example.com/x"},
		{Title: "Документ", Href: "/files/doc.pdf"},
	}
	if _, err := imp.Run(context.Background(), nodes, SitemapOptions{Menu: "SIDEBAR"}); err != nil {
		t.Fatal(err)
	}

	if len(pages.pages) != 0 {
		t.Errorf("non-page nodes must not create pages, got %d", len(pages.pages))
	}
	if len(items.items) != 2 {
		t.Fatalf("expected 2 menu items, got %d", len(items.items))
	}
	for _, item := range items.items {
		if item.PageID != nil || item.URL == "" {
			t.Errorf("expected url-only item, got %+v", item)
		}
	}
	if items.items[1].URL != "http://old.example.ru/files/doc.pdf" {
		t.Errorf("file item must keep the absolute url, got %q", items.items[1].URL)
	}
}

func TestSitemapImporter_RootTitleFilter(t *testing.T) {
	imp, pages, _ := setupSitemapTest(t)

	nodes := []sitemap.Node{
		{Title: "  Новости   и  событиЯ ", Href: "/news.html"},
		{Title: "Контакты", Href: "/contacts.html"},
	}
	// ё/е and case and extra whitespace must not matter.
	stats, err := imp.Run(context.Background(), nodes, SitemapOptions{
		Menu:       "SIDEBAR",
		RootTitles: []string{"новости и события"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if stats.NodesVisited != 1 {
		t.Errorf("expected only the matching root to be walked, got %+v", stats)
	}
	if _, ok := pages.pages["/contacts.html"]; ok {
		t.Error("filtered-out root must not be imported")
	}
}

func TestSitemapImporter_MissingMenuIsSetupError(t *testing.T) {
	imp, _, _ := setupSitemapTest(t)

	_, err := imp.Run(context.Background(), twoLevelTree(), SitemapOptions{Menu: "NAVBAR"})
	if err == nil {
		t.Fatal("expected error for missing menu")
	}
}

func TestSitemapImporter_UpdateExistingOverwrites(t *testing.T) {
	imp, pages, _ := setupSitemapTest(t)
	ctx := context.Background()

	if _, err := imp.Run(ctx, []sitemap.Node{{Title: "Старое имя", Href: "/a.html"}}, SitemapOptions{Menu: "SIDEBAR"}); err != nil {
		t.Fatal(err)
	}
	stats, err := imp.Run(ctx, []sitemap.Node{{Title: "Новое имя", Href: "/a.html"}}, SitemapOptions{Menu: "SIDEBAR", UpdateExisting: true})
	if err != nil {
		t.Fatal(err)
	}

	if stats.PagesUpdated != 1 {
		t.Errorf("expected one updated page, got %+v", stats)
	}
	page, _ := pages.FindByURL(ctx, "/a.html")
	if page.Title != "Новое имя" {
		t.Errorf("expected refreshed title, got %q", page.Title)
	}
}

func TestSitemapImporter_WipeResetsStores(t *testing.T) {
	imp, pages, items := setupSitemapTest(t)
	ctx := context.Background()

	if _, err := imp.Run(ctx, twoLevelTree(), SitemapOptions{Menu: "SIDEBAR"}); err != nil {
		t.Fatal(err)
	}
	stats, err := imp.Run(ctx, []sitemap.Node{{Title: "Раздел Б", Href: "/b.html"}}, SitemapOptions{Menu: "SIDEBAR", Wipe: true})
	if err != nil {
		t.Fatal(err)
	}

	if stats.PagesCreated != 1 {
		t.Errorf("expected fresh create after wipe, got %+v", stats)
	}
	if len(pages.pages) != 1 || len(items.items) != 1 {
		t.Errorf("wipe must clear previous rows, got %d pages %d items", len(pages.pages), len(items.items))
	}
}
