//go:build unit

package importer

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"time"

	"go-site-importer/internal/assets"
	"go-site-importer/internal/data"
)

// fakePageStore is an in-memory PageStore keyed by URL.
type fakePageStore struct {
	pages  map[string]*data.Page
	nextID int64
}

var _ PageStore = (*fakePageStore)(nil)

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: map[string]*data.Page{}}
}

func (s *fakePageStore) FindByURL(_ context.Context, url string) (*data.Page, error) {
	if p, ok := s.pages[url]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *fakePageStore) FindByID(_ context.Context, id int64) (*data.Page, error) {
	for _, p := range s.pages {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakePageStore) FindByIDs(ctx context.Context, ids []int64) ([]*data.Page, error) {
	var found []*data.Page
	for _, id := range ids {
		p, _ := s.FindByID(ctx, id)
		if p != nil {
			found = append(found, p)
		}
	}
	return found, nil
}

func (s *fakePageStore) FindAll(context.Context) ([]*data.Page, error) {
	var all []*data.Page
	for _, p := range s.pages {
		copied := *p
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *fakePageStore) Create(_ context.Context, page *data.Page) error {
	if _, ok := s.pages[page.URL]; ok {
		return fmt.Errorf("duplicate page url %q", page.URL)
	}
	s.nextID++
	page.ID = s.nextID
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	copied := *page
	s.pages[page.URL] = &copied
	return nil
}

func (s *fakePageStore) Update(_ context.Context, page *data.Page) error {
	for url, p := range s.pages {
		if p.ID == page.ID {
			delete(s.pages, url)
			copied := *page
			s.pages[page.URL] = &copied
			return nil
		}
	}
	return fmt.Errorf("no page with id %d", page.ID)
}

func (s *fakePageStore) BulkDeleteByType(_ context.Context, pageType string) (int64, error) {
	var count int64
	for url, p := range s.pages {
		if p.Type == pageType {
			delete(s.pages, url)
			count++
		}
	}
	return count, nil
}

func (s *fakePageStore) DeleteAll(context.Context) error {
	s.pages = map[string]*data.Page{}
	return nil
}

// fakeMenuStore holds pre-provisioned menus.
type fakeMenuStore struct {
	menus map[string]*data.Menu
}

var _ MenuStore = (*fakeMenuStore)(nil)

func (s *fakeMenuStore) FindByName(_ context.Context, name string) (*data.Menu, error) {
	return s.menus[name], nil
}

// fakeItemStore is an in-memory MenuItemStore.
type fakeItemStore struct {
	items  []*data.MenuItem
	nextID int64
}

var _ MenuItemStore = (*fakeItemStore)(nil)

func (s *fakeItemStore) FindOrCreate(_ context.Context, menuID int64, parentID *int64, title string) (*data.MenuItem, bool, error) {
	for _, item := range s.items {
		if item.MenuID == menuID && item.Title == title && sameParent(item.ParentID, parentID) {
			copied := *item
			return &copied, false, nil
		}
	}
	s.nextID++
	item := &data.MenuItem{ID: s.nextID, MenuID: menuID, ParentID: parentID, Title: title, Visible: true}
	s.items = append(s.items, item)
	copied := *item
	return &copied, true, nil
}

func (s *fakeItemStore) Save(_ context.Context, item *data.MenuItem) error {
	for i, existing := range s.items {
		if existing.ID == item.ID {
			copied := *item
			s.items[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("no menu item with id %d", item.ID)
}

func (s *fakeItemStore) DeleteByMenu(_ context.Context, menuID int64) error {
	var kept []*data.MenuItem
	for _, item := range s.items {
		if item.MenuID != menuID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func (s *fakeItemStore) DeleteAll(context.Context) error {
	s.items = nil
	return nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// fakeRunner passes the fake stores through without a real transaction.
type fakeRunner struct {
	stores Stores
}

var _ TxRunner = (*fakeRunner)(nil)

func (r *fakeRunner) InTx(_ context.Context, fn func(Stores) error) error {
	return fn(r.stores)
}

// fakeDownloader serves as both AssetFetcher and StreamFetcher.
type fakeDownloader struct {
	calls   []string
	outcome assets.Outcome
}

var _ AssetFetcher = (*fakeDownloader)(nil)
var _ StreamFetcher = (*fakeDownloader)(nil)

func (f *fakeDownloader) Fetch(_ context.Context, absURL, dir string, _ assets.Cache) assets.Result {
	return f.resolve(absURL, dir)
}

func (f *fakeDownloader) FetchStream(_ context.Context, absURL, dir string, _ assets.Cache) assets.Result {
	return f.resolve(absURL, dir)
}

func (f *fakeDownloader) resolve(absURL, dir string) assets.Result {
	f.calls = append(f.calls, absURL)
	if f.outcome == assets.OutcomeFailed || f.outcome == assets.OutcomeSkippedHTML {
		return assets.Result{PublicPath: absURL, Outcome: f.outcome}
	}
	u, _ := url.Parse(absURL)
	return assets.Result{
		PublicPath: "/storage/" + dir + "/" + path.Base(u.Path),
		Outcome:    f.outcome,
	}
}
