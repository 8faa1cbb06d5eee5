// Package importer contains the pipeline operations: the sitemap importer,
// the content crawlers, and the link relinkers. Each operation is strictly
// sequential and reports its outcomes through a Stats structure; per-item
// failures are counted, never propagated.
package importer

import (
	"context"
	"fmt"

	"go-site-importer/internal/data"

	"github.com/jmoiron/sqlx"
)

// PageStore is the page persistence surface the importers consume.
type PageStore interface {
	FindByURL(ctx context.Context, url string) (*data.Page, error)
	FindByID(ctx context.Context, id int64) (*data.Page, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*data.Page, error)
	FindAll(ctx context.Context) ([]*data.Page, error)
	Create(ctx context.Context, page *data.Page) error
	Update(ctx context.Context, page *data.Page) error
	BulkDeleteByType(ctx context.Context, pageType string) (int64, error)
	DeleteAll(ctx context.Context) error
}

// MenuStore looks up pre-provisioned menus.
type MenuStore interface {
	FindByName(ctx context.Context, name string) (*data.Menu, error)
}

// MenuItemStore is the menu-item persistence surface.
type MenuItemStore interface {
	FindOrCreate(ctx context.Context, menuID int64, parentID *int64, title string) (*data.MenuItem, bool, error)
	Save(ctx context.Context, item *data.MenuItem) error
	DeleteByMenu(ctx context.Context, menuID int64) error
	DeleteAll(ctx context.Context) error
}

// Stores bundles the persistence surfaces one operation works against.
type Stores struct {
	Pages PageStore
	Menus MenuStore
	Items MenuItemStore
}

// NewStores builds the sqlx-backed store bundle over a database or
// transaction handle.
func NewStores(q data.Querier) Stores {
	return Stores{
		Pages: data.NewSQLPageRepository(q),
		Menus: data.NewMenuRepository(q),
		Items: data.NewSQLMenuItemRepository(q),
	}
}

// TxRunner executes one unit of work against stores bound to a single
// transaction. The sitemap importer uses it so a failure partway through a
// tree walk never leaves a half-written menu.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

type sqlTxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates the database-backed TxRunner.
func NewTxRunner(db *sqlx.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) InTx(ctx context.Context, fn func(Stores) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(NewStores(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
