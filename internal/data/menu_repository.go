package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MenuRepository looks up pre-provisioned menus.
type MenuRepository struct {
	q Querier
}

// NewMenuRepository creates a new MenuRepository.
func NewMenuRepository(q Querier) *MenuRepository {
	return &MenuRepository{q: q}
}

// FindByName retrieves a menu by its name. Not found is not an error.
func (r *MenuRepository) FindByName(ctx context.Context, name string) (*Menu, error) {
	var menu Menu
	query := `SELECT id, name FROM menus WHERE name = ?`
	if err := sqlx.GetContext(ctx, r.q, &menu, r.q.Rebind(query), name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get menu by name: %w", err)
	}
	return &menu, nil
}

// SQLMenuItemRepository is the sqlx implementation of the menu-item store.
type SQLMenuItemRepository struct {
	q Querier
}

// NewSQLMenuItemRepository creates a new SQLMenuItemRepository.
func NewSQLMenuItemRepository(q Querier) *SQLMenuItemRepository {
	return &SQLMenuItemRepository{q: q}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SQLMenuItemRepository) WithTx(tx *sqlx.Tx) *SQLMenuItemRepository {
	return &SQLMenuItemRepository{q: tx}
}

// FindOrCreate looks up a menu item by its upsert key (menu, parent, title)
// and creates it when absent. The second return value reports whether the
// item was newly created.
func (r *SQLMenuItemRepository) FindOrCreate(ctx context.Context, menuID int64, parentID *int64, title string) (*MenuItem, bool, error) {
	var item MenuItem
	var err error
	if parentID == nil {
		query := r.q.Rebind(`SELECT id, menu_id, parent_id, page_id, title, url, sort_order, visible, created_at, updated_at
			FROM menu_items WHERE menu_id = ? AND parent_id IS NULL AND title = ?`)
		err = sqlx.GetContext(ctx, r.q, &item, query, menuID, title)
	} else {
		query := r.q.Rebind(`SELECT id, menu_id, parent_id, page_id, title, url, sort_order, visible, created_at, updated_at
			FROM menu_items WHERE menu_id = ? AND parent_id = ? AND title = ?`)
		err = sqlx.GetContext(ctx, r.q, &item, query, menuID, *parentID, title)
	}
	if err == nil {
		return &item, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to find menu item: %w", err)
	}

	now := time.Now()
	item = MenuItem{
		MenuID:    menuID,
		ParentID:  parentID,
		Title:     title,
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query := `INSERT INTO menu_items (menu_id, parent_id, page_id, title, url, sort_order, visible, created_at, updated_at)
		VALUES (:menu_id, :parent_id, :page_id, :title, :url, :sort_order, :visible, :created_at, :updated_at)`
	res, insertErr := sqlx.NamedExecContext(ctx, r.q, query, &item)
	if insertErr != nil {
		return nil, false, fmt.Errorf("failed to create menu item: %w", insertErr)
	}
	id, idErr := res.LastInsertId()
	if idErr != nil {
		return nil, false, fmt.Errorf("failed to get created menu item id: %w", idErr)
	}
	item.ID = id
	return &item, true, nil
}

// Save persists all mutable fields of a menu item.
func (r *SQLMenuItemRepository) Save(ctx context.Context, item *MenuItem) error {
	item.UpdatedAt = time.Now()
	query := `UPDATE menu_items SET parent_id = :parent_id, page_id = :page_id, title = :title,
		url = :url, sort_order = :sort_order, visible = :visible, updated_at = :updated_at
		WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, item); err != nil {
		return fmt.Errorf("failed to save menu item: %w", err)
	}
	return nil
}

// DeleteByMenu removes every item of the given menu.
func (r *SQLMenuItemRepository) DeleteByMenu(ctx context.Context, menuID int64) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM menu_items WHERE menu_id = ?`), menuID); err != nil {
		return fmt.Errorf("failed to delete menu items: %w", err)
	}
	return nil
}

// DeleteAll removes every menu item. Used only by the destructive reset.
func (r *SQLMenuItemRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("failed to delete all menu items: %w", err)
	}
	return nil
}
