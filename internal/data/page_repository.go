package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const pageColumns = `id, parent_id, title, short_title, meta_description, meta_keywords,
	published_at, content, status, type, url, template, images, documents, created_at, updated_at`

// SQLPageRepository is a concrete implementation of the page store using sqlx.
type SQLPageRepository struct {
	q Querier
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(q Querier) *SQLPageRepository {
	return &SQLPageRepository{q: q}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SQLPageRepository) WithTx(tx *sqlx.Tx) *SQLPageRepository {
	return &SQLPageRepository{q: tx}
}

// FindByURL retrieves a page by its normalized URL. Not found is not an error.
func (r *SQLPageRepository) FindByURL(ctx context.Context, url string) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages WHERE url = ?`
	if err := sqlx.GetContext(ctx, r.q, &page, r.q.Rebind(query), url); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page by url: %w", err)
	}
	return &page, nil
}

// FindByID retrieves a page by its ID. Not found is not an error.
func (r *SQLPageRepository) FindByID(ctx context.Context, id int64) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`
	if err := sqlx.GetContext(ctx, r.q, &page, r.q.Rebind(query), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page by id: %w", err)
	}
	return &page, nil
}

// FindByIDs retrieves pages matching the given IDs, in ID order.
func (r *SQLPageRepository) FindByIDs(ctx context.Context, ids []int64) ([]*Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+pageColumns+` FROM pages WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build id query: %w", err)
	}
	var pages []*Page
	if err := sqlx.SelectContext(ctx, r.q, &pages, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get pages by ids: %w", err)
	}
	return pages, nil
}

// FindAll retrieves every page, oldest first.
func (r *SQLPageRepository) FindAll(ctx context.Context) ([]*Page, error) {
	var pages []*Page
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.q, &pages, query); err != nil {
		return nil, fmt.Errorf("failed to get all pages: %w", err)
	}
	return pages, nil
}

// Create inserts a new page and fills in its generated ID.
func (r *SQLPageRepository) Create(ctx context.Context, page *Page) error {
	now := time.Now()
	page.CreatedAt = now
	page.UpdatedAt = now
	query := `INSERT INTO pages (parent_id, title, short_title, meta_description, meta_keywords,
		published_at, content, status, type, url, template, images, documents, created_at, updated_at)
		VALUES (:parent_id, :title, :short_title, :meta_description, :meta_keywords,
		:published_at, :content, :status, :type, :url, :template, :images, :documents, :created_at, :updated_at)`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, page)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get created page id: %w", err)
	}
	page.ID = id
	return nil
}

// Update persists all mutable fields of an existing page.
func (r *SQLPageRepository) Update(ctx context.Context, page *Page) error {
	page.UpdatedAt = time.Now()
	query := `UPDATE pages SET parent_id = :parent_id, title = :title, short_title = :short_title,
		meta_description = :meta_description, meta_keywords = :meta_keywords,
		published_at = :published_at, content = :content, status = :status, type = :type,
		url = :url, template = :template, images = :images, documents = :documents,
		updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, page)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no page found to update with id %d", page.ID)
	}
	return nil
}

// BulkDeleteByType removes every page of the given type and returns the count.
func (r *SQLPageRepository) BulkDeleteByType(ctx context.Context, pageType string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM pages WHERE type = ?`), pageType)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pages by type: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

// DeleteAll removes every page. Used only by the destructive reset.
func (r *SQLPageRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("failed to delete all pages: %w", err)
	}
	return nil
}
