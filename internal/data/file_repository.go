package data

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// mimeMaxLen is the length MIME types are truncated to before storage.
const mimeMaxLen = 100

// SQLStoredFileRepository is the sqlx implementation of the file store.
type SQLStoredFileRepository struct {
	q Querier
}

// NewSQLStoredFileRepository creates a new SQLStoredFileRepository.
func NewSQLStoredFileRepository(q Querier) *SQLStoredFileRepository {
	return &SQLStoredFileRepository{q: q}
}

// FindByPath retrieves a stored-file record by its storage path. Not found
// is not an error.
func (r *SQLStoredFileRepository) FindByPath(ctx context.Context, p string) (*StoredFile, error) {
	var file StoredFile
	query := `SELECT id, path, name, mime, ext, description, created_at, updated_at
		FROM stored_files WHERE path = ?`
	if err := sqlx.GetContext(ctx, r.q, &file, r.q.Rebind(query), p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stored file by path: %w", err)
	}
	return &file, nil
}

// Upsert creates or refreshes the metadata record keyed by storage path.
// MIME is truncated, the extension lowercased, and the name defaulted to
// the path's basename when blank.
func (r *SQLStoredFileRepository) Upsert(ctx context.Context, p, mime, ext, name string) (*StoredFile, error) {
	mime = strings.TrimSpace(mime)
	if len(mime) > mimeMaxLen {
		mime = mime[:mimeMaxLen]
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	name = strings.TrimSpace(name)
	if name == "" {
		name = path.Base(p)
	}

	existing, err := r.FindByPath(ctx, p)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing != nil {
		existing.Name = name
		existing.MIME = mime
		existing.Ext = ext
		existing.UpdatedAt = now
		query := `UPDATE stored_files SET name = :name, mime = :mime, ext = :ext, updated_at = :updated_at
			WHERE id = :id`
		if _, err := sqlx.NamedExecContext(ctx, r.q, query, existing); err != nil {
			return nil, fmt.Errorf("failed to update stored file: %w", err)
		}
		return existing, nil
	}

	file := &StoredFile{
		Path:      p,
		Name:      name,
		MIME:      mime,
		Ext:       ext,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query := `INSERT INTO stored_files (path, name, mime, ext, description, created_at, updated_at)
		VALUES (:path, :name, :mime, :ext, :description, :created_at, :updated_at)`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create stored file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get created stored file id: %w", err)
	}
	file.ID = id
	return file, nil
}
