// Package cache provides a SQLite-backed store for fetched legacy page
// bodies, so repeated import runs against the same site do not re-download
// unchanged HTML. Binary assets are never cached here; their cross-run
// dedup happens at the blob-storage level.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"go-site-importer/internal/config"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Cache provides a SQLite-based caching mechanism keyed by absolute URL.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
}

// New creates a new Cache instance. It opens the SQLite database at the
// configured file path and ensures the cache table is created.
func New(cfg config.CacheConfig) (*Cache, error) {
	db, err := sqlx.Connect("sqlite", cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite cache: %w", err)
	}

	// For a cache, WAL mode is generally better for concurrency.
	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode on sqlite cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fetched_pages (
		url TEXT PRIMARY KEY,
		body BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_fetched_pages_expires_at ON fetched_pages (expires_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Get retrieves a cached page body. It returns nil if the URL is not cached
// or the entry is expired.
func (c *Cache) Get(url string) ([]byte, error) {
	var item struct {
		Body      []byte `db:"body"`
		ExpiresAt int64  `db:"expires_at"`
	}
	query := `SELECT body, expires_at FROM fetched_pages WHERE url = ?`
	err := c.db.Get(&item, query, url)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found is not an error for a cache miss.
		}
		return nil, fmt.Errorf("failed to get page from cache: %w", err)
	}

	if time.Now().Unix() > item.ExpiresAt {
		// Entry has expired, delete it from the cache (best effort)
		_ = c.Delete(url)
		return nil, nil // Treat as a cache miss
	}

	return item.Body, nil
}

// Set stores a page body with the configured TTL.
func (c *Cache) Set(url string, body []byte) error {
	expiresAt := time.Now().Add(c.ttl).Unix()
	query := `INSERT OR REPLACE INTO fetched_pages (url, body, expires_at) VALUES (?, ?, ?)`
	if _, err := c.db.Exec(query, url, body, expiresAt); err != nil {
		return fmt.Errorf("failed to set page in cache: %w", err)
	}
	return nil
}

// Delete removes a cached page.
func (c *Cache) Delete(url string) error {
	query := `DELETE FROM fetched_pages WHERE url = ?`
	if _, err := c.db.Exec(query, url); err != nil {
		return fmt.Errorf("failed to delete page from cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
