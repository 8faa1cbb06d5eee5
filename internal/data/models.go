package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Page statuses.
const (
	StatusDraft      = "draft"
	StatusModeration = "moderation"
	StatusPublished  = "published"
)

// Page types produced by the import pipeline.
const (
	TypePage     = "page"
	TypeNews     = "news"
	TypeDocument = "document"
	TypeSitemap  = "sitemap"
)

// DefaultTemplate is assigned to imported pages.
const DefaultTemplate = "default"

// StringList stores an ordered list of storage paths as a JSON column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported string list source type %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	if err := json.Unmarshal(raw, l); err != nil {
		return fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return nil
}

// Page represents one imported content page. Pages form a tree through
// ParentID; parents are always created before their children, so the
// structure cannot contain cycles.
type Page struct {
	ID              int64      `db:"id"`
	ParentID        *int64     `db:"parent_id"`
	Title           string     `db:"title"`
	ShortTitle      string     `db:"short_title"`
	MetaDescription string     `db:"meta_description"`
	MetaKeywords    string     `db:"meta_keywords"`
	PublishedAt     *time.Time `db:"published_at"`
	Content         string     `db:"content"`
	Status          string     `db:"status"`
	Type            string     `db:"type"`
	URL             string     `db:"url"`
	Template        string     `db:"template"`
	Images          StringList `db:"images"`
	Documents       StringList `db:"documents"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Menu is a named navigational menu. Menus are pre-provisioned; the import
// pipeline only looks them up.
type Menu struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// MenuItem is one entry of a menu. An item links either to an internal Page
// (PageID set, URL empty) or to a raw external/file URL (PageID nil).
// The upsert key is (menu, parent, title).
type MenuItem struct {
	ID        int64     `db:"id"`
	MenuID    int64     `db:"menu_id"`
	ParentID  *int64    `db:"parent_id"`
	PageID    *int64    `db:"page_id"`
	Title     string    `db:"title"`
	URL       string    `db:"url"`
	SortOrder int       `db:"sort_order"`
	Visible   bool      `db:"visible"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// StoredFile is the metadata record of one downloaded binary asset. Path is
// the storage-relative target path and the upsert key.
type StoredFile struct {
	ID          int64     `db:"id"`
	Path        string    `db:"path"`
	Name        string    `db:"name"`
	MIME        string    `db:"mime"`
	Ext         string    `db:"ext"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
