// internal/content/model.go
//
// Row and view-model types for the blog / resources hub.
//
// Context
// -------
// Posts and resources are authored in the hosted backend and are read-only
// from this application's perspective; the only writes this layer performs
// are view-log appends and the download-counter increment.
//
// Two publication flags survive from a schema migration: the old enum-ish
// `status` column and the newer `is_published` boolean.  Which one is
// authoritative was never documented, so the published predicate checks
// both: a row is visible when EITHER says so.  Do not collapse them.
package content

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// publishedPred is the SQL fragment every content query applies.  Both
// legacy publication fields are honoured; see the package comment.
const publishedPred = "(status = 'published' OR is_published = TRUE)"

//
// Post
//

// Post mirrors one row of the `posts` table.  ViewCount is derived; it is
// filled from a batched count over `post_views`, never stored on the row.
type Post struct {
	ID          uint64     `db:"id"`
	Title       string     `db:"title"`
	Slug        string     `db:"slug"`
	Excerpt     string     `db:"excerpt"`
	Body        string     `db:"body"`
	Status      string     `db:"status"`
	IsPublished bool       `db:"is_published"`
	Featured    bool       `db:"featured"`
	Categories  LabelList  `db:"categories"`
	PublishedAt *time.Time `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`

	ViewCount int `db:"-"`
}

// LabelList is a JSON-encoded array of free-text category labels, stored in
// a single column.  It implements sql.Scanner / driver.Valuer so sqlx can
// round-trip it transparently.
type LabelList []string

func (l *LabelList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*l = nil
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			*l = nil
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("content: cannot scan %T into LabelList", src)
	}
}

func (l LabelList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

//
// Resource
//

// Resource mirrors one row of the `resources` table.  Unlike posts a
// resource carries a single category label and a type tag (whitepaper,
// ebook, template, …).
type Resource struct {
	ID            uint64    `db:"id"`
	Title         string    `db:"title"`
	Slug          string    `db:"slug"`
	Description   string    `db:"description"`
	Category      string    `db:"category"`
	Type          string    `db:"type"`
	FileURL       string    `db:"file_url"`
	DownloadCount int       `db:"download_count"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
}

//
// Category (derived value type)
//

// Category is NOT a stored entity.  It is synthesized at request time from
// the distinct labels present across published posts and active resources.
// Identity equals the derived slug, so differently-cased labels collide by
// design.
type Category struct {
	Name  string
	Slug  string
	Color string
}

// defaultCategoryColor is the fixed display color assigned to every derived
// category.
const defaultCategoryColor = "#6366f1"

//
// Paging
//

// ListParams carries the UI filter parameters for post listings.
type ListParams struct {
	Page         int
	Limit        int
	Categories   []string // any-of (OR) match against the post's label array
	Search       string   // case-insensitive, title OR body OR excerpt
	FeaturedOnly bool
}

// ResourceParams carries the UI filter parameters for resource listings.
type ResourceParams struct {
	Page     int
	Limit    int
	Category string // single-label equality
	Type     string // type tag equality
	Search   string // case-insensitive, title OR description
}

// ListResult is one page of posts plus the full match counts.
type ListResult struct {
	Posts      []Post
	TotalCount int
	TotalPages int
}

// ResourceResult is one page of resources plus the full match counts.
type ResourceResult struct {
	Resources  []Resource
	TotalCount int
	TotalPages int
}

// normalizePaging clamps paging input the way every listing expects:
// page ≥ 1, 1 ≤ limit ≤ 100 with a default of 10.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// totalPages is ceil(total/limit).  Zero matches means zero pages; a page
// request beyond the end is served as an empty slice, never an error.
func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
