// internal/content/repository.go
//
// Query layer for the blog / resources hub.
//
// Context
// -------
// Pages call these methods directly; every method translates UI filter
// parameters into one or two backend queries and reshapes rows into view
// models.  The failure policy is deliberate: a marketing page must render
// even when the backend hiccups, so query errors are logged through Zap and
// swallowed; callers receive an empty result, never an error value.
//
// Workflow
// --------
//  1. Build a WHERE clause: the published predicate is always applied,
//     category filters use any-of (OR) semantics over the label array, and
//     search is a case-insensitive LIKE across the text columns.
//  2. Run COUNT(*) with the same WHERE, then fetch one page with
//     LIMIT/OFFSET `(page-1)*limit`.
//  3. Posts are annotated with view counts from one batched GROUP BY query
//     over the page of ids (the per-post count query the old site ran was
//     an N+1; here it is a single round trip).
//
// Notes
// -----
//   - The dual publication check lives in `publishedPred`; see model.go.
//   - Counter increments are atomic at the storage layer (`SET n = n + 1`).
package content

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

const postCols = "id, title, slug, excerpt, body, status, is_published, featured, categories, published_at, created_at"

const resourceCols = "id, title, slug, description, category, type, file_url, download_count, is_active, created_at"

// Repository is the content query layer.  Construct with New and inject
// wherever pages need content; there is no package-level singleton.
type Repository struct {
	db *sqlx.DB
}

// New returns a Repository bound to db.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

//
// ── Posts ───────────────────────────────────────────────────────────────
//

// ListPosts returns one page of published posts matching params, plus the
// total match count and page count.  Errors degrade to an empty result.
func (r *Repository) ListPosts(ctx context.Context, p ListParams) ListResult {
	page, limit := normalizePaging(p.Page, p.Limit)

	where, args := postFilter(p)

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM posts WHERE "+where, args...); err != nil {
		zap.S().Warnw("post count query failed", "err", err)
		return ListResult{Posts: []Post{}}
	}

	q := "SELECT " + postCols + " FROM posts WHERE " + where +
		" ORDER BY published_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, q, args...); err != nil {
		zap.S().Warnw("post list query failed", "err", err)
		return ListResult{Posts: []Post{}}
	}

	r.attachViewCounts(ctx, posts)

	return ListResult{
		Posts:      posts,
		TotalCount: total,
		TotalPages: totalPages(total, limit),
	}
}

// GetPostBySlug fetches one published post, annotated with its view count.
// Missing rows and query errors both come back as nil.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) *Post {
	const q = "SELECT " + postCols + " FROM posts WHERE slug = ? AND " +
		publishedPred + " LIMIT 1"

	var post Post
	if err := r.db.GetContext(ctx, &post, q, slug); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.S().Warnw("post lookup failed", "slug", slug, "err", err)
		}
		return nil
	}

	pair := []Post{post}
	r.attachViewCounts(ctx, pair)
	return &pair[0]
}

// RelatedPosts returns up to n other published posts sharing at least one
// of the given category labels.  No relevance ranking beyond backend order.
func (r *Repository) RelatedPosts(ctx context.Context, postID uint64, labels []string, n int) []Post {
	if len(labels) == 0 || n < 1 {
		return []Post{}
	}

	ors := make([]string, len(labels))
	args := make([]any, 0, len(labels)+2)
	args = append(args, postID)
	for i, l := range labels {
		ors[i] = "JSON_CONTAINS(categories, JSON_QUOTE(?))"
		args = append(args, l)
	}
	args = append(args, n)

	q := "SELECT " + postCols + " FROM posts WHERE " + publishedPred +
		" AND id != ? AND (" + strings.Join(ors, " OR ") + ") LIMIT ?"

	posts := []Post{}
	if err := r.db.SelectContext(ctx, &posts, q, args...); err != nil {
		zap.S().Warnw("related posts query failed", "post", postID, "err", err)
		return []Post{}
	}
	return posts
}

// RecordView appends one view-log row for a post.  Best effort: failures
// are logged and ignored so the detail page always renders.
func (r *Repository) RecordView(ctx context.Context, postID uint64, info *requestinfo.RequestInfo) {
	const q = `INSERT INTO post_views (post_id, ip, user_agent, referrer, viewed_at)
	           VALUES (?, ?, ?, ?, NOW())`

	var ip, ua, ref string
	if info != nil {
		if info.Geo.IP != nil {
			ip = info.Geo.IP.String()
		}
		ua = info.UA.Raw
		ref = info.Referrer
	}
	if _, err := r.db.ExecContext(ctx, q, postID, ip, ua, ref); err != nil {
		zap.S().Warnw("view log insert failed", "post", postID, "err", err)
	}
}

// attachViewCounts fills Post.ViewCount for a page of posts with a single
// GROUP BY query.  On failure the counts stay zero.
func (r *Repository) attachViewCounts(ctx context.Context, posts []Post) {
	if len(posts) == 0 {
		return
	}

	ids := make([]uint64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	q, args, err := sqlx.In(
		"SELECT post_id, COUNT(*) AS views FROM post_views WHERE post_id IN (?) GROUP BY post_id", ids)
	if err != nil {
		zap.S().Warnw("view count query build failed", "err", err)
		return
	}

	rows := []struct {
		PostID uint64 `db:"post_id"`
		Views  int    `db:"views"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		zap.S().Warnw("view count query failed", "err", err)
		return
	}

	byID := make(map[uint64]int, len(rows))
	for _, row := range rows {
		byID[row.PostID] = row.Views
	}
	for i := range posts {
		posts[i].ViewCount = byID[posts[i].ID]
	}
}

// postFilter builds the WHERE clause and args shared by the count and page
// queries.
func postFilter(p ListParams) (string, []any) {
	where := []string{publishedPred}
	args := []any{}

	if p.FeaturedOnly {
		where = append(where, "featured = TRUE")
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		where = append(where,
			"(LOWER(title) LIKE ? OR LOWER(body) LIKE ? OR LOWER(excerpt) LIKE ?)")
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat, pat)
	}
	if len(p.Categories) > 0 {
		ors := make([]string, len(p.Categories))
		for i, label := range p.Categories {
			ors[i] = "JSON_CONTAINS(categories, JSON_QUOTE(?))"
			args = append(args, label)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	return strings.Join(where, " AND "), args
}

//
// ── Resources ───────────────────────────────────────────────────────────
//

// ListResources mirrors ListPosts for the resources table: single category
// label, optional type tag, search over title + description.
func (r *Repository) ListResources(ctx context.Context, p ResourceParams) ResourceResult {
	page, limit := normalizePaging(p.Page, p.Limit)

	where := []string{"is_active = TRUE"}
	args := []any{}

	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, p.Type)
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat)
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM resources WHERE "+clause, args...); err != nil {
		zap.S().Warnw("resource count query failed", "err", err)
		return ResourceResult{Resources: []Resource{}}
	}

	q := "SELECT " + resourceCols + " FROM resources WHERE " + clause +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	res := []Resource{}
	if err := r.db.SelectContext(ctx, &res, q, args...); err != nil {
		zap.S().Warnw("resource list query failed", "err", err)
		return ResourceResult{Resources: []Resource{}}
	}

	return ResourceResult{
		Resources:  res,
		TotalCount: total,
		TotalPages: totalPages(total, limit),
	}
}

// GetResourceBySlug fetches one active resource, or nil.
func (r *Repository) GetResourceBySlug(ctx context.Context, slug string) *Resource {
	const q = "SELECT " + resourceCols +
		" FROM resources WHERE slug = ? AND is_active = TRUE LIMIT 1"

	var res Resource
	if err := r.db.GetContext(ctx, &res, q, slug); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.S().Warnw("resource lookup failed", "slug", slug, "err", err)
		}
		return nil
	}
	return &res
}

// IncrementDownload bumps a resource's download counter atomically at the
// storage layer, so concurrent downloads cannot lose updates.
func (r *Repository) IncrementDownload(ctx context.Context, resourceID uint64) error {
	const q = "UPDATE resources SET download_count = download_count + 1 WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, resourceID)
	return err
}
