// internal/content/repository_test.go
//
// Unit-tests for the content query layer using sqlmock.
//
// Context
// -------
// The behaviours pinned down here are the ones pages depend on:
//
//   • search filtering returns exactly the matching rows and counts
//   • a page past the end yields an empty slice with counts intact
//   • category filtering is any-of (OR) over the label array
//   • backend failures degrade to an empty result, never an error
//   • the download counter increments atomically in SQL
//
// Run: go test ./internal/content -v

package content

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const listCols = "id, title, slug, excerpt, body, status, is_published, featured, categories, published_at, created_at"

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "slug", "excerpt", "body", "status", "is_published",
		"featured", "categories", "published_at", "created_at",
	})
}

func TestListPostsSearch(t *testing.T) {
	repo, mock := newMockRepo(t)

	clause := `(status = 'published' OR is_published = TRUE) AND ` +
		`(LOWER(title) LIKE ? OR LOWER(body) LIKE ? OR LOWER(excerpt) LIKE ?)`

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE "+clause)).
		WithArgs("%marketing%", "%marketing%", "%marketing%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+listCols+" FROM posts WHERE "+clause+
			" ORDER BY published_at DESC LIMIT ? OFFSET ?")).
		WithArgs("%marketing%", "%marketing%", "%marketing%", 10, 0).
		WillReturnRows(postRows().AddRow(
			1, "Marketing in the AI era", "marketing-in-the-ai-era", "", "body",
			"published", false, false, []byte(`["ai-marketing"]`), nil, sampleTime))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT post_id, COUNT(*) AS views FROM post_views WHERE post_id IN (?) GROUP BY post_id")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "views"}).AddRow(1, 12))

	got := repo.ListPosts(context.Background(), ListParams{Search: "Marketing"})

	if got.TotalCount != 1 || got.TotalPages != 1 {
		t.Fatalf("counts = (%d, %d), want (1, 1)", got.TotalCount, got.TotalPages)
	}
	if len(got.Posts) != 1 || got.Posts[0].Slug != "marketing-in-the-ai-era" {
		t.Fatalf("unexpected posts: %#v", got.Posts)
	}
	if got.Posts[0].ViewCount != 12 {
		t.Fatalf("view count = %d, want 12", got.Posts[0].ViewCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListPostsPageBeyondEnd(t *testing.T) {
	repo, mock := newMockRepo(t)

	clause := `(status = 'published' OR is_published = TRUE)`

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE " + clause)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	// Page 5 of 4 → empty slice, counts still reported; no clamping.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+listCols+" FROM posts WHERE "+clause+
			" ORDER BY published_at DESC LIMIT ? OFFSET ?")).
		WithArgs(2, 8).
		WillReturnRows(postRows())

	got := repo.ListPosts(context.Background(), ListParams{Page: 5, Limit: 2})

	if len(got.Posts) != 0 {
		t.Fatalf("expected empty page, got %d posts", len(got.Posts))
	}
	if got.TotalCount != 7 || got.TotalPages != 4 {
		t.Fatalf("counts = (%d, %d), want (7, 4)", got.TotalCount, got.TotalPages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListPostsCategoryAnyOf(t *testing.T) {
	repo, mock := newMockRepo(t)

	clause := `(status = 'published' OR is_published = TRUE) AND ` +
		`(JSON_CONTAINS(categories, JSON_QUOTE(?)) OR JSON_CONTAINS(categories, JSON_QUOTE(?)))`

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE "+clause)).
		WithArgs("leadership", "consulting").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	// A post tagged {ai-marketing, leadership} matches the filter {leadership,
	// consulting} because any-of semantics only needs one shared label.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+listCols+" FROM posts WHERE "+clause+
			" ORDER BY published_at DESC LIMIT ? OFFSET ?")).
		WithArgs("leadership", "consulting", 10, 0).
		WillReturnRows(postRows().AddRow(
			3, "Leading through change", "leading-through-change", "", "body",
			"draft", true, false, []byte(`["ai-marketing","leadership"]`), nil, sampleTime))

	mock.ExpectQuery("SELECT post_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "views"}))

	got := repo.ListPosts(context.Background(), ListParams{
		Categories: []string{"leadership", "consulting"},
	})

	if len(got.Posts) != 1 || got.Posts[0].ID != 3 {
		t.Fatalf("unexpected posts: %#v", got.Posts)
	}
	// Row above is visible via is_published alone; the legacy status field
	// says draft.  Either flag being truthy keeps the row in results.
	if got.Posts[0].Status != "draft" || !got.Posts[0].IsPublished {
		t.Fatalf("dual publication fields not carried through: %#v", got.Posts[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListPostsBackendFailureSwallowed(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errBoom)

	got := repo.ListPosts(context.Background(), ListParams{})

	if len(got.Posts) != 0 || got.TotalCount != 0 || got.TotalPages != 0 {
		t.Fatalf("backend failure must degrade to an empty result, got %#v", got)
	}
}

func TestRelatedPostsExcludesSelf(t *testing.T) {
	repo, mock := newMockRepo(t)

	q := `SELECT ` + listCols + ` FROM posts WHERE (status = 'published' OR is_published = TRUE)` +
		` AND id != ? AND (JSON_CONTAINS(categories, JSON_QUOTE(?))) LIMIT ?`

	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(9, "ai-marketing", 3).
		WillReturnRows(postRows().AddRow(
			4, "Prompting for marketers", "prompting-for-marketers", "", "body",
			"published", true, false, []byte(`["ai-marketing"]`), nil, sampleTime))

	got := repo.RelatedPosts(context.Background(), 9, []string{"ai-marketing"}, 3)

	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("unexpected related posts: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestIncrementDownloadIsAtomic(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE resources SET download_count = download_count + 1 WHERE id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.IncrementDownload(context.Background(), 5); err != nil {
		t.Fatalf("IncrementDownload: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{7, 2, 4},
	}
	for _, c := range cases {
		if got := totalPages(c.total, c.limit); got != c.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}
