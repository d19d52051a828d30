// internal/content/categories_test.go
//
// Unit-tests for derived category listing.
//
// Run: go test ./internal/content -v

package content

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// Shared fixtures for the package tests.
var (
	sampleTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	errBoom    = errors.New("backend unavailable")
)

// sqlmockRows builds a one-column result set.
func sqlmockRows(col string, vals ...driver.Value) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{col})
	for _, v := range vals {
		rows.AddRow(v)
	}
	return rows
}

func TestCategoriesUnionAndCollision(t *testing.T) {
	repo, mock := newMockRepo(t)

	// The two union queries run concurrently, so arrival order is not fixed.
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT categories FROM posts WHERE (status = 'published' OR is_published = TRUE)")).
		WillReturnRows(sqlmockRows("categories",
			[]byte(`["AI Marketing","Leadership"]`),
			[]byte(`["Leadership"]`)))

	// "ai marketing" and "AI Marketing" share a slug and must merge.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT category FROM resources WHERE is_active = TRUE AND category != ''")).
		WillReturnRows(sqlmockRows("category", "ai marketing", "Playbooks"))

	got := repo.Categories(context.Background())

	want := []struct{ name, slug string }{
		{"AI Marketing", "ai-marketing"},
		{"Leadership", "leadership"},
		{"Playbooks", "playbooks"},
	}
	if len(got) != len(want) {
		t.Fatalf("category count = %d, want %d: %#v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Slug != w.slug {
			t.Errorf("category[%d] = %q/%q, want %q/%q",
				i, got[i].Name, got[i].Slug, w.name, w.slug)
		}
		if got[i].Color == "" {
			t.Errorf("category[%d] missing display color", i)
		}
	}
}

func TestCategoriesBackendFailureDegrades(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT categories FROM posts").WillReturnError(errBoom)
	mock.ExpectQuery("SELECT DISTINCT category FROM resources").
		WillReturnRows(sqlmockRows("category", "Playbooks"))

	// One failed half must not panic or surface an error; worst case the
	// result is empty.
	got := repo.Categories(context.Background())
	for _, c := range got {
		if c.Slug == "" {
			t.Errorf("derived category missing slug: %#v", c)
		}
	}
}
