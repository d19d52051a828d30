// internal/content/categories.go
//
// Derived category listing.
//
// Context
// -------
// Categories have no table and no surrogate key.  The working set is the
// union of labels seen on published posts and active resources, synthesized
// into display objects (slug, fixed color) and sorted by name.  Nothing is
// persisted or cached; the set is recomputed on every call, which is cheap
// at this data volume.  The two union queries run concurrently.
package content

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AveryQuinnMedia/avery-site/internal/routing"
)

// Categories derives the current category set.  Query failures degrade to
// whichever half succeeded (or an empty slice), consistent with the content
// failure policy.
func (r *Repository) Categories(ctx context.Context) []Category {
	var (
		postLabels     []LabelList
		resourceLabels []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		const q = "SELECT categories FROM posts WHERE " + publishedPred
		return r.db.SelectContext(gctx, &postLabels, q)
	})
	g.Go(func() error {
		const q = "SELECT DISTINCT category FROM resources WHERE is_active = TRUE AND category != ''"
		return r.db.SelectContext(gctx, &resourceLabels, q)
	})

	if err := g.Wait(); err != nil {
		zap.S().Warnw("category union query failed", "err", err)
	}

	// Union by derived slug: the slug IS the category identity, so labels
	// that differ only in casing or punctuation collapse into one entry.
	bySlug := make(map[string]Category)
	add := func(label string) {
		if label == "" {
			return
		}
		slug := routing.MakeSlug(label)
		if _, ok := bySlug[slug]; ok {
			return
		}
		bySlug[slug] = Category{Name: label, Slug: slug, Color: defaultCategoryColor}
	}

	for _, list := range postLabels {
		for _, label := range list {
			add(label)
		}
	}
	for _, label := range resourceLabels {
		add(label)
	}

	out := make([]Category, 0, len(bySlug))
	for _, c := range bySlug {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
