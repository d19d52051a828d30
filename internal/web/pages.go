// internal/web/pages.go
//
// Server-rendered marketing pages.
//
// Context
// -------
// Every page reads through the content repository, which already swallows
// backend failures into empty results, so handlers never branch on query
// errors.  Listing pages parse their filter state straight from the query
// string; the blog detail page additionally records a view and pulls
// related posts by shared category label.
package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AveryQuinnMedia/avery-site/internal/content"
	"github.com/AveryQuinnMedia/avery-site/internal/metrics"
	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

const relatedPostCount = 3

// Home renders the landing page: featured posts plus the newest writing.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := h.newPage(r, "", "")

	featured := h.content.ListPosts(ctx, content.ListParams{Limit: 3, FeaturedOnly: true})
	recent := h.content.ListPosts(ctx, content.ListParams{Limit: 6})

	p.Data["Featured"] = featured.Posts
	p.Data["Recent"] = recent.Posts
	h.render(w, "home", p)
}

// BlogIndex renders the post listing with paging, any-of category filters,
// free-text search, and a featured-only toggle.
func (h *Handler) BlogIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := content.ListParams{
		Page:         atoiDefault(q.Get("page"), 1),
		Limit:        atoiDefault(q.Get("limit"), 10),
		Categories:   q["category"],
		Search:       q.Get("search"),
		FeaturedOnly: q.Get("featured") == "1" || q.Get("featured") == "true",
	}

	res := h.content.ListPosts(r.Context(), params)

	p := h.newPage(r, "Blog", "Writing on AI, marketing, and leadership from Avery Quinn.")
	p.Data["Posts"] = res.Posts
	p.Data["TotalCount"] = res.TotalCount
	p.Data["TotalPages"] = res.TotalPages
	p.Data["Page"] = params.Page
	p.Data["Search"] = params.Search
	p.Data["Categories"] = h.content.Categories(r.Context())
	p.Data["ActiveCategories"] = params.Categories
	h.render(w, "blog-index", p)
}

// BlogPost renders one post, records the view, and lists related posts
// sharing any category label.
func (h *Handler) BlogPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post := h.content.GetPostBySlug(ctx, chi.URLParam(r, "slug"))
	if post == nil {
		h.NotFound(w, r)
		return
	}

	h.content.RecordView(ctx, post.ID, requestinfo.FromContext(ctx))
	metrics.PostViewsTotal.Inc()

	p := h.newPage(r, post.Title, post.Excerpt)
	p.Head.OpenGraph("og:type", "article")
	p.Data["Post"] = post
	p.Data["Related"] = h.content.RelatedPosts(ctx, post.ID, post.Categories, relatedPostCount)
	h.render(w, "blog-post", p)
}

// Resources renders the downloadable-resource listing.
func (h *Handler) Resources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := content.ResourceParams{
		Page:     atoiDefault(q.Get("page"), 1),
		Limit:    atoiDefault(q.Get("limit"), 12),
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Search:   q.Get("search"),
	}

	res := h.content.ListResources(r.Context(), params)

	p := h.newPage(r, "Resources", "Playbooks, templates, and guides.")
	p.Data["Resources"] = res.Resources
	p.Data["TotalCount"] = res.TotalCount
	p.Data["TotalPages"] = res.TotalPages
	p.Data["Page"] = params.Page
	h.render(w, "resources", p)
}

// Speaking renders the speaking page with its inquiry form.
func (h *Handler) Speaking(w http.ResponseWriter, r *http.Request) {
	p := h.newPage(r, "Speaking", "Keynotes and workshops on AI-era marketing.")
	h.render(w, "speaking", p)
}

// Consulting renders the consulting page with its inquiry form.
func (h *Handler) Consulting(w http.ResponseWriter, r *http.Request) {
	p := h.newPage(r, "Consulting", "Advisory engagements for marketing leaders.")
	h.render(w, "consulting", p)
}

// Waitlist renders the Draft Engine waitlist page.
func (h *Handler) Waitlist(w http.ResponseWriter, r *http.Request) {
	p := h.newPage(r, "Draft Engine", "Join the waitlist for Draft Engine.")
	h.render(w, "waitlist", p)
}

// Contact renders the contact page.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	p := h.newPage(r, "Contact", "Get in touch with Avery Quinn.")
	h.render(w, "contact", p)
}

// NotFound renders the branded 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	p := h.newPage(r, "Not Found", "")
	h.render(w, "not-found", p)
}

// atoiDefault parses a positive integer, falling back on junk.  Range
// normalization happens in the content layer.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
