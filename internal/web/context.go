// internal/web/context.go
//
// Per-request page context and the handler aggregate.
//
// Context
// -------
// Handler carries every injected collaborator the HTTP surface needs; one
// value is built in main and shared by all requests.  Page holds what a
// single render needs: the head builder, the enriched request snapshot,
// form plumbing (CSRF token, render timestamp), and the page's own data.
package web

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/config"
	"github.com/AveryQuinnMedia/avery-site/internal/content"
	"github.com/AveryQuinnMedia/avery-site/internal/email"
	"github.com/AveryQuinnMedia/avery-site/internal/form"
	"github.com/AveryQuinnMedia/avery-site/internal/head"
	"github.com/AveryQuinnMedia/avery-site/internal/leads"
	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
	"github.com/AveryQuinnMedia/avery-site/internal/view"
)

// Handler owns the HTTP surface: pages, form posts, and the JSON API.
type Handler struct {
	cfg     *config.Config
	view    *view.Engine
	content *content.Repository
	leads   *leads.Service
	email   *email.Service
	forms   *form.Registry
}

func NewHandler(cfg *config.Config, v *view.Engine, c *content.Repository,
	l *leads.Service, e *email.Service, f *form.Registry) *Handler {
	return &Handler{cfg: cfg, view: v, content: c, leads: l, email: e, forms: f}
}

// Page is the data root every page template receives.
type Page struct {
	Head *head.Builder
	Site config.Site
	Info *requestinfo.RequestInfo

	// Form plumbing, embedded as hidden inputs.
	CSRFToken string
	RenderTS  string

	// Outcome of a just-processed POST, when any.
	Submitted  bool
	FormErrors []form.FieldError

	Data map[string]any
}

// newPage builds the render context with head defaults and fresh form
// plumbing.  Title falls back to the configured site title.
func (h *Handler) newPage(r *http.Request, title, desc string) *Page {
	hb := head.New()
	if title == "" {
		title = h.cfg.Site.Title
	} else {
		title = title + " · " + h.cfg.Site.Title
	}
	hb.SetTitle(title)
	if desc == "" {
		desc = h.cfg.Site.Description
	}
	hb.SetDescription(desc)
	hb.Canonical(h.cfg.Site.BaseURL + r.URL.Path)
	hb.OpenGraph("og:title", title)

	tok, err := form.NewToken()
	if err != nil {
		zap.S().Errorw("csrf token mint failed", "err", err)
	}

	return &Page{
		Head:      hb,
		Site:      h.cfg.Site,
		Info:      requestinfo.FromContext(r.Context()),
		CSRFToken: tok,
		RenderTS:  strconv.FormatInt(time.Now().UnixMicro(), 10),
		Submitted: r.URL.Query().Get("submitted") == "1",
		Data:      map[string]any{},
	}
}

// render executes a page template, degrading to a plain 500 when the
// template itself fails.
func (h *Handler) render(w http.ResponseWriter, name string, p *Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.Render(w, "pages/"+name, p); err != nil {
		zap.S().Errorw("page render failed", "page", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
