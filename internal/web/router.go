// internal/web/router.go
//
// Route table and middleware chain.
//
// Context
// -------
// The chain is ordered: HTTPS redirect (when forced) runs before anything
// else, security headers apply to every response, and request-info
// enrichment runs last so handlers and leads always find the snapshot.
// /metrics and /healthz sit outside the marketing routes but inside the
// header middleware.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AveryQuinnMedia/avery-site/internal/middleware"
	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

// Router assembles the full HTTP surface.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	if h.cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	// Pages.
	r.Get("/", h.Home)
	r.Get("/blog", h.BlogIndex)
	r.Get("/blog/{slug}", h.BlogPost)
	r.Get("/resources", h.Resources)
	r.Get("/speaking", h.Speaking)
	r.Get("/consulting", h.Consulting)
	r.Get("/waitlist", h.Waitlist)
	r.Get("/contact", h.Contact)

	// Lead form posts.
	r.Post("/contact", h.SubmitContact)
	r.Post("/speaking", h.SubmitSpeaking)
	r.Post("/consulting", h.SubmitConsulting)
	r.Post("/newsletter", h.SubmitNewsletter)
	r.Post("/waitlist", h.SubmitWaitlist)
	r.Post("/resources/{slug}/download", h.SubmitDownload)

	// Email operations API.
	r.Route("/api/email", func(api chi.Router) {
		api.With(h.requireAdmin).Get("/retry", h.RetrySummary)
		api.With(h.requireAdmin).Post("/retry", h.RetryBatch)
		api.Get("/stats", h.EmailStats)
		api.Post("/webhook", h.Webhook)
	})

	// Operational endpoints.
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.NotFound(h.NotFound)
	return r
}
