// internal/web/email_api.go
//
// JSON API for email operations: retry, stats, and the provider webhook.
//
// Context
// -------
// Three endpoints, all JSON:
//
//   GET  /api/email/retry    – summarize failed sends (admin key)
//   POST /api/email/retry    – run one bounded retry batch (admin key)
//   GET  /api/email/stats    – delivery statistics for a period
//   POST /api/email/webhook  – inbound provider delivery events
//
// The retry endpoints require `Authorization: Bearer <admin key>` and
// answer 401 otherwise.  The webhook answers 400 on a malformed payload
// and 200 with an explicit outcome for everything it chooses to ignore.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/email"
)

// writeJSON serializes v with the right header.  Encode failures at this
// point can only be logged.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("json encode failed", "err", err)
	}
}

type apiError struct {
	Error string `json:"error"`
}

// requireAdmin guards operator endpoints with the configured bearer key.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := h.cfg.Email.AdminKey
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if key == "" || !ok ||
			subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			writeJSON(w, http.StatusUnauthorized, apiError{"unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryFilter parses the shared query parameters of both retry endpoints.
// Zero values fall back to configured policy inside the service.
func retryFilter(r *http.Request) email.RetryFilter {
	q := r.URL.Query()
	return email.RetryFilter{
		Template:   q.Get("template"),
		HoursBack:  atoiDefault(q.Get("hoursBack"), 0),
		MaxRetries: atoiDefault(q.Get("maxRetries"), 0),
		Limit:      atoiDefault(q.Get("limit"), 0),
	}
}

// RetrySummary answers GET /api/email/retry.
func (h *Handler) RetrySummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.email.RetrySummary(r.Context(), retryFilter(r))
	if err != nil {
		zap.S().Errorw("retry summary failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{"query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"eligible":        sum.Eligible,
		"exhausted":       sum.Exhausted,
		"eligible_count":  len(sum.Eligible),
		"exhausted_count": len(sum.Exhausted),
	})
}

// RetryBatch answers POST /api/email/retry.
func (h *Handler) RetryBatch(w http.ResponseWriter, r *http.Request) {
	res, err := h.email.RetryBatch(r.Context(), retryFilter(r))
	if err != nil {
		zap.S().Errorw("retry batch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{"query failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statsRange resolves the requested window: an explicit from/to pair wins,
// otherwise a named period (24h, 7d, 30d, 90d) anchored at now.
func statsRange(r *http.Request, now time.Time) (time.Time, time.Time) {
	q := r.URL.Query()

	if fromRaw, toRaw := q.Get("from"), q.Get("to"); fromRaw != "" && toRaw != "" {
		from, err1 := time.Parse(time.RFC3339, fromRaw)
		to, err2 := time.Parse(time.RFC3339, toRaw)
		if err1 == nil && err2 == nil && from.Before(to) {
			return from, to
		}
	}

	var span time.Duration
	switch q.Get("period") {
	case "24h":
		span = 24 * time.Hour
	case "30d":
		span = 30 * 24 * time.Hour
	case "90d":
		span = 90 * 24 * time.Hour
	default: // "7d" and everything unrecognized
		span = 7 * 24 * time.Hour
	}
	return now.Add(-span), now
}

// EmailStats answers GET /api/email/stats.
func (h *Handler) EmailStats(w http.ResponseWriter, r *http.Request) {
	from, to := statsRange(r, time.Now().UTC())
	st := h.email.StatsFor(r.Context(), from, to)

	byTemplate := make(map[string]any, len(st.ByTemplate))
	for name, c := range st.ByTemplate {
		byTemplate[name] = statsBucket(c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":        st.From.Format(time.RFC3339),
		"to":          st.To.Format(time.RFC3339),
		"overall":     statsBucket(st.Overall),
		"by_template": byTemplate,
		"recent":      st.Recent,
	})
}

// statsBucket decorates raw counts with the derived rates.
func statsBucket(c email.StatusCounts) map[string]any {
	return map[string]any{
		"counts":        c,
		"total":         c.Total(),
		"success_rate":  roundRate(c.SuccessRate()),
		"delivery_rate": roundRate(c.DeliveryRate()),
	}
}

func roundRate(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Webhook answers POST /api/email/webhook.  GET gets chi's 405 because
// only POST is routed.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var ev email.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{"malformed payload: " + err.Error()})
		return
	}
	if err := ev.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{"invalid payload: " + err.Error()})
		return
	}

	outcome, err := h.email.HandleWebhook(r.Context(), ev)
	if err != nil {
		zap.S().Errorw("webhook handling failed", "type", ev.Type, "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{"processing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}
