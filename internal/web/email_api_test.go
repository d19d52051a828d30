// internal/web/email_api_test.go
//
// Endpoint tests for the email operations API using httptest against the
// assembled router.
//
// Context
// -------
// The behaviours pinned down here:
//
//   • retry endpoints reject a missing or wrong bearer key with 401
//   • the retry summary reports eligible and exhausted buckets as JSON
//   • a malformed webhook body answers 400, a GET answers 405
//   • stats resolves named periods and explicit from/to ranges
//
// Run: go test ./internal/web -v

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/AveryQuinnMedia/avery-site/internal/config"
	"github.com/AveryQuinnMedia/avery-site/internal/email"
)

const testAdminKey = "test-admin-key"

type noopProvider struct{}

func (noopProvider) Send(context.Context, email.Message) (string, error) { return "re_noop", nil }

// newAPIHandler wires a router whose email service talks to sqlmock.  The
// page handlers stay un-exercised, so view and content are left nil.
func newAPIHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := email.NewRepository(sqlx.NewDb(db, "sqlmock"))
	svc := email.NewService(repo, noopProvider{},
		func(string, map[string]any) (string, error) { return "", nil },
		email.Options{MaxRetries: 3, RetryWindowHours: 24, RetryBatchCap: 50})

	cfg := &config.Config{}
	cfg.Email.AdminKey = testAdminKey
	cfg.Site.Title = "Avery Quinn"
	cfg.Site.BaseURL = "https://averyquinn.com"

	return NewHandler(cfg, nil, nil, nil, svc, nil), mock
}

func doRequest(h *Handler, method, target, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestRetryRequiresAdminKey(t *testing.T) {
	h, _ := newAPIHandler(t)

	if rec := doRequest(h, http.MethodGet, "/api/email/retry", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", rec.Code)
	}
	if rec := doRequest(h, http.MethodPost, "/api/email/retry", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestRetrySummaryJSON(t *testing.T) {
	h, mock := newAPIHandler(t)
	mock.MatchExpectationsInOrder(false)

	logCols := []string{
		"id", "template", "recipient", "subject", "html", "status", "provider_message_id",
		"retry_count", "last_error", "delivered_at", "created_at", "updated_at",
	}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("retry_count < ?")).
		WithArgs(email.StatusFailed, 3, 24, 50).
		WillReturnRows(sqlmock.NewRows(logCols).AddRow(
			1, "newsletter-welcome", "a@example.com", "S", "<p>a</p>",
			"failed", "", 1, "timeout", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("retry_count >= ?")).
		WithArgs(email.StatusFailed, 3, 24).
		WillReturnRows(sqlmock.NewRows(logCols))

	rec := doRequest(h, http.MethodGet, "/api/email/retry", "", testAdminKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var got struct {
		EligibleCount  int `json:"eligible_count"`
		ExhaustedCount int `json:"exhausted_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if got.EligibleCount != 1 || got.ExhaustedCount != 0 {
		t.Fatalf("counts = %+v", got)
	}
}

func TestWebhookRejectsMalformed(t *testing.T) {
	h, _ := newAPIHandler(t)

	if rec := doRequest(h, http.MethodPost, "/api/email/webhook", "{not json", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", rec.Code)
	}

	// Structurally valid JSON missing required fields is still a 400.
	body := `{"type":"email.delivered","data":{}}`
	if rec := doRequest(h, http.MethodPost, "/api/email/webhook", body, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email_id: status = %d, want 400", rec.Code)
	}
}

func TestWebhookGetNotAllowed(t *testing.T) {
	h, _ := newAPIHandler(t)
	if rec := doRequest(h, http.MethodGet, "/api/email/webhook", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestWebhookAppliesDelivery(t *testing.T) {
	h, mock := newAPIHandler(t)

	logCols := []string{
		"id", "template", "recipient", "subject", "html", "status", "provider_message_id",
		"retry_count", "last_error", "delivered_at", "created_at", "updated_at",
	}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_message_id = ?")).
		WithArgs("re_1").
		WillReturnRows(sqlmock.NewRows(logCols).AddRow(
			5, "newsletter-welcome", "a@example.com", "S", "<p>a</p>",
			"sent", "re_1", 0, "", nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("COALESCE(delivered_at, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"type":"email.delivered","data":{"email_id":"re_1","to":["a@example.com"]}}`
	rec := doRequest(h, http.MethodPost, "/api/email/webhook", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"outcome":"applied"`) {
		t.Fatalf("body = %s", rec.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestStatsRange(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mk := func(raw string) *http.Request {
		u, _ := url.Parse("/api/email/stats?" + raw)
		return &http.Request{URL: u}
	}

	if from, to := statsRange(mk("period=24h"), now); to.Sub(from) != 24*time.Hour {
		t.Fatalf("24h span = %v", to.Sub(from))
	}
	if from, to := statsRange(mk(""), now); to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("default span = %v", to.Sub(from))
	}
	if from, to := statsRange(mk("period=90d"), now); to.Sub(from) != 90*24*time.Hour {
		t.Fatalf("90d span = %v", to.Sub(from))
	}

	from, to := statsRange(mk("from=2026-03-01T00:00:00Z&to=2026-03-10T00:00:00Z"), now)
	if from.Day() != 1 || to.Day() != 10 {
		t.Fatalf("explicit range = %v → %v", from, to)
	}

	// A backwards explicit range falls through to the default period.
	if from, to := statsRange(mk("from=2026-03-10T00:00:00Z&to=2026-03-01T00:00:00Z"), now); to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("backwards range span = %v", to.Sub(from))
	}
}
