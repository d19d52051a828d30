// internal/web/forms_test.go
//
// Form-POST behaviour through the assembled router: a validation failure
// must re-render the page as 422 with a complete Content-Type header.
//
// Run: go test ./internal/web -v

package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AveryQuinnMedia/avery-site/internal/config"
	"github.com/AveryQuinnMedia/avery-site/internal/form"
	"github.com/AveryQuinnMedia/avery-site/internal/view"
)

const contactYAML = `id: contact
title: Contact
fields:
  - name: name
    label: Name
    type: text
    required: true
  - name: email
    label: Email
    type: email
    required: true
  - name: message
    label: Message
    type: textarea
    required: true
`

// newFormHandler wires a router with a real form registry and view engine
// over throwaway files.  Lead capture never runs, validation fails first.
func newFormHandler(t *testing.T) *Handler {
	t.Helper()

	confDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(confDir, "contact.yaml"), []byte(contactYAML), 0o644); err != nil {
		t.Fatalf("write contact.yaml: %v", err)
	}
	forms, err := form.Load(confDir)
	if err != nil {
		t.Fatalf("form.Load: %v", err)
	}

	tplRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tplRoot, "layouts"), 0o755); err != nil {
		t.Fatalf("mkdir layouts: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tplRoot, "pages"), 0o755); err != nil {
		t.Fatalf("mkdir pages: %v", err)
	}
	shell := `{{ define "shell" }}<html>{{ template "body" . }}</html>{{ end }}`
	page := `{{ define "body" }}{{ range .FormErrors }}<p class="err">{{ .Message }}</p>{{ end }}{{ end }}{{ template "shell" . }}`
	if err := os.WriteFile(filepath.Join(tplRoot, "layouts", "base.html"), []byte(shell), 0o644); err != nil {
		t.Fatalf("write base.html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tplRoot, "pages", "contact.html"), []byte(page), 0o644); err != nil {
		t.Fatalf("write contact.html: %v", err)
	}

	cfg := &config.Config{}
	cfg.Site.Title = "Avery Quinn"
	cfg.Site.BaseURL = "https://averyquinn.com"

	return NewHandler(cfg, view.New(tplRoot, false), nil, nil, nil, forms)
}

func TestSubmitContactValidationFailureIs422WithCharset(t *testing.T) {
	h := newFormHandler(t)

	// No CSRF token, no fields: validation fails before any capture.
	body := url.Values{}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html with charset", ct)
	}
	if !strings.Contains(rec.Body.String(), `class="err"`) {
		t.Errorf("re-rendered page lacks field errors: %q", rec.Body.String())
	}
}
