// internal/middleware/security_test.go
//
// Run: go test ./internal/middleware -v

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// The headers must be on the actual wire response, not just in the
// in-process header map.  Handlers write their body immediately, which
// flushes the status line; anything set afterwards is silently dropped,
// so the test goes through a real listener.
func TestSecurityHeadersReachTheWire(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<html>ok</html>")
	})

	srv := httptest.NewServer(Security(inner))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	want := map[string]string{
		"Strict-Transport-Security": "max-age=63072000; includeSubDomains; preload",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
	}
	for name, val := range want {
		if got := resp.Header.Get(name); got != val {
			t.Errorf("%s = %q, want %q", name, got, val)
		}
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}

	// The handler's own headers survive the middleware.
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}
