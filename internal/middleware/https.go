// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"
)

// ForceHTTPS wraps h.  If the request is plain HTTP and the host is not
// “localhost”, the wrapper issues a 308 Permanent Redirect to the HTTPS
// version of the same URL.  A proxy that already terminated TLS is honoured
// via X-Forwarded-Proto.
func ForceHTTPS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already HTTPS, proxied HTTPS, or dev host → continue.
		if r.TLS != nil ||
			r.Header.Get("X-Forwarded-Proto") == "https" ||
			stripPort(r.Host) == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
