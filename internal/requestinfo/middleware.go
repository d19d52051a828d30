// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits high in the chain, after logging / metrics but before the
page and form handlers.  For every request it:

  1. Parses the User-Agent header.
  2. Extracts the left-most public client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup (no-op when no database is configured).
  4. Captures the Referer header and any utm_* query parameters.
  5. Stores a `*RequestInfo` value in `request.Context` under an unexported
     key, so form handlers can snapshot the metadata onto lead rows without
     reparsing.

Instrumentation
---------------
When AVERY_LOG_LEVEL=debug, each invocation logs a DEBUG span with client
IP, country, browser family, device class, bot flag, and request path.

Notes
-----
All look-ups are read-only and pool-based, so the middleware is safe under
concurrency.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		info := &RequestInfo{
			UA:        parseUA(r.UserAgent()),
			Geo:       lookupGeo(ip),
			Referrer:  r.Referer(),
			UTM:       parseUTM(r.URL.Query()),
			URL:       r.URL, // pointer copy; safe for read-only access
			Timestamp: time.Now().UTC(),
		}

		zap.S().Debugw("request info",
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or X-Real-IP,
// falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
