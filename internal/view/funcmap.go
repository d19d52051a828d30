// internal/view/funcmap.go
//
// Template helpers shared by every rendered set.
package view

import (
	"html/template"
	"time"

	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

// funcMap returns the helpers injected into every template set.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":    dict,
		"fmtdate": fmtDate,
		"now":     func() time.Time { return time.Now() },
		"add1":    func(n int) int { return n + 1 },
		"sub1":    func(n int) int { return n - 1 },

		// Request-info helpers, keyed off the enriched request snapshot.
		"browser": func(ri *requestinfo.RequestInfo) string { return uaField(ri, func(u requestinfo.UA) string { return u.Browser }) },
		"device":  func(ri *requestinfo.RequestInfo) string { return uaField(ri, func(u requestinfo.UA) string { return u.Device }) },
		"isBot": func(ri *requestinfo.RequestInfo) bool {
			return ri != nil && ri.UA.IsBot
		},
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// fmtDate renders times in the site's editorial style, tolerating both
// values and pointers.
func fmtDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("January 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("January 2, 2006")
	default:
		return ""
	}
}

func uaField(ri *requestinfo.RequestInfo, pick func(requestinfo.UA) string) string {
	if ri == nil {
		return ""
	}
	return pick(ri.UA)
}
