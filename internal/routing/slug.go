// internal/routing/slug.go
//
// Slug helper.
//
// MakeSlug(label) converts arbitrary text into a URL-safe slug restricted
// to ASCII a-z, 0-9 and “-”.  Category identity on this site IS the slug:
// two labels that differ only in casing or punctuation collapse to the same
// category, which is intended.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Collapse consecutive “-” to a single “-”.
// 4. Trim leading / trailing “-”.
// 5. If the result is empty, return "item".
//
// Notes
// -----
// • No Unicode transliteration; the site is English-only.
// • Slugs are max 100 runes; callers may truncate earlier if they prefer.

package routing

import (
	"strings"
)

// MakeSlug converts a label → lower-kebab ASCII.
func MakeSlug(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	lastWasDash := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "item"
	}
	if len(slug) > 100 {
		slug = slug[:100]
		slug = strings.TrimRightFunc(slug, func(r rune) bool { return r == '-' })
	}
	return slug
}
