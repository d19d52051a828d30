// internal/routing/slug_test.go
//
// Unit-tests for slug derivation.
//
// Category identity equals the derived slug, so casing variants of the same
// label MUST collide, and punctuation must never leak into a URL.
//
// Run: go test ./internal/routing -v

package routing

import "testing"

func TestMakeSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"AI Marketing", "ai-marketing"},
		{"ai marketing", "ai-marketing"},
		{"Leadership", "leadership"},
		{"  Thought   Leadership!  ", "thought-leadership"},
		{"B2B / SaaS", "b2b-saas"},
		{"éclair", "clair"},
		{"---", "item"},
		{"", "item"},
	}

	for _, c := range cases {
		if got := MakeSlug(c.in); got != c.want {
			t.Errorf("MakeSlug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Casing variants share one slug; slug equality is the category-identity rule.
func TestMakeSlugCaseCollision(t *testing.T) {
	if MakeSlug("AI-Marketing") != MakeSlug("ai marketing") {
		t.Fatal("expected casing variants to derive the same slug")
	}
}
