// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single request.  Handlers push tags in,
// then the base layout decides where to emit each slice.
//
// Features
// --------
//   - SetTitle, SetDescription – single-value tags (last call wins).
//   - Canonical                – <link rel="canonical"> for the page URL.
//   - OpenGraph                – og:* property tags for link previews.
//   - Meta, Link, Script       – arbitrary tags with deduplication.
//   - JSONLD                   – raw JSON-LD wrapped in a typed <script>.
//   - Render helpers           – concat methods returning template.HTML.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder is not safe for concurrent writes from multiple goroutines, but
// typical use is one goroutine per request, so a simple mutex is enough.
type Builder struct {
	mu sync.Mutex

	// Single-value fields
	title       string
	description string

	// Multi-value slices
	metas   []string
	links   []string
	scripts []string
	jsonLD  []string

	// seen tracks keys for deduplication.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// ------------------------------------------------------------------
// Single-value helpers
// ------------------------------------------------------------------

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// SetDescription sets the meta description.  The last caller wins.
func (b *Builder) SetDescription(d string) {
	b.mu.Lock()
	b.description = d
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Description returns the meta-description tag or an empty string.
func (b *Builder) Description() template.HTML {
	if b.description == "" {
		return ""
	}
	return template.HTML(`<meta name="description" content="` +
		template.HTMLEscapeString(b.description) + `">`)
}

// ------------------------------------------------------------------
// Convenience tag builders
// ------------------------------------------------------------------

// Canonical records the canonical URL for the page.
func (b *Builder) Canonical(u string) {
	b.Link(`<link rel="canonical" href="` + template.HTMLEscapeString(u) + `">`)
}

// OpenGraph adds one og:* property tag, e.g. OpenGraph("og:type", "article").
func (b *Builder) OpenGraph(property, content string) {
	b.Meta(`<meta property="` + template.HTMLEscapeString(property) +
		`" content="` + template.HTMLEscapeString(content) + `">`)
}

// ------------------------------------------------------------------
// Slice helpers with deduplication
// ------------------------------------------------------------------

func (b *Builder) Meta(tag string)   { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string)   { b.add("link:"+tag, &b.links, tag) }
func (b *Builder) Script(tag string) { b.add("script:"+tag, &b.scripts, tag) }
func (b *Builder) JSONLD(js string)  { b.add("jsonld:"+hash(js), &b.jsonLD, js) }

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// hash creates a short, stable key for JSON-LD strings.
func hash(s string) string {
	if len(s) > 32 {
		return s[:32]
	}
	return s
}

// ------------------------------------------------------------------
// Rendering helpers called from layout templates
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML   { return concat(b.metas) }
func (b *Builder) Links() template.HTML   { return concat(b.links) }
func (b *Builder) Scripts() template.HTML { return concat(b.scripts) }

// JSON returns all JSON-LD blocks wrapped in <script> tags.
func (b *Builder) JSON() template.HTML {
	if len(b.jsonLD) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}
