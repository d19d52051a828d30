// internal/view/render.go
//
// View engine: template lookup, func-map injection, and an LRU of parsed
// template sets.
//
// Layout
// ------
//   templates/layouts/   – base shell plus shared partials
//   templates/pages/     – one file per routed page
//   templates/email/     – transactional email bodies
//
// A page render parses the layouts directory plus the page's own file as
// one set, so {{ template "nav" . }} works without explicit wiring.  Email
// renders parse only their own file; they never inherit the site shell.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return the rendered body as a string (email).
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AveryQuinnMedia/avery-site/internal/cache"
)

// Engine renders templates rooted at one directory.  Safe for concurrent
// use; the only shared state is the parsed-set LRU.
type Engine struct {
	root string
	lru  *cache.LRU
	dev  bool // reparse on every render when true
}

// New builds an engine over root (the templates/ directory).  Set dev in
// local development to pick up template edits without a restart.
func New(root string, dev bool) *Engine {
	return &Engine{root: root, lru: cache.New(256), dev: dev}
}

// Render executes the named template set and streams it to w.  Names are
// root-relative without extension, e.g. "pages/blog-index".
func (e *Engine) Render(w io.Writer, name string, data any) error {
	t, err := e.load(name)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, execName(t, filepath.Base(name)), data)
}

// RenderToString mirrors Render into a buffer.  The email service uses it
// through EmailRenderer.
func (e *Engine) RenderToString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Purge drops every cached template set, forcing reparse on next render.
// The SIGHUP handler calls this so template edits land without a restart.
func (e *Engine) Purge() {
	e.lru.Purge()
}

// EmailRenderer adapts the engine to the email service's renderer hook,
// scoping template names under email/.
func (e *Engine) EmailRenderer() func(name string, data map[string]any) (string, error) {
	return func(name string, data map[string]any) (string, error) {
		return e.RenderToString("email/"+name, data)
	}
}

//
// internal: load
//

// load finds and (if necessary) parses the template set for name.
func (e *Engine) load(name string) (*template.Template, error) {
	if !e.dev {
		if v, ok := e.lru.Get(name); ok {
			return v.(*template.Template), nil
		}
	}

	base := filepath.Join(e.root, name+".html")
	if _, err := os.Stat(base); err != nil {
		return nil, err
	}

	// Pages inherit the shared layouts; the page file itself parses last so
	// its {{ define }} blocks win.  Sibling page files stay out of the set,
	// since every page defines "body" and merging them would collide.
	t := template.New(filepath.Base(name)).Funcs(funcMap())
	if strings.HasPrefix(name, "pages/") {
		parsed, err := t.ParseGlob(filepath.Join(e.root, "layouts", "*.html"))
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	t, err := t.ParseFiles(base)
	if err != nil {
		return nil, err
	}

	if !e.dev {
		e.lru.Add(name, t)
	}
	return t, nil
}

// execName picks the concrete template to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template via {{ define }}).
func execName(t *template.Template, name string) string {
	if t.Lookup(name+".html") != nil {
		return name + ".html"
	}
	return name
}
