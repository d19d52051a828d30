// internal/form/definition.go
//
// Lead-form definitions loaded from YAML.
//
// Context
//   Each lead form (contact, speaking, consulting, newsletter, resource
//   download, waitlist) is declared in one YAML file under conf/forms/.
//   The file names the form and lists its fields with inline validation
//   metadata, so the server enforces the same rules the markup hints at.
//   Definitions are parsed once at startup into a Registry that the HTTP
//   handlers query by ID; there is no global registry.
//
// Workflow
//   •  Load walks a directory, parses every “*.yaml”, and validates
//      structural rules, failing fast on the first bad file.
//   •  Registry.Get returns a parsed definition by ID.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Def is one form definition.  Forms here are always flat, a single page
// of fields with no wizard steps.
type Def struct {
	ID     string  `yaml:"id"`     // Stable identifier, e.g. “contact”.
	Title  string  `yaml:"title"`  // Display heading, optional.
	Fields []Field `yaml:"fields"` // Ordered input controls.
}

// Field describes one input control and its validation rules.
type Field struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, textarea, email, select, checkbox, hidden.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`
	MinLength   int      `yaml:"minlength"` // 0 means unset.
	MaxLength   int      `yaml:"maxlength"` // 0 means unset.
	Pattern     string   `yaml:"pattern"`   // Optional regex, validated at load.
	Options     []string `yaml:"options"`   // For select.  Optional.
	ErrorMsg    string   `yaml:"error"`     // Custom message, optional.
}

// Registry holds every parsed definition.  Built once at startup and read
// concurrently afterwards, so no locking is needed.
type Registry struct {
	defs map[string]*Def
}

// Get returns a definition by ID.  The boolean is false when unknown.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// IDs returns every registered form ID, useful for startup logging.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	return out
}

// Load parses every “*.yaml” directly under dir into a Registry.  The first
// unreadable or structurally invalid file aborts the load.
func Load(dir string) (*Registry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("form: no definitions under %s", dir)
	}

	reg := &Registry{defs: make(map[string]*Def, len(paths))}
	for _, p := range paths {
		d, err := parseFile(p)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.defs[d.ID]; dup {
			return nil, fmt.Errorf("form %s: duplicate id %q", p, d.ID)
		}
		reg.defs[d.ID] = d
	}
	return reg, nil
}

// parseFile reads and validates a single YAML definition.
func parseFile(path string) (*Def, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read %s: %w", path, err)
	}

	var d Def
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("form: parse %s: %w", path, err)
	}
	if err := validateDef(&d, path); err != nil {
		return nil, err
	}
	return &d, nil
}

// validateDef enforces the structural rules YAML tags cannot express.
func validateDef(d *Def, path string) error {
	if d.ID == "" {
		return fmt.Errorf("form %s: missing 'id'", path)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("form %s: must declare at least one field", path)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := validateField(f, path); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name %q", path, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms the field's attributes are present and sane.
func validateField(f *Field, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if f.Label == "" && f.Type != "hidden" {
		return fmt.Errorf("form %s: field %q missing 'label'", path, f.Name)
	}
	switch f.Type {
	case "text", "textarea", "email", "select", "checkbox", "hidden":
	case "":
		return fmt.Errorf("form %s: field %q missing 'type'", path, f.Name)
	default:
		return fmt.Errorf("form %s: field %q has unsupported type %q", path, f.Name, f.Type)
	}

	if f.Type == "select" && len(f.Options) == 0 {
		return fmt.Errorf("form %s: select field %q needs options", path, f.Name)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field %q bad pattern: %v", path, f.Name, err)
		}
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field %q negative length bound", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field %q minlength exceeds maxlength", path, f.Name)
	}
	return nil
}
