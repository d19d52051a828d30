// internal/form/validate.go
//
// Server-side validation and sanitization for lead forms.
//
// Context
//   A rendered form carries a CSRF token and a render timestamp.  On POST
//   this file verifies both, then walks the definition's fields checking
//   required, type, length, pattern, and option rules.  The result is a
//   sanitized map the lead services can trust, or a field-level error list
//   the page re-renders with.
//
//   The timing check doubles as cheap bot filtering: a submission landing
//   under two seconds after render was not typed by a person.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"html"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldError describes one validation failure for field-level display.  A
// blank Name marks a form-level failure (CSRF, timing).
type FieldError struct {
	Name    string
	Message string
}

// ValidationError wraps the field errors so callers can tell user mistakes
// from system failures with errors.As.
type ValidationError struct{ Fields []FieldError }

func (e ValidationError) Error() string { return "form validation failed" }

// Validate checks posted values against the definition and returns the
// sanitized map.  A non-empty error slice means the page must re-render.
func (d *Def) Validate(posted url.Values) (map[string]any, []FieldError) {
	if !VerifyToken(posted.Get("csrf_token")) {
		return nil, []FieldError{{"", "Security token invalid.  Please refresh and try again."}}
	}
	if msg := checkTiming(posted.Get("render_ts")); msg != "" {
		return nil, []FieldError{{"", msg}}
	}

	var errs []FieldError
	clean := make(map[string]any)

	for i := range d.Fields {
		f := &d.Fields[i]
		raw := posted.Get(f.Name)

		if f.Type == "checkbox" {
			_, present := posted[f.Name]
			if f.Required && !present {
				errs = append(errs, FieldError{f.Name, requiredMsg(f)})
				continue
			}
			clean[f.Name] = present
			continue
		}

		if strings.TrimSpace(raw) == "" {
			if f.Required {
				errs = append(errs, FieldError{f.Name, requiredMsg(f)})
			}
			continue
		}

		val, msg := sanitize(f, raw)
		if msg != "" {
			errs = append(errs, FieldError{f.Name, msg})
			continue
		}
		clean[f.Name] = val
	}

	return clean, errs
}

// Str pulls a sanitized string out of a clean map, tolerating absence.
func Str(clean map[string]any, key string) string {
	s, _ := clean[key].(string)
	return s
}

// checkTiming rejects submissions landing implausibly fast or long after
// the render.  Empty string means pass.
func checkTiming(tsRaw string) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry."
	}
	delta := time.Since(time.UnixMicro(ts))
	switch {
	case delta < 2*time.Second:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > 30*time.Minute:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}

// sanitize validates one non-empty value by field type and returns the
// cleaned value or a user-facing message.
func sanitize(f *Field, raw string) (any, string) {
	val := strings.TrimSpace(raw)

	if msg := lengthCheck(f, val); msg != "" {
		return nil, msg
	}

	switch f.Type {
	case "text", "textarea", "hidden":
		if f.Pattern != "" && !regexMatch(f.Pattern, val) {
			return nil, patternMsg(f)
		}
		return html.EscapeString(val), ""

	case "email":
		addr, err := mail.ParseAddress(val)
		if err != nil {
			return nil, invalidMsg(f)
		}
		return strings.ToLower(addr.Address), ""

	case "select":
		for _, o := range f.Options {
			if o == val {
				return val, ""
			}
		}
		return nil, invalidMsg(f)

	default:
		return nil, fmt.Sprintf("Unsupported field type %q.", f.Type)
	}
}

func lengthCheck(f *Field, s string) string {
	n := len(s)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("Must be at least %d characters.", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("Must be less than %d characters.", f.MaxLength)
	}
	return ""
}

func regexMatch(pattern, s string) bool {
	re, _ := regexp.Compile(pattern) // pre-validated at load
	return re.MatchString(s)
}

func requiredMsg(f *Field) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "This field is required."
}

func invalidMsg(f *Field) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Invalid input."
}

func patternMsg(f *Field) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Input does not match the required format."
}
