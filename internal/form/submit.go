// internal/form/submit.go
//
// One-call submission helper for HTTP handlers.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/http"
)

// Submit parses the request body and validates it against the registered
// form.  On validation failure the returned error is a ValidationError;
// anything else is a system failure.
func (r *Registry) Submit(formID string, req *http.Request) (map[string]any, error) {
	if err := req.ParseForm(); err != nil {
		return nil, err
	}

	d, ok := r.Get(formID)
	if !ok {
		return nil, errors.New("form: unknown form " + formID)
	}

	clean, errs := d.Validate(req.PostForm)
	if len(errs) > 0 {
		return nil, ValidationError{Fields: errs}
	}
	return clean, nil
}

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
