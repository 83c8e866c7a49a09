// internal/form/submit.go
//
// Forms subsystem: consolidated Submit and Change helpers.
//
// Context
//   Handlers want one call that parses the POST body, checks the CSRF
//   token, and drives the contact form through its events.  HandleSubmit
//   and HandleChange provide that so component code stays terse.
//
//   HandleSubmit applies every posted field as a change, then submits.
//   Fields absent from the body keep their current value.  A failed submit
//   comes back as *ValidationError (check with IsValidationError) so
//   callers can tell user errors from system failures.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yanizio/contactform/internal/contact"
)

const (
	// CSRFHeader carries the token on script-driven requests.
	CSRFHeader = "X-CSRF-Token"

	// MaxBodyBytes caps a POST body.  Larger bodies fail with ErrMalformed.
	MaxBodyBytes = 64 << 10
)

// ErrMalformed wraps request bodies that could not be parsed.
var ErrMalformed = errors.New("malformed form body")

// ValidationError wraps the failing fields of a submit.
type ValidationError struct{ Errors contact.ErrorMap }

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed: %d field(s)", len(ve.Errors))
}

// IsValidationError reports whether err came from a failed submit.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HandleSubmit parses r, verifies its token against sessionID, applies the
// posted fields to f, and submits.  It returns nil when f took a new
// snapshot.
func HandleSubmit(csrf *CSRF, sessionID string, f *contact.Form, r *http.Request) error {
	if err := parseAndVerify(csrf, sessionID, r); err != nil {
		return err
	}

	for _, field := range contact.Fields {
		if vals, ok := r.PostForm[string(field)]; ok && len(vals) > 0 {
			f.Change(field, vals[0])
		}
	}

	if !f.Submit() {
		return &ValidationError{Errors: f.Errors()}
	}
	return nil
}

// HandleChange parses r, verifies its token against sessionID, and applies
// the single `field`/`value` pair to f.  It returns the changed field and
// its error message ("" when valid).
func HandleChange(csrf *CSRF, sessionID string, f *contact.Form, r *http.Request) (contact.FieldName, string, error) {
	if err := parseAndVerify(csrf, sessionID, r); err != nil {
		return "", "", err
	}

	field, err := contact.ParseFieldName(r.PostForm.Get("field"))
	if err != nil {
		return "", "", err
	}
	f.Change(field, r.PostForm.Get("value"))
	return field, f.Error(field), nil
}

// parseAndVerify expects r.Body to be capped at MaxBodyBytes already (chi's
// RequestSize on the component router).  An over-limit body surfaces here
// as ErrMalformed.
func parseAndVerify(csrf *CSRF, sessionID string, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tok := r.PostForm.Get(CSRFField)
	if tok == "" {
		tok = r.Header.Get(CSRFHeader)
	}
	if tok == "" || !csrf.Verify(tok, sessionID) {
		return ErrBadToken
	}
	return nil
}
