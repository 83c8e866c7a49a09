// internal/contact/validate.go
//
// Field rules for the contact form.
//
// Context
// -------
// Every rule is declared once, in the rules table below, as a
// go-playground/validator tag list.  Validate runs one field on change and
// ValidateAll runs every rule-bearing field on submit, so both call sites
// share the same rules.
//
// Validator stops at the first failing tag of a field, which gives the
// "one error per field" behaviour for free.  Tag order therefore sets
// precedence: an empty firstName reports "required", never "min".
//
// Notes
// -----
//   - Values are trimmed before checking.  Lengths count runes.
//   - message has no rule and is always valid.
//   - Oxford commas, two spaces after periods.
package contact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinFirstNameLength is the shortest accepted first name, in runes.
const MinFirstNameLength = 5

// rules maps each rule-bearing field to its validator tags.
var rules = map[FieldName]string{
	FirstName: fmt.Sprintf("required,min=%d", MinFirstNameLength),
	LastName:  "required",
	Email:     "required,email,emailshape",
}

// v is safe for concurrent use once the custom tags are registered.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	if err := val.RegisterValidation("emailshape", emailShape); err != nil {
		panic("contact: register emailshape: " + err.Error())
	}
	return val
}

// emailShape requires a dotted domain with a non-empty last label
// ("local@domain.tld").  The stock email tag also accepts "user@host".
func emailShape(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	at := strings.LastIndexByte(s, '@')
	if at < 1 {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// HasRule reports whether field takes part in validation.
func HasRule(field FieldName) bool {
	_, ok := rules[field]
	return ok
}

// Validate returns the error message for value in field, or "" when valid.
func Validate(field FieldName, value string) string {
	tags, ok := rules[field]
	if !ok {
		return ""
	}

	err := v.Var(strings.TrimSpace(value), tags)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		// Only reachable with a malformed tag list.
		return fmt.Sprintf("%s is invalid", field)
	}
	return message(field, verrs[0])
}

// ValidateAll runs every rule-bearing field of vals and returns the
// failures.  The result is empty, never nil, when the form is valid.
func ValidateAll(vals Values) ErrorMap {
	out := make(ErrorMap, len(rules))
	for _, f := range Fields {
		if msg := Validate(f, vals.Get(f)); msg != "" {
			out[f] = msg
		}
	}
	return out
}

// message renders a failed tag the way form users expect to read it.
func message(field FieldName, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required field", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email", "emailshape":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
