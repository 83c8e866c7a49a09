// internal/contact/field.go
//
// Field names and the value set of the contact form.
//
// Context
// -------
// The form has exactly four inputs.  Values is a plain struct rather than
// a map so every field is always defined (the zero value is the empty
// string), and a copy of it is an independent snapshot.
//
// Notes
// -----
//   - FieldName values match the HTML `name` attributes and the keys used
//     in error messages ("firstName is a required field").
//   - Oxford commas, two spaces after periods.
package contact

import (
	"errors"
	"fmt"
)

// FieldName identifies one input of the contact form.
type FieldName string

const (
	FirstName FieldName = "firstName"
	LastName  FieldName = "lastName"
	Email     FieldName = "email"
	Message   FieldName = "message"
)

// Fields lists every field in display order.
var Fields = []FieldName{FirstName, LastName, Email, Message}

// ErrUnknownField is returned by ParseFieldName for names outside Fields.
var ErrUnknownField = errors.New("unknown contact field")

// ParseFieldName converts a raw form key into a FieldName.
func ParseFieldName(s string) (FieldName, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Values holds the current text of every field.
type Values struct {
	FirstName string
	LastName  string
	Email     string
	Message   string
}

// Get returns the value stored for field.  Unknown fields read as "".
func (v Values) Get(field FieldName) string {
	switch field {
	case FirstName:
		return v.FirstName
	case LastName:
		return v.LastName
	case Email:
		return v.Email
	case Message:
		return v.Message
	}
	return ""
}

// Set stores value for field.  Unknown fields are ignored.
func (v *Values) Set(field FieldName, value string) {
	switch field {
	case FirstName:
		v.FirstName = value
	case LastName:
		v.LastName = value
	case Email:
		v.Email = value
	case Message:
		v.Message = value
	}
}

// Map returns the values keyed by field name, for renderers that work on
// plain string maps.
func (v Values) Map() map[string]string {
	out := make(map[string]string, len(Fields))
	for _, f := range Fields {
		out[string(f)] = v.Get(f)
	}
	return out
}

// ErrorMap maps a field to its single active error message.  A missing key
// means the field currently passes validation.
type ErrorMap map[FieldName]string

// Map returns the errors keyed by plain field name.
func (e ErrorMap) Map() map[string]string {
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[string(f)] = msg
	}
	return out
}
