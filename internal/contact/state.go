// internal/contact/state.go
//
// Form state and its two transitions.
//
// Context
// -------
// A Form is the state of one visitor's contact form.  It moves through two
// events:
//
//   - Change(field, value) stores the value and re-validates that field
//     at once, so errors track every edit.
//   - Submit() re-validates every rule-bearing field.  When nothing fails,
//     the current values are copied into the snapshot, replacing any
//     earlier one.  When something fails, the snapshot is left alone.
//
// There is no terminal state.  The form stays editable after a submit,
// and a failed resubmit never hides an earlier successful one.
//
// A Form is not safe for concurrent use.  internal/session serializes
// access per visitor.
package contact

// Snapshot is the frozen copy of Values taken by a successful Submit.
type Snapshot Values

// Form holds values, active errors, and the last valid submission.
type Form struct {
	values    Values
	errors    ErrorMap
	snapshot  Snapshot
	submitted bool
}

// New returns an empty form with no errors and no snapshot.
func New() *Form {
	return &Form{errors: make(ErrorMap)}
}

// Change stores value in field and recomputes that field's error.
func (f *Form) Change(field FieldName, value string) {
	f.values.Set(field, value)
	f.revalidate(field)
}

// Submit validates every rule-bearing field.  It reports whether the
// snapshot was replaced with the current values.
func (f *Form) Submit() bool {
	f.errors = ValidateAll(f.values)
	if len(f.errors) > 0 {
		return false
	}
	f.snapshot = Snapshot(f.values)
	f.submitted = true
	return true
}

func (f *Form) revalidate(field FieldName) {
	if msg := Validate(field, f.values.Get(field)); msg != "" {
		f.errors[field] = msg
		return
	}
	delete(f.errors, field)
}

// Values returns a copy of the current field values.
func (f *Form) Values() Values { return f.values }

// Errors returns a copy of the active errors.
func (f *Form) Errors() ErrorMap {
	out := make(ErrorMap, len(f.errors))
	for k, msg := range f.errors {
		out[k] = msg
	}
	return out
}

// Error returns the active error for field, or "".
func (f *Form) Error(field FieldName) string { return f.errors[field] }

// Snapshot returns the last valid submission.  ok is false until the
// first successful Submit.
func (f *Form) Snapshot() (s Snapshot, ok bool) {
	return f.snapshot, f.submitted
}

// Submitted reports whether at least one Submit succeeded.
func (f *Form) Submitted() bool { return f.submitted }
