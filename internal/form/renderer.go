// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a registered FormDef this file converts the definition into safe,
//   label-associated HTML.  Current values are written back into the inputs
//   and each active error is rendered under its field.  A CSRF token is
//   embedded as a hidden input.
//
// Workflow
//   •  RenderForm looks up the FormDef by ID and writes each field via
//      writeField, then the hidden token and the single submit button.
//   •  The <form> carries novalidate so the browser never blocks a submit;
//      the server decides which errors to show.
//   •  The caller receives template.HTML so the surrounding page template
//      does not double-escape the markup.
//
// Style
//   Output HTML is plain so themes can style via element selectors or class
//   hooks.  Each input gets id="{name}" and is wrapped in
//   <div class="form-field">.  Each field owns an error slot
//   <div id="err-{name}"> which holds at most one
//   <p class="error" data-testid="error"> element.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
)

// CSRFField is the hidden input (and form key) carrying the CSRF token.
const CSRFField = "csrf_token"

// RenderOptions bundles per-request data influencing HTML output.
type RenderOptions struct {
	// Values holds current field values keyed by field name.
	Values map[string]string
	// Errors holds the active error message keyed by field name.
	Errors map[string]string
	// CSRFToken is embedded as a hidden input when non-empty.
	CSRFToken string
}

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm %q: %w", formID, ErrUnknownForm)
	}

	var buf bytes.Buffer
	buf.WriteString(`<form class="contact-form" method="post" action="` + html.EscapeString(fd.Action) +
		`" data-form="` + html.EscapeString(fd.ID) + `" novalidate>` + "\n")

	for _, f := range fd.Fields {
		if err := writeField(&buf, &f, opts.Values[f.Name], opts.Errors[f.Name]); err != nil {
			return "", err
		}
	}

	if opts.CSRFToken != "" {
		buf.WriteString(`<input type="hidden" name="` + CSRFField + `" value="` + html.EscapeString(opts.CSRFToken) + `">` + "\n")
	}
	buf.WriteString(`<button type="submit">` + html.EscapeString(fd.Submit) + `</button>` + "\n")
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, val, errMsg string) error {
	name := html.EscapeString(f.Name)

	buf.WriteString(`<div class="form-field">` + "\n")
	buf.WriteString(`<label for="` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	switch f.Type {
	case "text", "email":
		buf.WriteString(`<input id="` + name + `" name="` + name + `" type="` + f.Type + `"`)
		writeAttrs(buf, f, errMsg)
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea id="` + name + `" name="` + name + `"`)
		writeAttrs(buf, f, errMsg)
		buf.WriteString(`>` + html.EscapeString(val) + `</textarea>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	// Error slot, refreshed in place by the live-validation script.
	buf.WriteString(`<div class="field-error" id="err-` + name + `" aria-live="polite">`)
	if errMsg != "" {
		buf.WriteString(`<p class="error" data-testid="error">` + html.EscapeString(errMsg) + `</p>`)
	}
	buf.WriteString(`</div>` + "\n")

	buf.WriteString(`</div>` + "\n")
	return nil
}

// writeAttrs appends the optional attributes shared by every control.
func writeAttrs(buf *bytes.Buffer, f *FieldDef, errMsg string) {
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Required {
		buf.WriteString(` aria-required="true"`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` data-minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
	if errMsg != "" {
		buf.WriteString(` aria-invalid="true" aria-describedby="err-` + html.EscapeString(f.Name) + `"`)
	}
}
