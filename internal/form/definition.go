// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file.  The file names the form,
//   its heading, where it posts, its submit label, and its fields in display
//   order.  Components ship their definitions under “forms/” (usually via
//   embed.FS) and register them at start-up.  The renderer and handlers
//   fetch definitions from this registry by ID, so markup and submission
//   code read the same source of truth.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef decodes one document and validates structural rules.
//   •  RegisterForms walks an fs.FS, loads every “*.yaml”, and registers it.
//      Later registrations of the same ID override earlier ones, so an
//      on-disk override directory can be walked after the embedded copy.
//   •  GetFormDef offers read-only access to a parsed form by ID.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownForm is returned when a form ID has no registered definition.
var ErrUnknownForm = errors.New("unknown form")

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// ID should be namespaced by component, e.g. “contact/contact”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Heading rendered above the form.
	Action string     `yaml:"action"` // POST target.  Required.
	Submit string     `yaml:"submit"` // Button text, defaults to “Submit”.
	Fields []FieldDef `yaml:"fields"` // Inputs in display order.
}

// FieldDef describes a single input control.  Required and MinLength are
// presentation hints only; the server-side rules live with the domain code.
type FieldDef struct {
	Name        string `yaml:"name"`        // Submission key.  Required.
	Label       string `yaml:"label"`       // Human-readable label.  Required.
	Type        string `yaml:"type"`        // text, email, or textarea.
	Placeholder string `yaml:"placeholder"` // Optional placeholder text.
	Required    bool   `yaml:"required"`    // Adds aria-required.
	MinLength   int    `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int    `yaml:"maxlength"`   // ≥ 0, 0 means unset.
}

// supportedTypes lists the input types the renderer knows how to emit.
var supportedTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"textarea": true,
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the
// ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Register inserts or overrides fd in the registry.  Caller must ensure the
// FormDef passed validation.
func Register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef decodes one YAML document and validates its structure.
// source names the document in error messages.  It never touches the
// registry.
func ParseFormDef(raw []byte, source string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", source, err)
	}
	if fd.Submit == "" {
		fd.Submit = "Submit"
	}
	if err := validateFormDef(&fd, source); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterForms walks root inside fsys and registers every “*.yaml”.  A
// missing root is not an error, so optional override directories can be
// passed unconditionally.
//
// Example:
//
//	err := form.RegisterForms(contactFS, "forms")
func RegisterForms(fsys fs.FS, root string) error {
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil // skip non-YAML
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := ParseFormDef(raw, path.Clean(p))
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		Register(fd)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.
func validateFormDef(fd *FormDef, source string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", source)
	}
	if fd.Action == "" {
		return fmt.Errorf("form definition %s: missing required 'action'", source)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", source)
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, source); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", source, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, source string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", source)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", source, f.Name)
	}
	if !supportedTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", source, f.Name, f.Type)
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", source, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", source, f.Name)
	}
	return nil
}
