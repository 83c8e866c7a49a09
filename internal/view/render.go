// internal/view/render.go
//
// Central view engine: template lookup, override chain, and an LRU of
// parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Render – write rendered HTML to an http.ResponseWriter.  Execution
//     happens in a buffer, so only a failed body write (ErrCommitted) can
//     follow the status line.
//
// Lookup precedence (first hit wins):
//  1. <override>/<comp>/templates/<tpl>.html   (paths.templates, optional)
//  2. templates/<tpl>.html inside the component's mounted fs.FS
//
// All templates in the same directory are parsed as one set so sub-templates
// ({{ template "layout" . }}) work out-of-the-box.
//
// execName() chooses the template to execute: "<name>" when a file defines
// it via {{ define }}, else the file "<name>.html" itself.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strconv"
	"sync"

	"github.com/yanizio/contactform/internal/cache"
)

//
// cache definitions
//

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // reuse the parsed set
	CacheSkip                       // always re-parse (template development)
)

var (
	// ErrTemplateNotFound is returned when no source holds the template.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrCommitted wraps a body write that failed after the status line
	// went out.  Callers must not write another response.
	ErrCommitted = errors.New("response already committed")
)

// Engine resolves and executes component templates.  Safe for concurrent
// use once every component is mounted.
type Engine struct {
	override fs.FS // nil when paths.templates is unset

	mu     sync.RWMutex
	mounts map[string]fs.FS

	sets *cache.LRU[string, *template.Template]
}

// New returns an Engine.  overrideDir may be empty.
func New(overrideDir string) *Engine {
	e := &Engine{
		mounts: make(map[string]fs.FS),
		sets:   cache.New[string, *template.Template](256),
	}
	if overrideDir != "" {
		e.override = os.DirFS(overrideDir)
	}
	return e
}

// Mount registers the embedded templates of component comp.  fsys must
// contain a templates/ directory.
func (e *Engine) Mount(comp string, fsys fs.FS) {
	e.mu.Lock()
	e.mounts[comp] = fsys
	e.mu.Unlock()
	e.sets.Purge()
}

//
// public helpers
//

// Render executes the template into a buffer, then writes status and body
// to w.  A template failure never leaves a half-written page.
func (e *Engine) Render(w http.ResponseWriter, status int, comp, name string, data any, policy CachePolicy) error {
	var buf bytes.Buffer
	if err := e.execute(&buf, comp, name, data, policy); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitted, err)
	}
	return nil
}

func (e *Engine) execute(buf *bytes.Buffer, comp, name string, data any, policy CachePolicy) error {
	t, err := e.load(comp, name, policy)
	if err != nil {
		return err
	}
	if err := t.ExecuteTemplate(buf, execName(t, name), data); err != nil {
		return fmt.Errorf("execute %s/%s: %w", comp, name, err)
	}
	return nil
}

//
// internal: load
//

// load finds and (if necessary) parses the template set for comp and name.
func (e *Engine) load(comp, name string, policy CachePolicy) (*template.Template, error) {
	key := comp + "::" + name

	if policy != CacheSkip {
		if t, ok := e.sets.Get(key); ok {
			return t, nil
		}
	}

	e.mu.RLock()
	mounted := e.mounts[comp]
	e.mu.RUnlock()

	type candidate struct {
		fsys fs.FS
		dir  string
	}
	var cands []candidate
	if e.override != nil {
		cands = append(cands, candidate{e.override, path.Join(comp, "templates")})
	}
	if mounted != nil {
		cands = append(cands, candidate{mounted, "templates"})
	}

	for _, c := range cands {
		if _, err := fs.Stat(c.fsys, path.Join(c.dir, name+".html")); err != nil {
			continue
		}
		t, err := template.New(name).ParseFS(c.fsys, path.Join(c.dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("parse %s/%s: %w", comp, name, err)
		}
		if policy != CacheSkip {
			e.sets.Add(key, t)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%s/%s: %w", comp, name, ErrTemplateNotFound)
}

//
// helpers
//

// execName picks the template name to execute.  The root created by
// template.New(name) has no tree unless some file defines it.
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name); tmpl != nil && tmpl.Tree != nil {
		return name
	}
	return name + ".html"
}
