// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// component for side effects, calls Init(env) on every registered
// component once the shared services exist, and mounts each Routes() at “/”.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/view"
)

// Env exposes process-wide services to Components during Init.
type Env struct {
	Views    *view.Engine
	Sessions *session.Store
	CSRF     *form.CSRF
}

// Component contract.
//
// Routes() should mount BOTH page and API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/contact", getContact)
//	r.Post("/contact/field", postField)
//	return r
type Component interface {
	Name() string
	Init(Env) error
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component and mounts its routes on r.
func Mount(r chi.Router, env Env) error {
	for _, c := range All() {
		if err := c.Init(env); err != nil {
			return err
		}
		r.Mount("/", c.Routes())
	}
	return nil
}
