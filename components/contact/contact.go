// components/contact/contact.go
//
// Contact Component – the four-field contact form, its live field
// validation endpoint, and the results region.
//
// Routes
// ------
//   GET  /                  → 302 /contact
//   GET  /contact           → page, current values and errors
//   POST /contact           → submit (200 accepted, 422 rejected, 403 bad token)
//   POST /contact/field     → JSON {"field","error","valid"} for one change
//   GET  /static/*          → live-validation script and stylesheet
//
// Every handler runs inside session.Store.Do, so each visitor owns one
// contact.Form and events for the same visitor never interleave.  POST
// bodies are capped at form.MaxBodyBytes and tokens are bound to the
// visitor's session ID.
package contact

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/contact"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/head"
	"github.com/yanizio/contactform/internal/metrics"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/view"
)

const (
	compName = "contact"
	formID   = "contact/contact"
)

//go:embed forms templates static
var assets embed.FS

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	views    *view.Engine
	sessions *session.Store
	csrf     *form.CSRF
}

// pageData feeds templates/page.html.
type pageData struct {
	Head   *head.Builder
	Title  string
	Form   template.HTML
	Result contact.View
}

// fieldResult is the body of POST /contact/field.
type fieldResult struct {
	Field string `json:"field"`
	Error string `json:"error"`
	Valid bool   `json:"valid"`
}

func (c *Comp) Name() string { return compName }

// Init registers the embedded form definition and templates.
func (c *Comp) Init(env component.Env) error {
	if env.Views == nil || env.Sessions == nil || env.CSRF == nil {
		return errors.New("contact: incomplete component env")
	}
	if err := form.RegisterForms(assets, "forms"); err != nil {
		return err
	}
	env.Views.Mount(compName, assets)

	c.views = env.Views
	c.sessions = env.Sessions
	c.csrf = env.CSRF
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/contact", http.StatusFound)
	})
	r.Get("/contact", c.getContact)
	r.Group(func(r chi.Router) {
		r.Use(chimw.RequestSize(form.MaxBodyBytes))
		r.Post("/contact", c.postContact)
		r.Post("/contact/field", c.postField)
	})
	r.Get("/static/contact.js", serveAsset("static/contact.js"))
	r.Get("/static/contact.css", serveAsset("static/contact.css"))

	return r
}

//
// handlers
//

func (c *Comp) getContact(w http.ResponseWriter, r *http.Request) {
	err := c.sessions.Do(w, r, func(sid string, f *contact.Form) error {
		return c.renderPage(w, sid, f, http.StatusOK)
	})
	c.fail(w, r, err)
}

func (c *Comp) postContact(w http.ResponseWriter, r *http.Request) {
	err := c.sessions.Do(w, r, func(sid string, f *contact.Form) error {
		status := http.StatusOK

		err := form.HandleSubmit(c.csrf, sid, f, r)
		switch {
		case err == nil:
			metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
			c.noteBot(r)
			zap.S().Infow("contact submitted", "req_id", chimw.GetReqID(r.Context()))
		case form.IsValidationError(err):
			metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
			status = http.StatusUnprocessableEntity
		default:
			return err
		}
		return c.renderPage(w, sid, f, status)
	})
	c.fail(w, r, err)
}

func (c *Comp) postField(w http.ResponseWriter, r *http.Request) {
	err := c.sessions.Do(w, r, func(sid string, f *contact.Form) error {
		field, msg, err := form.HandleChange(c.csrf, sid, f, r)
		if err != nil {
			return err
		}

		if contact.HasRule(field) {
			result := "valid"
			if msg != "" {
				result = "invalid"
			}
			metrics.FieldValidationsTotal.WithLabelValues(string(field), result).Inc()
		}

		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(fieldResult{
			Field: string(field),
			Error: msg,
			Valid: msg == "",
		})
	})
	c.fail(w, r, err)
}

//
// helpers
//

// renderPage writes the full page for f's current state.
func (c *Comp) renderPage(w http.ResponseWriter, sid string, f *contact.Form, status int) error {
	fd, ok := form.GetFormDef(formID)
	if !ok {
		return form.ErrUnknownForm
	}
	tok, err := c.csrf.Generate(sid)
	if err != nil {
		return err
	}
	markup, err := form.RenderForm(formID, form.RenderOptions{
		Values:    f.Values().Map(),
		Errors:    f.Errors().Map(),
		CSRFToken: tok,
	})
	if err != nil {
		return err
	}

	h := head.New()
	h.SetTitle(fd.Title)
	h.Meta(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	h.Link(`<link rel="stylesheet" href="/static/contact.css">`)
	h.Script(`<script src="/static/contact.js" defer></script>`)

	return c.views.Render(w, status, compName, "page", pageData{
		Head:   h,
		Title:  fd.Title,
		Form:   markup,
		Result: contact.NewView(f),
	}, view.CacheDefault)
}

func serveAsset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, assets, name)
	}
}

// noteBot counts accepted submits from known crawlers.
func (c *Comp) noteBot(r *http.Request) {
	ri := requestinfo.FromContext(r.Context())
	if ri == nil || !ri.UA.IsBot {
		return
	}
	metrics.BotSubmissionsTotal.Inc()
	zap.S().Infow("bot submission", "browser", ri.UA.Browser, "ip", ri.Geo.IP)
}

// fail maps handler errors onto status codes.  A nil err is a no-op.
func (c *Comp) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, view.ErrCommitted):
		// Status and headers are out; the client most likely hung up.
		zap.S().Debugw("response write failed", "path", r.URL.Path, "err", err,
			"req_id", chimw.GetReqID(r.Context()))
	case errors.Is(err, form.ErrBadToken):
		if r.URL.Path == "/contact" {
			metrics.SubmissionsTotal.WithLabelValues("forbidden").Inc()
		}
		http.Error(w, "form token invalid or expired, reload the page", http.StatusForbidden)
	case errors.Is(err, form.ErrMalformed):
		http.Error(w, "malformed or oversized request", http.StatusBadRequest)
	case errors.Is(err, contact.ErrUnknownField):
		http.Error(w, "unknown field", http.StatusBadRequest)
	case errors.Is(err, session.ErrClosed):
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	default:
		zap.S().Errorw("contact handler", "path", r.URL.Path, "err", err,
			"req_id", chimw.GetReqID(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Register component at package init.
func init() {
	component.Register(&Comp{})
}
