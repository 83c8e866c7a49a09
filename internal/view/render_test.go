package view

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var compFS = fstest.MapFS{
	"templates/page.html":   {Data: []byte(`{{ template "layout" . }}`)},
	"templates/layout.html": {Data: []byte(`{{ define "layout" }}<h1>{{ .Title }}</h1>{{ end }}`)},
	"templates/frag.html":   {Data: []byte(`{{ define "frag" }}{{ len .Items }}{{ end }}`)},
}

func TestRender_EmbeddedTemplate(t *testing.T) {
	e := New("")
	e.Mount("contact", compFS)

	w := httptest.NewRecorder()
	require.NoError(t, e.Render(w, http.StatusUnprocessableEntity, "contact", "page",
		map[string]string{"Title": "Contact <Form>"}, CacheDefault))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<h1>Contact &lt;Form&gt;</h1>", w.Body.String())
}

// render executes comp/name and returns the body.
func render(t *testing.T, e *Engine, comp, name string, data any) (string, error) {
	t.Helper()
	w := httptest.NewRecorder()
	err := e.Render(w, http.StatusOK, comp, name, data, CacheDefault)
	return w.Body.String(), err
}

func TestRender_DefineOnlyTemplate(t *testing.T) {
	e := New("")
	e.Mount("contact", compFS)

	out, err := render(t, e, "contact", "frag", map[string][]int{"Items": {1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestRender_OverrideWins(t *testing.T) {
	dir := t.TempDir()
	tplDir := filepath.Join(dir, "contact", "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tplDir, "page.html"), []byte(`override {{ .Title }}`), 0o644))

	e := New(dir)
	e.Mount("contact", compFS)

	out, err := render(t, e, "contact", "page", map[string]string{"Title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "override x", out)
}

func TestRender_NotFound(t *testing.T) {
	e := New("")
	e.Mount("contact", compFS)

	_, err := render(t, e, "contact", "missing", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = render(t, e, "other", "page", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRender_ExecErrorWritesNothing(t *testing.T) {
	e := New("")
	e.Mount("broken", fstest.MapFS{
		"templates/page.html": {Data: []byte(`{{ .Missing.Field }}`)},
	})

	w := httptest.NewRecorder()
	err := e.Render(w, http.StatusOK, "broken", "page", map[string]any{"Missing": 1}, CacheSkip)
	assert.Error(t, err)
	assert.Zero(t, w.Body.Len())
}

// brokenPipe accepts headers but fails every body write.
type brokenPipe struct{ *httptest.ResponseRecorder }

func (brokenPipe) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestRender_FailedBodyWriteIsCommitted(t *testing.T) {
	e := New("")
	e.Mount("contact", compFS)

	w := brokenPipe{httptest.NewRecorder()}
	err := e.Render(w, http.StatusOK, "contact", "page", map[string]string{"Title": "x"}, CacheDefault)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitted)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRender_ErrorsBeforeCommitAreNotCommitted(t *testing.T) {
	e := New("")
	e.Mount("contact", compFS)

	_, err := render(t, e, "contact", "missing", nil)
	assert.NotErrorIs(t, err, ErrCommitted)
}
