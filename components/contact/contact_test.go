package contact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/view"
)

//
// harness
//

type visitor struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	token  string
}

func newVisitor(t *testing.T) *visitor {
	t.Helper()

	csrf, err := form.NewCSRF(bytes.Repeat([]byte("k"), 32), 0)
	require.NoError(t, err)

	store := session.New(session.Options{})
	t.Cleanup(func() { _ = store.Close() })

	c := &Comp{}
	require.NoError(t, c.Init(component.Env{
		Views:    view.New(""),
		Sessions: store,
		CSRF:     csrf,
	}))

	srv := httptest.NewServer(c.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &visitor{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// open loads the page and remembers its token.
func (v *visitor) open() *html.Node {
	v.t.Helper()
	resp, err := v.client.Get(v.srv.URL + "/contact")
	require.NoError(v.t, err)
	require.Equal(v.t, http.StatusOK, resp.StatusCode)
	return v.parse(resp)
}

func (v *visitor) parse(resp *http.Response) *html.Node {
	v.t.Helper()
	defer resp.Body.Close()
	doc, err := html.Parse(resp.Body)
	require.NoError(v.t, err)
	if in := find(doc, func(n *html.Node) bool {
		return n.Data == "input" && attr(n, "name") == form.CSRFField
	}); in != nil {
		v.token = attr(in, "value")
	}
	return doc
}

// submit posts the four fields and returns the status and page.
func (v *visitor) submit(first, last, email, msg string) (int, *html.Node) {
	v.t.Helper()
	resp, err := v.client.PostForm(v.srv.URL+"/contact", url.Values{
		"firstName":    {first},
		"lastName":     {last},
		"email":        {email},
		"message":      {msg},
		form.CSRFField: {v.token},
	})
	require.NoError(v.t, err)
	return resp.StatusCode, v.parse(resp)
}

func (v *visitor) change(field, value string) (int, fieldResult) {
	v.t.Helper()
	req, err := http.NewRequest(http.MethodPost, v.srv.URL+"/contact/field",
		strings.NewReader(url.Values{"field": {field}, "value": {value}}.Encode()))
	require.NoError(v.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(form.CSRFHeader, v.token)

	resp, err := v.client.Do(req)
	require.NoError(v.t, err)
	defer resp.Body.Close()

	var out fieldResult
	if resp.StatusCode == http.StatusOK {
		require.NoError(v.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

//
// DOM helpers
//

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	all := findAll(n, match)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func byTestID(doc *html.Node, id string) []*html.Node {
	return findAll(doc, func(n *html.Node) bool { return attr(n, "data-testid") == id })
}

// controlByLabel resolves a label (case-insensitive) to its control.
func controlByLabel(doc *html.Node, label string) *html.Node {
	lbl := find(doc, func(n *html.Node) bool {
		return n.Data == "label" && strings.EqualFold(text(n), label)
	})
	if lbl == nil {
		return nil
	}
	id := attr(lbl, "for")
	return find(doc, func(n *html.Node) bool { return attr(n, "id") == id && n.Data != "div" })
}

func errorTexts(doc *html.Node) []string {
	var out []string
	for _, n := range byTestID(doc, "error") {
		out = append(out, text(n))
	}
	return out
}

//
// tests
//

func TestRoot_RedirectsToContact(t *testing.T) {
	v := newVisitor(t)
	resp, err := v.client.Get(v.srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/contact", resp.Header.Get("Location"))
}

func TestPage_InitialMarkup(t *testing.T) {
	v := newVisitor(t)
	doc := v.open()

	h1 := find(doc, func(n *html.Node) bool { return n.Data == "h1" })
	require.NotNil(t, h1)
	assert.Equal(t, "Contact Form", text(h1))

	for label, tag := range map[string]string{
		"first name*": "input",
		"LAST NAME*":  "input",
		"Email*":      "input",
		"message":     "textarea",
	} {
		ctl := controlByLabel(doc, label)
		require.NotNil(t, ctl, label)
		assert.Equal(t, tag, ctl.Data, label)
	}

	buttons := findAll(doc, func(n *html.Node) bool { return n.Data == "button" })
	require.Len(t, buttons, 1)
	assert.Equal(t, "submit", attr(buttons[0], "type"))

	assert.Empty(t, byTestID(doc, "error"))
	assert.Empty(t, byTestID(doc, "submissionDisplay"))
	assert.NotEmpty(t, v.token)
	assert.Equal(t, "5000", attr(controlByLabel(doc, "Message"), "maxlength"))
}

func TestSubmit_EmptyShowsThreeErrors(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, doc := v.submit("", "", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{
		"firstName is a required field",
		"lastName is a required field",
		"email is a required field",
	}, errorTexts(doc))
	assert.Empty(t, byTestID(doc, "submissionDisplay"))
}

func TestSubmit_ShortFirstName(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, doc := v.submit("Edd", "Burke", "bluebill1049@hotmail.com", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"firstName must be at least 5 characters"}, errorTexts(doc))

	// The rejected values stay in the inputs.
	assert.Equal(t, "Edd", attr(controlByLabel(doc, "First Name*"), "value"))
}

func TestSubmit_ValidWithoutMessage(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, doc := v.submit("Eddie", "Burke", "bluebill1049@hotmail.com", "   ")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, byTestID(doc, "error"))

	require.Len(t, byTestID(doc, "submissionDisplay"), 1)
	assert.Equal(t, "Eddie", text(byTestID(doc, "firstnameDisplay")[0]))
	assert.Equal(t, "Burke", text(byTestID(doc, "lastnameDisplay")[0]))
	assert.Equal(t, "bluebill1049@hotmail.com", text(byTestID(doc, "emailDisplay")[0]))
	assert.Empty(t, byTestID(doc, "messageDisplay"))
}

func TestSubmit_ValidWithMessage(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, doc := v.submit("Eddie", "Burke", "bluebill1049@hotmail.com", "Hello <there>")
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, byTestID(doc, "messageDisplay"), 1)
	assert.Equal(t, "Hello <there>", text(byTestID(doc, "messageDisplay")[0]))
}

func TestSubmit_InvalidKeepsPreviousSnapshot(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, _ := v.submit("Eddie", "Burke", "bluebill1049@hotmail.com", "")
	require.Equal(t, http.StatusOK, status)

	status, doc := v.submit("Eddie", "", "bluebill1049@hotmail.com", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"lastName is a required field"}, errorTexts(doc))

	require.Len(t, byTestID(doc, "lastnameDisplay"), 1)
	assert.Equal(t, "Burke", text(byTestID(doc, "lastnameDisplay")[0]))
}

func TestSubmit_BadToken(t *testing.T) {
	v := newVisitor(t)
	v.open()
	v.token = "forged"

	resp, err := v.client.PostForm(v.srv.URL+"/contact", url.Values{
		"firstName":    {"Eddie"},
		form.CSRFField: {v.token},
	})
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessions_AreIsolated(t *testing.T) {
	a := newVisitor(t)
	a.open()
	status, _ := a.submit("Eddie", "Burke", "bluebill1049@hotmail.com", "")
	require.Equal(t, http.StatusOK, status)

	// Second visitor on the same server, fresh cookie jar.
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &visitor{t: t, srv: a.srv, client: &http.Client{Jar: jar}}
	doc := b.open()
	assert.Empty(t, byTestID(doc, "submissionDisplay"))
}

func TestField_LiveValidation(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, res := v.change("firstName", "Edd")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fieldResult{
		Field: "firstName",
		Error: "firstName must be at least 5 characters",
	}, res)

	status, res = v.change("firstName", "Eddie")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error)

	// Changes persist in the session and show on the next render.
	v.change("email", "nope")
	doc := v.open()
	assert.Equal(t, "Eddie", attr(controlByLabel(doc, "First Name*"), "value"))
	assert.Equal(t, []string{"email must be a valid email address"}, errorTexts(doc))
}

func TestField_Rejections(t *testing.T) {
	v := newVisitor(t)
	v.open()

	status, _ := v.change("phone", "123")
	assert.Equal(t, http.StatusBadRequest, status)

	v.token = ""
	status, _ = v.change("firstName", "Eddie")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestStatic_Script(t *testing.T) {
	v := newVisitor(t)
	resp, err := v.client.Get(v.srv.URL + "/static/contact.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/contact/field")
}

func TestStatic_Stylesheet(t *testing.T) {
	v := newVisitor(t)
	doc := v.open()

	link := find(doc, func(n *html.Node) bool { return n.Data == "link" && attr(n, "rel") == "stylesheet" })
	require.NotNil(t, link)

	resp, err := v.client.Get(v.srv.URL + attr(link, "href"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

func TestStatic_ScriptRendersOnlyNewestReply(t *testing.T) {
	v := newVisitor(t)
	resp, err := v.client.Get(v.srv.URL + "/static/contact.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	// One request per field in flight; replies for superseded values are
	// dropped and the newest value is resent.
	assert.Contains(t, string(body), "st.dirty = true")
	assert.Contains(t, string(body), "if (data && !st.dirty)")
}

func TestSubmit_OversizedBody(t *testing.T) {
	v := newVisitor(t)
	v.open()

	resp, err := v.client.PostForm(v.srv.URL+"/contact", url.Values{
		"firstName":    {"Eddie"},
		"lastName":     {"Burke"},
		"email":        {"bluebill1049@hotmail.com"},
		"message":      {strings.Repeat("9", form.MaxBodyBytes+1024)},
		form.CSRFField: {v.token},
	})
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nothing from the oversized body reached the session.
	doc := v.open()
	assert.Empty(t, byTestID(doc, "submissionDisplay"))
	assert.Empty(t, attr(controlByLabel(doc, "First Name*"), "value"))
}

func TestSubmit_TokenFromOtherSession(t *testing.T) {
	a := newVisitor(t)
	a.open()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &visitor{t: t, srv: a.srv, client: &http.Client{Jar: jar}}
	b.open()
	b.token = a.token

	resp, err := b.client.PostForm(b.srv.URL+"/contact", url.Values{
		"firstName":    {"Eddie"},
		"lastName":     {"Burke"},
		"email":        {"bluebill1049@hotmail.com"},
		form.CSRFField: {b.token},
	})
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFail_CommittedResponseIsLeftAlone(t *testing.T) {
	c := &Comp{}
	w := httptest.NewRecorder()
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "<html>partial")

	r := httptest.NewRequest(http.MethodGet, "/contact", nil)
	c.fail(w, r, fmt.Errorf("%w: write: broken pipe", view.ErrCommitted))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>partial", w.Body.String())
}
