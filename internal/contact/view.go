// internal/contact/view.go
//
// Read-only projection of the last valid submission for templates.

package contact

import "strings"

// View is what the results region renders.  Visible is false until the
// form has a snapshot.  ShowMessage is false when the message was blank,
// in which case no message element is rendered at all.
type View struct {
	Visible     bool
	FirstName   string
	LastName    string
	Email       string
	Message     string
	ShowMessage bool
}

// NewView derives the results region from f.
func NewView(f *Form) View {
	s, ok := f.Snapshot()
	if !ok {
		return View{}
	}
	return View{
		Visible:     true,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Message:     s.Message,
		ShowMessage: strings.TrimSpace(s.Message) != "",
	}
}
