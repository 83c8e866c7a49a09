// cmd/web/check.go
//
// `web check` runs one submit against the contact rules without a server
// and prints either the accepted snapshot or one “field: message” line per
// failing field.  Exit status is 1 when any field fails.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yanizio/contactform/internal/contact"
)

func newCheckCmd() *cobra.Command {
	var vals contact.Values

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate contact values and print the result",
		Example: `  web check --first-name Eddie --last-name Burke --email bluebill1049@hotmail.com
  web check --first-name Edd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.OutOrStdout(), vals)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&vals.FirstName, "first-name", "", "first name (required, at least 5 characters)")
	fl.StringVar(&vals.LastName, "last-name", "", "last name (required)")
	fl.StringVar(&vals.Email, "email", "", "email address (required)")
	fl.StringVar(&vals.Message, "message", "", "optional message")
	return cmd
}

func check(w io.Writer, vals contact.Values) error {
	f := contact.New()
	for _, field := range contact.Fields {
		f.Change(field, vals.Get(field))
	}

	if !f.Submit() {
		for _, field := range contact.Fields {
			if msg := f.Error(field); msg != "" {
				fmt.Fprintf(w, "%s: %s\n", field, msg)
			}
		}
		return errInvalid
	}

	v := contact.NewView(f)
	fmt.Fprintf(w, "firstName: %s\nlastName: %s\nemail: %s\n", v.FirstName, v.LastName, v.Email)
	if v.ShowMessage {
		fmt.Fprintf(w, "message: %s\n", v.Message)
	}
	return nil
}
