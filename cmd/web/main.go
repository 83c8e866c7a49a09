// cmd/web/main.go
//
// Contact form service – command-line entry point.
//
// Commands
// --------
//
//	web serve [--config conf/global.yaml]   run the HTTP service
//	web check --first-name … --email …      validate values offline
//
// Both commands share the validation rules in internal/contact, so
// `check` answers exactly what a submit would.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/yanizio/contactform/components/contact" // registers routes
)

// errInvalid signals a failed `check`; the field errors are already printed.
var errInvalid = errors.New("validation failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "web",
		Short:         "Contact form service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
