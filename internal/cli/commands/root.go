// Package commands implements the handc command-line interface.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitError carries the process exit code for the documented CLI contract:
// 0 success, 2 diagnostics or capability failure, 3 backend-unsupported
// subset.
type ExitError struct {
	Code int
	Msg  string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewRootCommand builds the handc root command.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "handc",
		Short: "HAND compiler toolchain",
		Long: `handc compiles HAND source files to Python, WebAssembly text, SQL or
HTML, with capability enforcement under a 1..4 supervision level, a reference
interpreter, a canonical formatter and a translation validator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewBuildCommand())
	root.AddCommand(NewRunCommand())
	root.AddCommand(NewFmtCommand())
	root.AddCommand(NewTranslateCommand())
	root.AddCommand(NewOracleCommand())
	root.AddCommand(NewLspCommand())
	root.AddCommand(NewVersionCommand(version))

	return root
}
