package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/cli/ui"
	"github.com/hand-lang/handc/internal/translate"
)

var (
	translateBase      string
	translateCandidate string
	translateJSON      bool
)

// NewTranslateCommand creates the translate command
func NewTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate --base base.hand --candidate candidate.hand",
		Short: "Validate that a translated source only edits permitted windows",
		Long: `Compare two HAND sources and verify that the candidate differs from the
base only inside the description block and in string literals marked by the
sentinel emoji 🌐. Any other divergence is reported with its span.`,
		RunE: runTranslate,
	}

	cmd.Flags().StringVar(&translateBase, "base", "", "Base source file")
	cmd.Flags().StringVar(&translateCandidate, "candidate", "", "Candidate (translated) source file")
	cmd.Flags().BoolVar(&translateJSON, "json", false, "Print violations as JSON")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}

func runTranslate(cmd *cobra.Command, args []string) error {
	base, err := os.ReadFile(translateBase)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}
	candidate, err := os.ReadFile(translateCandidate)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	violations := translate.Validate(string(base), string(candidate))
	if len(violations) == 0 {
		ui.Success(os.Stdout, "Translation accepted")
		return nil
	}

	if translateJSON {
		out, err := errors.FormatAsJSON(violations)
		if err == nil {
			fmt.Fprintln(os.Stdout, out)
		}
	} else {
		ui.WriteDiagnostics(os.Stderr, violations)
	}
	return &ExitError{Code: 2, Msg: fmt.Sprintf("%d violation(s)", len(violations))}
}
