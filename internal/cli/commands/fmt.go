package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hand-lang/handc/internal/cli/ui"
	"github.com/hand-lang/handc/internal/compiler/format"
	"github.com/hand-lang/handc/internal/compiler/pipeline"
)

var fmtCheck bool

// NewFmtCommand creates the fmt command
func NewFmtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt <file.hand>...",
		Short: "Format HAND source files canonically",
		Long: `Rewrite HAND source files in canonical form. Formatting is stable: parsing
the formatted output yields a structurally identical AST.`,
		Example: `  # Format in place
  handc fmt prog.hand

  # Check only; exit non-zero when a file would change
  handc fmt prog.hand --check`,
		Args: cobra.MinimumNArgs(1),
		RunE: runFmt,
	}

	cmd.Flags().BoolVar(&fmtCheck, "check", false, "Do not write; exit non-zero if changes would be made")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	changed := 0

	for _, file := range args {
		source, err := os.ReadFile(file)
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}

		res := pipeline.Compile(string(source), file, pipeline.Options{Level: 0})
		if res.Failed() {
			ui.WriteDiagnostics(os.Stderr, res.Diagnostics)
			return &ExitError{Code: 2, Msg: fmt.Sprintf("%s has syntax errors", file)}
		}

		formatted := format.Program(res.Program)
		if formatted == string(source) {
			continue
		}
		changed++

		if fmtCheck {
			continue
		}
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}
	}

	if fmtCheck && changed > 0 {
		fmt.Fprintf(os.Stdout, "handc fmt: %d file(s) would change\n", changed)
		return &ExitError{Code: 2, Msg: "files would change"}
	}
	return nil
}
