package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/cli/config"
	"github.com/hand-lang/handc/internal/cli/ui"
	"github.com/hand-lang/handc/internal/compiler/capability"
	"github.com/hand-lang/handc/internal/compiler/interp"
	"github.com/hand-lang/handc/internal/compiler/pipeline"
)

var (
	runLevel     int
	runInputs    string
	runTracePath string
	runApprovals []string
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.hand>",
		Short: "Compile and execute with the reference interpreter",
		Long: `Compile a HAND source file, enforce capabilities, and execute it with the
reference interpreter. Each value shown by the program is printed on its own
line.`,
		Example: `  # Run with two queued inputs for ask()
  handc run prog.hand --inputs '["a", "b"]' --approve io.read

  # Write the execution trace for inspection
  handc run prog.hand --trace trace.json`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().IntVar(&runLevel, "level", 0, "Supervision level 1..4 (default 2)")
	cmd.Flags().StringVar(&runInputs, "inputs", "[]", "JSON list of inputs consumed by ask()")
	cmd.Flags().StringVar(&runTracePath, "trace", "", "Write the execution trace to this file")
	cmd.Flags().StringSliceVar(&runApprovals, "approve", nil, "Pre-approved capabilities (repeatable)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}
	level := runLevel
	if level == 0 {
		level = cfg.Build.Level
	}
	if level == 0 {
		level = 2
	}

	var inputs []string
	if err := json.Unmarshal([]byte(runInputs), &inputs); err != nil {
		return fmt.Errorf("--inputs must be a JSON list of strings: %w", err)
	}

	approvals := map[string]bool{}
	for _, c := range cfg.Approvals {
		approvals[c] = true
	}
	for _, c := range runApprovals {
		approvals[c] = true
	}

	source, err := os.ReadFile(file)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	res := pipeline.Compile(string(source), file, pipeline.Options{
		Level:     level,
		Approvals: approvals,
		Scope:     capability.ScopeModule,
	})
	if res.Failed() {
		ui.WriteDiagnostics(os.Stderr, res.Diagnostics)
		return &ExitError{Code: 2, Msg: "compilation failed"}
	}

	result := interp.Run(res.Program, interp.Options{Inputs: inputs})

	for _, out := range result.Outputs {
		fmt.Fprintln(os.Stdout, out)
	}

	if runTracePath != "" {
		data, err := interp.MarshalTrace(result.Trace)
		if err == nil {
			err = os.WriteFile(runTracePath, data, 0644)
		}
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}
	}

	if result.Diag != nil {
		ui.WriteDiagnostics(os.Stderr, []errors.Diagnostic{*result.Diag})
		return &ExitError{Code: 2, Msg: result.Diag.Message}
	}

	return nil
}
