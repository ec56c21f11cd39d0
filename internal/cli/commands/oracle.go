package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hand-lang/handc/internal/cli/config"
	"github.com/hand-lang/handc/internal/oracle"
)

var (
	oracleTargets []string
	oracleInputs  string
	oracleOut     string
	oracleVerbose bool
)

// NewOracleCommand creates the oracle command
func NewOracleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oracle <file.hand>",
		Short: "Check observational equivalence between interpreter and backends",
		Long: `Run the reference interpreter and the generated Python program over the
same inputs and compare Ω (outputs) and Σ (final top-level store). Targets
without an executable form are determinism-checked and reported as degraded.`,
		Example: `  # Compare the python backend against the interpreter
  handc oracle prog.hand --targets python --inputs '["hola"]'

  # Determinism-check every backend
  handc oracle prog.hand --targets python,wasm,sql,html`,
		Args: cobra.ExactArgs(1),
		RunE: runOracle,
	}

	cmd.Flags().StringSliceVar(&oracleTargets, "targets", []string{"python"}, "Targets to compare")
	cmd.Flags().StringVar(&oracleInputs, "inputs", "[]", "JSON list of inputs consumed by ask()")
	cmd.Flags().StringVar(&oracleOut, "out", "", "Write the JSON report to this file")
	cmd.Flags().BoolVarP(&oracleVerbose, "verbose", "v", false, "Log mismatches")

	return cmd
}

func runOracle(cmd *cobra.Command, args []string) error {
	file := args[0]

	var inputs []string
	if err := json.Unmarshal([]byte(oracleInputs), &inputs); err != nil {
		return fmt.Errorf("--inputs must be a JSON list of strings: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}

	logger := zap.NewNop()
	if oracleVerbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	defer logger.Sync()

	source, err := os.ReadFile(file)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	rep := oracle.Run(string(source), file, inputs, oracleTargets, oracle.Options{
		Timeout:   time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		PythonBin: cfg.Oracle.Python,
		Logger:    logger,
	})

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}
	data = append(data, '\n')

	if oracleOut != "" {
		if err := os.WriteFile(oracleOut, data, 0644); err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}
	}
	fmt.Fprint(os.Stdout, string(data))

	if rep.Status != "ok" {
		return &ExitError{Code: 2, Msg: "equivalence check failed"}
	}
	return nil
}
