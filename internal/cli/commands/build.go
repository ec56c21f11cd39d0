package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/cli/config"
	"github.com/hand-lang/handc/internal/cli/ui"
	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/capability"
	"github.com/hand-lang/handc/internal/compiler/codegen"
	"github.com/hand-lang/handc/internal/compiler/ir"
	"github.com/hand-lang/handc/internal/compiler/pipeline"
	"github.com/hand-lang/handc/internal/report"
)

// artifactNames maps targets to their deterministic artifact file names.
var artifactNames = map[string]string{
	"python": "main.py",
	"wasm":   "main.wat",
	"sql":    "main.sql",
	"html":   "index.html",
}

var (
	buildTarget      string
	buildOut         string
	buildLevel       int
	buildEmitIR      bool
	buildEmitAST     bool
	buildJSONDiags   bool
	buildVerbose     bool
	buildInteractive bool
	buildFnScope     bool
	buildApprovals   []string
)

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <file.hand>",
		Short: "Compile a HAND source file to the selected target",
		Long: `Compile one HAND source file through the full pipeline:

  1. Lexical analysis with layout (INDENT/DEDENT)
  2. Parsing
  3. Flow-sensitive type checking
  4. Lowering to HAND-IR v0.1
  5. Capability enforcement under the supervision level
  6. Code generation for the selected target

A build_report.json is written to the output directory on every run.`,
		Example: `  # Compile to an executable Python program
  handc build examples/hello.hand --target python

  # Compile the pure subset to WebAssembly text at level 1
  handc build examples/add.hand --target wasm --level 1

  # Emit the IR and AST dumps alongside the artifact
  handc build examples/hello.hand --target python --emit-ir --emit-ast`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}

	cmd.Flags().StringVar(&buildTarget, "target", "", "Target backend: python, wasm, sql or html")
	cmd.Flags().StringVar(&buildOut, "out", "", "Output directory (default dist)")
	cmd.Flags().IntVar(&buildLevel, "level", 0, "Supervision level 1..4 (default 2)")
	cmd.Flags().BoolVar(&buildEmitIR, "emit-ir", false, "Write ir.json next to the artifact")
	cmd.Flags().BoolVar(&buildEmitAST, "emit-ast", false, "Write ast.json next to the artifact")
	cmd.Flags().BoolVar(&buildJSONDiags, "json-diagnostics", false, "Print diagnostics as JSON")
	cmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Show detailed build output")
	cmd.Flags().BoolVar(&buildInteractive, "interactive", false, "Prompt to grant approval-gated capabilities")
	cmd.Flags().BoolVar(&buildFnScope, "function-scope", false, "Enforce capabilities per function as well")
	cmd.Flags().StringSliceVar(&buildApprovals, "approve", nil, "Pre-approved capabilities (repeatable)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	file := args[0]

	logger := zap.NewNop()
	if buildVerbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	defer logger.Sync()

	if _, ok := artifactNames[buildTarget]; !ok {
		return fmt.Errorf("unknown target %q (want python, wasm, sql or html)", buildTarget)
	}

	cfg, err := config.Load()
	if err != nil {
		if buildVerbose {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		cfg = &config.Config{}
	}

	outDir := buildOut
	if outDir == "" {
		outDir = cfg.Build.Out
	}
	if outDir == "" {
		outDir = "dist"
	}
	level := buildLevel
	if level == 0 {
		level = cfg.Build.Level
	}
	if level == 0 {
		level = 2
	}

	approvals := map[string]bool{}
	for _, c := range cfg.Approvals {
		approvals[c] = true
	}
	for _, c := range buildApprovals {
		approvals[c] = true
	}

	rep := report.New(file, buildTarget, outDir, level)
	defer func() {
		if r := recover(); r != nil {
			rep.Status = "error"
			rep.Diagnostics = append(rep.Diagnostics, errors.Diagnostic{
				Phase:    "internal",
				Code:     errors.ErrInternal,
				Message:  fmt.Sprintf("internal error: %v", r),
				Severity: errors.Fatal,
			})
			_ = rep.Write(outDir)
			panic(r)
		}
	}()

	source, err := os.ReadFile(file)
	if err != nil {
		rep.Status = "error"
		rep.Diagnostics = append(rep.Diagnostics, errors.Diagnostic{
			Phase:    "internal",
			Code:     errors.ErrInternal,
			Message:  fmt.Sprintf("failed to read %s: %v", file, err),
			Severity: errors.Fatal,
		})
		_ = rep.Write(outDir)
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	logger.Info("compiling", zap.String("file", file), zap.Int("level", level))

	res := pipeline.Compile(string(source), file, pipeline.Options{Level: 0})
	rep.Diagnostics = append(rep.Diagnostics, res.Diagnostics...)

	if res.Failed() || res.Doc == nil {
		rep.Status = "error"
		_ = rep.Write(outDir)
		emitDiagnostics(rep.Diagnostics)
		return &ExitError{Code: 2, Msg: "compilation failed"}
	}

	scope := capability.ScopeModule
	if buildFnScope {
		scope = capability.ScopeFunction
	}

	verdict := capability.Enforce(res.Doc, level, approvals, scope)
	verdict = maybePromptApprovals(verdict, res.Doc, level, approvals, scope)
	fillCapabilities(rep, verdict)

	if !verdict.OK() {
		rep.Status = "error"
		rep.Diagnostics = append(rep.Diagnostics, *verdict.Violation)
		_ = rep.Write(outDir)
		emitDiagnostics(rep.Diagnostics)
		return &ExitError{Code: 2, Msg: verdict.Violation.Message}
	}

	logger.Info("generating", zap.String("target", buildTarget))
	artifact, notes, genErr := generate(buildTarget, res.Doc)
	if genErr != nil {
		if be, ok := genErr.(*codegen.BackendError); ok {
			rep.Status = "error"
			rep.Diagnostics = append(rep.Diagnostics, be.Diagnostic())
			rep.Degradations = append(rep.Degradations, be.Note)
			_ = rep.Write(outDir)
			emitDiagnostics(rep.Diagnostics)
			return &ExitError{Code: 3, Msg: be.Error()}
		}
		rep.Status = "error"
		rep.Diagnostics = append(rep.Diagnostics, errors.Diagnostic{
			Phase:    "internal",
			Code:     errors.ErrInternal,
			Message:  genErr.Error(),
			Severity: errors.Fatal,
		})
		_ = rep.Write(outDir)
		return &ExitError{Code: 2, Msg: genErr.Error()}
	}
	codegen.SortNotes(notes)
	rep.Degradations = append(rep.Degradations, notes...)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	artifactName := artifactNames[buildTarget]
	if err := os.WriteFile(filepath.Join(outDir, artifactName), []byte(artifact), 0644); err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}
	rep.Artifacts.Outputs = append(rep.Artifacts.Outputs, artifactName)

	if buildEmitIR {
		data, err := ir.Marshal(res.Doc)
		if err == nil {
			err = os.WriteFile(filepath.Join(outDir, "ir.json"), data, 0644)
		}
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}
		rep.Artifacts.EmittedIR = true
		rep.Artifacts.Outputs = append(rep.Artifacts.Outputs, "ir.json")
	}

	if buildEmitAST {
		data, err := ast.ToJSON(res.Program)
		if err == nil {
			err = os.WriteFile(filepath.Join(outDir, "ast.json"), data, 0644)
		}
		if err != nil {
			return &ExitError{Code: 2, Msg: err.Error()}
		}
		rep.Artifacts.EmittedAST = true
		rep.Artifacts.Outputs = append(rep.Artifacts.Outputs, "ast.json")
	}

	if err := rep.Write(outDir); err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	if !buildJSONDiags {
		ui.Success(os.Stdout, "Build successful")
		ui.Info(os.Stdout, "  Artifact: %s", filepath.Join(outDir, artifactName))
	}
	return nil
}

func generate(target string, doc *ir.IR) (string, []codegen.Note, error) {
	switch target {
	case "python":
		return codegen.GenPython(doc)
	case "wasm":
		return codegen.GenWat(doc)
	case "sql":
		return codegen.GenSQL(doc)
	case "html":
		return codegen.GenHTML(doc)
	}
	return "", nil, fmt.Errorf("unknown target %q", target)
}

// maybePromptApprovals asks the user to grant approval-gated capabilities
// when --interactive is set, then re-runs enforcement with the grants.
func maybePromptApprovals(verdict *capability.Verdict, doc *ir.IR, level int, approvals map[string]bool, scope capability.Scope) *capability.Verdict {
	if verdict.OK() || !buildInteractive {
		return verdict
	}
	if verdict.Violation.Code != errors.ErrCapNeedApproval {
		return verdict
	}

	granted := false
	for _, cap := range verdict.ApprovalsNeeded {
		confirm := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Capability '%s' requires approval at level %d. Grant it?", cap, level),
		}
		if err := survey.AskOne(prompt, &confirm); err != nil || !confirm {
			return verdict
		}
		approvals[cap] = true
		granted = true
	}

	if !granted {
		return verdict
	}
	return capability.Enforce(doc, level, approvals, scope)
}

func fillCapabilities(rep *report.Report, verdict *capability.Verdict) {
	rep.Capabilities.Declared = orEmpty(verdict.Declared)
	rep.Capabilities.Required = orEmpty(verdict.Required)
	rep.Capabilities.Missing = orEmpty(verdict.Missing)
	rep.Capabilities.ApprovalsNeeded = orEmpty(verdict.ApprovalsNeeded)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emitDiagnostics(diags []errors.Diagnostic) {
	if buildJSONDiags {
		if out, err := errors.FormatAsJSON(diags); err == nil {
			fmt.Fprintln(os.Stdout, out)
		}
		return
	}
	ui.WriteDiagnostics(os.Stderr, diags)
}
