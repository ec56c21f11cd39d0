// Package oracle checks observational equivalence between the reference
// interpreter and the Python backend's generated program. The generated
// program runs in an isolated OS process and communicates only via JSON on
// standard output; the two sides share no memory.
//
// Other backends are not executed: they are determinism-checked (generated
// twice, compared byte for byte) and reported as degraded.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hand-lang/handc/internal/compiler/codegen"
	"github.com/hand-lang/handc/internal/compiler/interp"
	"github.com/hand-lang/handc/internal/compiler/ir"
	"github.com/hand-lang/handc/internal/compiler/pipeline"
)

// DefaultTimeout bounds one generated-program run. Documented default: 10s.
const DefaultTimeout = 10 * time.Second

// Options configures an oracle run.
type Options struct {
	Timeout   time.Duration
	PythonBin string // default "python3"
	Logger    *zap.Logger
}

// TargetResult is one backend's verdict for a case.
type TargetResult struct {
	Target string `json:"target"`
	Status string `json:"status"` // "pass" | "fail" | "degraded" | "error"
	Detail string `json:"detail,omitempty"`
}

// CaseReport is the oracle's verdict for one program + inputs pair.
type CaseReport struct {
	Status  string         `json:"status"` // "ok" | "error"
	Results []TargetResult `json:"results"`
}

// generatedOutput is the JSON document the generated program prints.
type generatedOutput struct {
	Outputs []string          `json:"outputs"`
	Store   map[string]string `json:"store"`
}

// Run compiles the source and compares each requested target against the
// reference interpreter.
func Run(source, file string, inputs []string, targets []string, opts Options) *CaseReport {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PythonBin == "" {
		opts.PythonBin = "python3"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rep := &CaseReport{Status: "ok", Results: make([]TargetResult, 0, len(targets))}

	cres := pipeline.Compile(source, file, pipeline.Options{Level: 0})
	if cres.Failed() || cres.Doc == nil {
		rep.Status = "error"
		detail := "compilation failed"
		if len(cres.Diagnostics) > 0 {
			detail = cres.Diagnostics[0].Error()
		}
		for _, t := range targets {
			rep.Results = append(rep.Results, TargetResult{Target: t, Status: "error", Detail: detail})
		}
		return rep
	}
	doc := cres.Doc

	res := interp.Run(cres.Program, interp.Options{Inputs: inputs})
	if res.Diag != nil {
		rep.Status = "error"
		for _, t := range targets {
			rep.Results = append(rep.Results, TargetResult{
				Target: t, Status: "error", Detail: res.Diag.Error(),
			})
		}
		return rep
	}

	refStore := map[string]string{}
	for name, v := range res.Store {
		refStore[name] = v.Render()
	}

	for _, target := range targets {
		var tr TargetResult
		switch target {
		case "python":
			tr = runPython(doc, inputs, res.Outputs, refStore, opts)
		default:
			tr = checkDeterminism(doc, target)
		}
		rep.Results = append(rep.Results, tr)
		if tr.Status == "fail" || tr.Status == "error" {
			rep.Status = "error"
		}
	}
	return rep
}

// runPython generates the Python artifact, executes it in a subprocess, and
// compares Ω and Σ structurally.
func runPython(doc *ir.IR, inputs, refOutputs []string, refStore map[string]string, opts Options) TargetResult {
	code, _, err := codegen.GenPython(doc)
	if err != nil {
		return TargetResult{Target: "python", Status: "error", Detail: err.Error()}
	}

	dir := filepath.Join(os.TempDir(), "handc-oracle-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return TargetResult{Target: "python", Status: "error", Detail: err.Error()}
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "main.py")
	if err := os.WriteFile(script, []byte(code), 0644); err != nil {
		return TargetResult{Target: "python", Status: "error", Detail: err.Error()}
	}

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return TargetResult{Target: "python", Status: "error", Detail: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, opts.PythonBin, script, string(inputsJSON))
	stdout, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return TargetResult{Target: "python", Status: "error", Detail: "generated program timed out"}
	}
	if err != nil {
		return TargetResult{Target: "python", Status: "error",
			Detail: fmt.Sprintf("generated program failed: %v", err)}
	}

	var gen generatedOutput
	if err := json.Unmarshal(stdout, &gen); err != nil {
		return TargetResult{Target: "python", Status: "error",
			Detail: fmt.Sprintf("generated program produced invalid JSON: %v", err)}
	}

	if !stringSlicesEqual(refOutputs, gen.Outputs) {
		opts.Logger.Info("omega mismatch",
			zap.Strings("ref", refOutputs), zap.Strings("gen", gen.Outputs))
		return TargetResult{Target: "python", Status: "fail",
			Detail: fmt.Sprintf("Ω mismatch: ref %v, gen %v", refOutputs, gen.Outputs)}
	}
	if !stringMapsEqual(refStore, gen.Store) {
		return TargetResult{Target: "python", Status: "fail",
			Detail: fmt.Sprintf("Σ mismatch: ref %v, gen %v", refStore, gen.Store)}
	}

	return TargetResult{Target: "python", Status: "pass"}
}

// checkDeterminism generates a non-executable target twice and compares the
// bytes; equal output downgrades to "degraded", anything else is an error.
func checkDeterminism(doc *ir.IR, target string) TargetResult {
	gen := func() (string, error) {
		switch target {
		case "wasm":
			text, _, err := codegen.GenWat(doc)
			return text, err
		case "sql":
			text, _, err := codegen.GenSQL(doc)
			return text, err
		case "html":
			text, _, err := codegen.GenHTML(doc)
			return text, err
		default:
			return "", fmt.Errorf("unknown target %q", target)
		}
	}

	first, err := gen()
	if err != nil {
		return TargetResult{Target: target, Status: "error", Detail: err.Error()}
	}
	second, err := gen()
	if err != nil {
		return TargetResult{Target: target, Status: "error", Detail: err.Error()}
	}
	if first != second {
		return TargetResult{Target: target, Status: "fail", Detail: "nondeterministic output"}
	}
	return TargetResult{Target: target, Status: "degraded",
		Detail: "determinism-checked but not executed"}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringMapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
