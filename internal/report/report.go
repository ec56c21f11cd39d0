// Package report assembles and writes build_report.json. The report is
// written on every run, including crashes, with the stable 0.1 shape.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/codegen"
)

// SchemaVersion is the report schema version.
const SchemaVersion = "0.1"

// Input describes the compiled source.
type Input struct {
	Path string `json:"path"`
}

// Artifacts describes what the build produced.
type Artifacts struct {
	Target     string   `json:"target"`
	OutDir     string   `json:"out_dir"`
	Outputs    []string `json:"outputs"`
	EmittedIR  bool     `json:"emitted_ir,omitempty"`
	EmittedAST bool     `json:"emitted_ast,omitempty"`
}

// Capabilities summarizes the enforcement verdict.
type Capabilities struct {
	SupervisionLevel int      `json:"supervision_level"`
	Declared         []string `json:"declared"`
	Required         []string `json:"required"`
	Missing          []string `json:"missing"`
	ApprovalsNeeded  []string `json:"approvals_needed"`
}

// Report is the build_report.json document.
type Report struct {
	SchemaVersion string              `json:"schema_version"`
	Status        string              `json:"status"`
	Input         Input               `json:"input"`
	Artifacts     Artifacts           `json:"artifacts"`
	Capabilities  Capabilities        `json:"capabilities"`
	Diagnostics   []errors.Diagnostic `json:"diagnostics"`
	Degradations  []codegen.Note      `json:"degradations"`
}

// New creates a report with empty, non-nil collections.
func New(inputPath, target, outDir string, level int) *Report {
	return &Report{
		SchemaVersion: SchemaVersion,
		Status:        "ok",
		Input:         Input{Path: inputPath},
		Artifacts: Artifacts{
			Target:  target,
			OutDir:  outDir,
			Outputs: []string{},
		},
		Capabilities: Capabilities{
			SupervisionLevel: level,
			Declared:         []string{},
			Required:         []string{},
			Missing:          []string{},
			ApprovalsNeeded:  []string{},
		},
		Diagnostics:  []errors.Diagnostic{},
		Degradations: []codegen.Note{},
	}
}

// Write serializes the report to <dir>/build_report.json as a whole-file,
// deterministic write.
func (r *Report) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(dir, "build_report.json"), data, 0644)
}
