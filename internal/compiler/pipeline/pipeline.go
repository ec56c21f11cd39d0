// Package pipeline runs the HAND compilation stages in order: lex, parse,
// typecheck, lower, enforce. Each stage consumes the previous stage's output
// and either produces the next or a diagnostic list; data flows strictly one
// way and diagnostics are append-only.
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/capability"
	"github.com/hand-lang/handc/internal/compiler/ir"
	"github.com/hand-lang/handc/internal/compiler/lexer"
	"github.com/hand-lang/handc/internal/compiler/lowering"
	"github.com/hand-lang/handc/internal/compiler/parser"
	"github.com/hand-lang/handc/internal/compiler/typechecker"
)

// Options configures a compilation.
type Options struct {
	ModuleName string // default: file base name without extension
	Level      int    // supervision level 1..4; 0 skips enforcement
	Approvals  map[string]bool
	Scope      capability.Scope
}

// Result carries every stage product that was reached plus the accumulated
// diagnostics.
type Result struct {
	File        string
	Tokens      []lexer.Token
	Program     *ast.Program
	Doc         *ir.IR
	Verdict     *capability.Verdict
	Diagnostics []errors.Diagnostic
}

// Failed reports whether any diagnostic is an error or fatal.
func (r *Result) Failed() bool {
	return errors.HasErrors(r.Diagnostics)
}

// ModuleNameFor derives a module name from a file path.
func ModuleNameFor(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Compile runs the pipeline over one source text. A stage with error
// diagnostics stops the pipeline before the next stage runs.
func Compile(source, file string, opts Options) *Result {
	res := &Result{File: file}
	if opts.ModuleName == "" {
		opts.ModuleName = ModuleNameFor(file)
	}
	if opts.Scope == "" {
		opts.Scope = capability.ScopeModule
	}

	lex := lexer.New(source, file)
	tokens, lexDiags := lex.ScanTokens()
	res.Tokens = tokens
	res.Diagnostics = append(res.Diagnostics, lexDiags...)

	p := parser.New(tokens)
	program, parseErrs := p.Parse()
	res.Program = program
	res.Diagnostics = append(res.Diagnostics, parser.Diagnostics(parseErrs)...)

	if errors.HasErrors(res.Diagnostics) {
		return res
	}

	tc := typechecker.New()
	res.Diagnostics = append(res.Diagnostics, tc.Check(program)...)
	if errors.HasErrors(res.Diagnostics) {
		return res
	}

	res.Doc = lowering.Lower(program, opts.ModuleName)

	if opts.Level > 0 {
		res.Verdict = capability.Enforce(res.Doc, opts.Level, opts.Approvals, opts.Scope)
		if !res.Verdict.OK() {
			res.Diagnostics = append(res.Diagnostics, *res.Verdict.Violation)
		}
	}

	return res
}

// Lower compiles up to IR without capability enforcement.
func Lower(source, file string) (*ir.IR, []errors.Diagnostic) {
	res := Compile(source, file, Options{Level: 0})
	return res.Doc, res.Diagnostics
}
