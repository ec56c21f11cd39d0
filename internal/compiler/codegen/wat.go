package codegen

import (
	"fmt"
	"strings"

	"github.com/hand-lang/handc/internal/compiler/ir"
)

// WatGenerator emits a WebAssembly text module from the pure IR subset:
// functions over Int/Bool (both i32), arithmetic and comparison, if/while,
// and calls to module-defined functions. Top-level statements, IO, verify,
// and any non-i32 type are refused with a WASM-coded error.
type WatGenerator struct {
	fnNames map[string]bool
}

// NewWatGenerator creates a WAT backend instance.
func NewWatGenerator() *WatGenerator {
	return &WatGenerator{fnNames: map[string]bool{}}
}

// GenWat is a convenience wrapper around WatGenerator.Generate.
func GenWat(doc *ir.IR) (string, []Note, error) {
	return NewWatGenerator().Generate(doc)
}

// fnCtx tracks the locals of one function; every HAND variable becomes an
// i32 local.
type fnCtx struct {
	locals     []string
	varToLocal map[string]string
}

func newFnCtx(params []*ir.Param) *fnCtx {
	ctx := &fnCtx{varToLocal: map[string]string{}}
	for _, p := range params {
		ctx.varToLocal[p.Name] = "$" + p.Name
	}
	return ctx
}

func (c *fnCtx) ensureLocal(name string) string {
	if sym, ok := c.varToLocal[name]; ok {
		return sym
	}
	sym := "$" + name
	c.locals = append(c.locals, sym)
	c.varToLocal[name] = sym
	return sym
}

// Generate emits the module text.
func (g *WatGenerator) Generate(doc *ir.IR) (string, []Note, error) {
	if doc.IRVersion != ir.Version {
		return "", nil, backendErr("WASM-0001",
			fmt.Sprintf("Unsupported IR version %q.", doc.IRVersion), doc.Origin.Ref)
	}
	if err := g.requirePureSubset(doc); err != nil {
		return "", nil, err
	}

	mod := doc.Module
	for _, fn := range mod.Functions {
		g.fnNames[fn.Name] = true
	}

	var lines []string
	emit := func(s string) { lines = append(lines, s) }

	emit("(module")
	emit(`  (memory (export "memory") 1) ;; reserved (unused in pure subset)`)
	emit("")

	for _, fn := range mod.Functions {
		for _, p := range fn.Params {
			if err := ensureI32(p.Type, p.Origin.Ref); err != nil {
				return "", nil, err
			}
		}
		if err := ensureI32(fn.RetType, fn.Origin.Ref); err != nil {
			return "", nil, err
		}

		ctx := newFnCtx(fn.Params)
		scanLocals(ctx, fn.Body)

		header := fmt.Sprintf("  (func $%s ", fn.Name)
		parts := make([]string, 0, len(fn.Params))
		for _, p := range fn.Params {
			parts = append(parts, fmt.Sprintf("(param $%s i32)", p.Name))
		}
		header += strings.Join(parts, " ")
		if len(parts) > 0 {
			header += " "
		}
		header += "(result i32)"
		emit(header)

		for _, loc := range ctx.locals {
			emit(fmt.Sprintf("    (local %s i32)", loc))
		}

		if len(fn.Body) == 0 {
			emit("    i32.const 0")
			emit("    return")
		} else {
			for _, st := range fn.Body {
				insts, err := g.stmt(ctx, st)
				if err != nil {
					return "", nil, err
				}
				for _, inst := range insts {
					emit("    " + inst)
				}
			}
			emit("    i32.const 0")
			emit("    return")
		}
		emit("  )")
		emit(fmt.Sprintf("  (export %q (func $%s))", fn.Name, fn.Name))
		emit("")
	}

	emit(")")
	return strings.Join(lines, "\n") + "\n", []Note{}, nil
}

// requirePureSubset rejects IR that reaches beyond compute.
func (g *WatGenerator) requirePureSubset(doc *ir.IR) error {
	mod := doc.Module
	if len(mod.Toplevel) > 0 {
		return backendErr("WASM-0100",
			"WASM v0.1 supports only functions (no top-level statements).",
			mod.Toplevel[0].Origin.Ref)
	}

	var check func(sts []*ir.Stmt) error
	check = func(sts []*ir.Stmt) error {
		for _, st := range sts {
			for _, e := range st.Effects {
				if e != "contract.verify" && e != "control.return" {
					return backendErr("WASM-0200",
						fmt.Sprintf("WASM v0.1 forbids effect '%s' (pure subset).", e),
						st.Origin.Ref)
				}
			}
			if st.Kind == ir.StmtShow || st.Kind == ir.StmtVerify {
				return backendErr("WASM-0201",
					"WASM v0.1 forbids IO/VERIFY in pure subset (no host bindings in this backend).",
					st.Origin.Ref)
			}
			for _, sub := range [][]*ir.Stmt{st.Then, st.Else, st.Body} {
				if err := check(sub); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, fn := range mod.Functions {
		if err := check(fn.Body); err != nil {
			return err
		}
	}
	return nil
}

// ensureI32 accepts Int, Bool or an absent type.
func ensureI32(t *ir.Type, origin string) error {
	if t == nil || t.Kind == "Int" || t.Kind == "Bool" {
		return nil
	}
	return backendErr("WASM-0300",
		fmt.Sprintf("WASM v0.1 supports only Int/Bool (i32). Got type: %s", t.Kind), origin)
}

// scanLocals pre-declares a local for every assigned variable.
func scanLocals(ctx *fnCtx, stmts []*ir.Stmt) {
	for _, st := range stmts {
		if st.Kind == ir.StmtAssign {
			ctx.ensureLocal(st.Name)
		}
		scanLocals(ctx, st.Then)
		scanLocals(ctx, st.Else)
		scanLocals(ctx, st.Body)
	}
}

func (g *WatGenerator) stmt(ctx *fnCtx, st *ir.Stmt) ([]string, error) {
	var out []string

	switch st.Kind {
	case ir.StmtAssign:
		sym := ctx.ensureLocal(st.Name)
		insts, err := g.expr(ctx, st.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, insts...)
		out = append(out, "local.set "+sym)
		return out, nil

	case ir.StmtExpr:
		insts, err := g.expr(ctx, st.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, insts...)
		out = append(out, "drop")
		return out, nil

	case ir.StmtReturn:
		if st.Value == nil {
			out = append(out, "i32.const 0")
		} else {
			insts, err := g.expr(ctx, st.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, insts...)
		}
		out = append(out, "return")
		return out, nil

	case ir.StmtIf:
		insts, err := g.expr(ctx, st.Cond)
		if err != nil {
			return nil, err
		}
		out = append(out, insts...)
		out = append(out, "if")
		for _, x := range st.Then {
			sub, err := g.stmt(ctx, x)
			if err != nil {
				return nil, err
			}
			for _, i := range sub {
				out = append(out, "  "+i)
			}
		}
		if len(st.Else) > 0 {
			out = append(out, "else")
			for _, x := range st.Else {
				sub, err := g.stmt(ctx, x)
				if err != nil {
					return nil, err
				}
				for _, i := range sub {
					out = append(out, "  "+i)
				}
			}
		}
		out = append(out, "end")
		return out, nil

	case ir.StmtWhile:
		out = append(out, "block $exit")
		out = append(out, "  loop $loop")
		insts, err := g.expr(ctx, st.Cond)
		if err != nil {
			return nil, err
		}
		for _, i := range insts {
			out = append(out, "    "+i)
		}
		out = append(out, "    i32.eqz")
		out = append(out, "    br_if $exit")
		for _, x := range st.Body {
			sub, err := g.stmt(ctx, x)
			if err != nil {
				return nil, err
			}
			for _, i := range sub {
				out = append(out, "    "+i)
			}
		}
		out = append(out, "    br $loop")
		out = append(out, "  end")
		out = append(out, "end")
		return out, nil
	}

	return nil, backendErr("WASM-0600",
		fmt.Sprintf("Unsupported statement kind: %s", st.Kind), st.Origin.Ref)
}

var watBinaryOps = map[string]string{
	"+":  "i32.add",
	"-":  "i32.sub",
	"*":  "i32.mul",
	"/":  "i32.div_s",
	"==": "i32.eq",
	"!=": "i32.ne",
	"<":  "i32.lt_s",
	"<=": "i32.le_s",
	">":  "i32.gt_s",
	">=": "i32.ge_s",
	"%":  "i32.rem_s",
}

func (g *WatGenerator) expr(ctx *fnCtx, e *ir.Expr) ([]string, error) {
	var out []string

	switch e.Kind {
	case ir.ExprLit:
		if err := ensureI32(e.Type, e.Origin.Ref); err != nil {
			return nil, err
		}
		v := strings.ToLower(strings.TrimSpace(e.Value))
		switch v {
		case "true":
			out = append(out, "i32.const 1")
		case "false":
			out = append(out, "i32.const 0")
		case "null", "":
			return nil, backendErr("WASM-0301", "Null literal not supported.", e.Origin.Ref)
		default:
			out = append(out, "i32.const "+v)
		}
		return out, nil

	case ir.ExprVar:
		sym := ctx.ensureLocal(e.Name)
		out = append(out, "local.get "+sym)
		return out, nil

	case ir.ExprUnary:
		if e.Op != "-" {
			return nil, backendErr("WASM-0400",
				fmt.Sprintf("Unsupported unary op: %s", e.Op), e.Origin.Ref)
		}
		out = append(out, "i32.const 0")
		inner, err := g.expr(ctx, e.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, inner...)
		out = append(out, "i32.sub")
		return out, nil

	case ir.ExprBinary:
		left, err := g.expr(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.expr(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		inst, ok := watBinaryOps[e.Op]
		if !ok {
			return nil, backendErr("WASM-0401",
				fmt.Sprintf("Unsupported binary op: %s", e.Op), e.Origin.Ref)
		}
		out = append(out, left...)
		out = append(out, right...)
		out = append(out, inst)
		return out, nil

	case ir.ExprCall:
		if !g.fnNames[e.Callee] {
			return nil, backendErr("WASM-0500",
				fmt.Sprintf("Unsupported call target: %s", e.Callee), e.Origin.Ref)
		}
		for _, a := range e.Args {
			insts, err := g.expr(ctx, a)
			if err != nil {
				return nil, err
			}
			out = append(out, insts...)
		}
		out = append(out, "call $"+e.Callee)
		return out, nil
	}

	return nil, backendErr("WASM-0999",
		fmt.Sprintf("Unknown expr kind: %s", e.Kind), e.Origin.Ref)
}
