package codegen

import (
	"fmt"
	"strings"

	"github.com/hand-lang/handc/internal/compiler/interp"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// PythonGenerator emits a self-contained Python program from IR. The program
// exposes __hand_main(inputs) -> outputs and must reproduce the reference
// interpreter's Ω exactly; its embedded runtime mirrors the interpreter's
// stringification rules.
type PythonGenerator struct {
	buf strings.Builder
}

// NewPythonGenerator creates a Python backend instance.
func NewPythonGenerator() *PythonGenerator {
	return &PythonGenerator{}
}

// GenPython is a convenience wrapper around PythonGenerator.Generate.
func GenPython(doc *ir.IR) (string, []Note, error) {
	return NewPythonGenerator().Generate(doc)
}

// Generate emits the program text. The Python backend accepts the full IR,
// so its note list is always empty; an IR of another version is refused
// with PY-0001.
func (g *PythonGenerator) Generate(doc *ir.IR) (string, []Note, error) {
	if doc.IRVersion != ir.Version {
		return "", nil, backendErr("PY-0001",
			fmt.Sprintf("Unsupported IR version %q.", doc.IRVersion), doc.Origin.Ref)
	}

	g.buf.Reset()
	g.emitRuntime()

	mod := doc.Module

	g.line("# --- User functions ---")
	for _, fn := range mod.Functions {
		g.emitFunction(fn)
	}

	g.line("# --- Top-level ---")
	g.line("def __hand_exec(inputs):")
	g.line("    store = Store(frames=[{}])")
	g.line("    rt = Runtime(inputs=list(inputs), outputs=[])")
	for _, st := range mod.Toplevel {
		for _, ln := range g.stmtLines(st, 4) {
			g.line(ln)
		}
	}
	g.line("    return rt.outputs, {k: rt._repr(v) for k, v in sorted(store.frames[0].items())}")
	g.line("")
	g.line("def __hand_main(inputs):")
	g.line("    outputs, _store = __hand_exec(inputs)")
	g.line("    return outputs")
	g.line("")
	g.line("def __hand_run_and_print_json(inputs):")
	g.line("    import json")
	g.line("    outputs, store = __hand_exec(inputs)")
	g.line("    print(json.dumps({'outputs': outputs, 'store': store}, ensure_ascii=False, sort_keys=True))")
	g.line("")
	g.line("if __name__ == '__main__':")
	g.line("    import json, sys")
	g.line("    inputs = []")
	g.line("    if len(sys.argv) > 1:")
	g.line("        inputs = json.loads(sys.argv[1])")
	g.line("    __hand_run_and_print_json(inputs)")
	g.line("")

	return g.buf.String(), []Note{}, nil
}

func (g *PythonGenerator) line(s string) {
	g.buf.WriteString(s)
	g.buf.WriteByte('\n')
}

// emitRuntime writes the embedded store and runtime, matching the reference
// interpreter's rendering rules.
func (g *PythonGenerator) emitRuntime() {
	for _, ln := range []string{
		"from __future__ import annotations",
		"from dataclasses import dataclass",
		"from typing import Any, Dict, List",
		"",
		"# --- Runtime (matches the reference interpreter's repr rules) ---",
		"@dataclass",
		"class Store:",
		"    frames: List[Dict[str, Any]]",
		"    def get(self, name: str) -> Any:",
		"        for fr in reversed(self.frames):",
		"            if name in fr:",
		"                return fr[name]",
		"        raise RuntimeError(f\"HND-RT-0001 Undefined variable '{name}'.\")",
		"    def set(self, name: str, value: Any) -> None:",
		"        for fr in reversed(self.frames):",
		"            if name in fr:",
		"                fr[name] = value",
		"                return",
		"        self.frames[-1][name] = value",
		"    def declare(self, name: str, value: Any) -> None:",
		"        self.frames[-1][name] = value",
		"    def push(self) -> None:",
		"        self.frames.append({})",
		"    def pop(self) -> None:",
		"        self.frames.pop()",
		"",
		"@dataclass",
		"class Runtime:",
		"    inputs: List[str]",
		"    outputs: List[str]",
		"    ip: int = 0",
		"    def _repr(self, v: Any) -> str:",
		"        if v is None:",
		"            return 'null'",
		"        if isinstance(v, bool):",
		"            return 'true' if v else 'false'",
		"        if isinstance(v, float):",
		"            return format(v, '.15g')",
		"        if isinstance(v, (int, str)):",
		"            return str(v)",
		"        return str(v)",
		"    def show(self, v: Any) -> None:",
		"        self.outputs.append(self._repr(v))",
		"    def ask(self, prompt: Any) -> str:",
		"        if self.ip >= len(self.inputs):",
		"            raise RuntimeError('HND-RT-0101 ask() requested input but no more inputs were provided.')",
		"        v = self.inputs[self.ip]",
		"        self.ip += 1",
		"        return v",
		"",
		"class _ReturnSignal(Exception):",
		"    def __init__(self, value: Any):",
		"        self.value = value",
		"",
		"def _truthy(v: Any) -> bool:",
		"    return bool(v)",
		"",
	} {
		g.line(ln)
	}
}

func (g *PythonGenerator) emitFunction(fn *ir.Function) {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name)
	}

	sep := ""
	if len(params) > 0 {
		sep = ", "
	}
	g.line(fmt.Sprintf("def %s(store, rt%s%s):", fn.Name, sep, strings.Join(params, ", ")))
	g.line("    store.push()")
	for _, p := range params {
		g.line(fmt.Sprintf("    store.declare(%s, %s)", pyQuote(p), p))
	}
	g.line("    try:")
	if len(fn.Body) == 0 {
		g.line("        pass")
	} else {
		for _, st := range fn.Body {
			for _, ln := range g.stmtLines(st, 8) {
				g.line(ln)
			}
		}
	}
	g.line("        return None")
	g.line("    except _ReturnSignal as r:")
	g.line("        return r.value")
	g.line("    finally:")
	g.line("        store.pop()")
	g.line("")
}

// stmtLines lowers one IR statement to Python source lines. Every line
// carries its origin reference as a trailing comment.
func (g *PythonGenerator) stmtLines(st *ir.Stmt, indent int) []string {
	pad := strings.Repeat(" ", indent)
	ref := st.Origin.Ref
	oc := func(line string) string {
		if ref == "" {
			return line
		}
		return line + "  # " + ref
	}

	var out []string
	switch st.Kind {
	case ir.StmtAssign:
		out = append(out, oc(pad+fmt.Sprintf("store.set(%s, %s)", pyQuote(st.Name), g.expr(st.Value))))

	case ir.StmtExpr:
		out = append(out, oc(pad+g.expr(st.Value)))

	case ir.StmtShow:
		out = append(out, oc(pad+fmt.Sprintf("rt.show(%s)", g.expr(st.Value))))

	case ir.StmtVerify:
		out = append(out, oc(pad+fmt.Sprintf("if not _truthy(%s):", g.expr(st.Value))))
		out = append(out, oc(pad+"    raise RuntimeError('HND-RT-0401 VERIFY failed.')"))

	case ir.StmtReturn:
		if st.Value == nil {
			out = append(out, oc(pad+"raise _ReturnSignal(None)"))
		} else {
			out = append(out, oc(pad+fmt.Sprintf("raise _ReturnSignal(%s)", g.expr(st.Value))))
		}

	case ir.StmtIf:
		out = append(out, oc(pad+fmt.Sprintf("if _truthy(%s):", g.expr(st.Cond))))
		if len(st.Then) == 0 {
			out = append(out, oc(pad+"    pass"))
		}
		for _, s := range st.Then {
			out = append(out, g.stmtLines(s, indent+4)...)
		}
		if len(st.Else) > 0 {
			out = append(out, oc(pad+"else:"))
			for _, s := range st.Else {
				out = append(out, g.stmtLines(s, indent+4)...)
			}
		}

	case ir.StmtWhile:
		out = append(out, oc(pad+fmt.Sprintf("while _truthy(%s):", g.expr(st.Cond))))
		if len(st.Body) == 0 {
			out = append(out, oc(pad+"    break"))
		}
		for _, s := range st.Body {
			out = append(out, g.stmtLines(s, indent+4)...)
		}
	}
	return out
}

func (g *PythonGenerator) expr(e *ir.Expr) string {
	if e == nil {
		return "None"
	}

	switch e.Kind {
	case ir.ExprLit:
		return pyLiteral(e)

	case ir.ExprVar:
		return fmt.Sprintf("store.get(%s)", pyQuote(e.Name))

	case ir.ExprUnary:
		return fmt.Sprintf("(-(%s))", g.expr(e.Expr))

	case ir.ExprBinary:
		return fmt.Sprintf("(%s %s %s)", g.expr(e.Left), e.Op, g.expr(e.Right))

	case ir.ExprCall:
		args := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, g.expr(a))
		}
		switch e.Callee {
		case "ask":
			prompt := "''"
			if len(args) > 0 {
				prompt = args[0]
			}
			return fmt.Sprintf("rt.ask(%s)", prompt)
		case "show":
			arg := "None"
			if len(args) > 0 {
				arg = args[0]
			}
			return fmt.Sprintf("(rt.show(%s), None)[1]", arg)
		case "len":
			return fmt.Sprintf("len(%s)", strings.Join(args, ", "))
		case "ok", "err":
			// Result payloads collapse, as in the reference interpreter.
			if len(args) > 0 {
				return args[0]
			}
			return "None"
		}
		sep := ""
		if len(args) > 0 {
			sep = ", "
		}
		return fmt.Sprintf("%s(store, rt%s%s)", e.Callee, sep, strings.Join(args, ", "))
	}
	return "None"
}

func pyLiteral(e *ir.Expr) string {
	kind := ""
	if e.Type != nil {
		kind = e.Type.Kind
	}
	switch kind {
	case "Text":
		return pyQuote(interp.DecodeText(e.Value))
	case "Bool":
		if e.Value == "true" {
			return "True"
		}
		return "False"
	case "Null":
		return "None"
	default:
		return e.Value
	}
}

// pyQuote renders a Go string as a single-quoted Python string literal.
func pyQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
