package codegen

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/hand-lang/handc/internal/compiler/interp"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// HTMLGenerator emits a static document plus a minimal script from the
// forms-and-runner IR subset: one form per record type with typed inputs,
// ask-assigned variables wired to input fields, and show expressions wired to
// output lines. Control flow and user functions are out of scope.
type HTMLGenerator struct {
	buf strings.Builder
}

// NewHTMLGenerator creates an HTML backend instance.
func NewHTMLGenerator() *HTMLGenerator {
	return &HTMLGenerator{}
}

// GenHTML is a convenience wrapper around HTMLGenerator.Generate.
func GenHTML(doc *ir.IR) (string, []Note, error) {
	return NewHTMLGenerator().Generate(doc)
}

// askField is an input field bound to an ask-assigned variable.
type askField struct {
	name   string
	prompt string
}

// Generate emits the document text.
func (g *HTMLGenerator) Generate(doc *ir.IR) (string, []Note, error) {
	if doc.IRVersion != ir.Version {
		return "", nil, backendErr("HTML-0001",
			fmt.Sprintf("Unsupported IR version %q.", doc.IRVersion), doc.Origin.Ref)
	}

	mod := doc.Module
	if len(mod.Functions) > 0 {
		return "", nil, backendErr("HTML-0100",
			"HTML v0.1 does not support user functions.", mod.Functions[0].Origin.Ref)
	}

	var fields []askField
	var shows []*ir.Stmt
	for _, st := range mod.Toplevel {
		switch st.Kind {
		case ir.StmtAssign:
			if st.Value != nil && st.Value.Kind == ir.ExprCall && st.Value.Callee == "ask" {
				prompt := ""
				if len(st.Value.Args) > 0 && st.Value.Args[0].Kind == ir.ExprLit {
					prompt = interp.DecodeText(st.Value.Args[0].Value)
				}
				fields = append(fields, askField{name: st.Name, prompt: prompt})
				continue
			}
			if err := checkRunnerExpr(st.Value); err != nil {
				return "", nil, err
			}
		case ir.StmtShow:
			if err := checkRunnerExpr(st.Value); err != nil {
				return "", nil, err
			}
			shows = append(shows, st)
		default:
			return "", nil, backendErr("HTML-0100",
				fmt.Sprintf("HTML v0.1 supports only assignments and show at top level, got %s.", st.Kind),
				st.Origin.Ref)
		}
	}

	g.buf.Reset()
	g.emitHead(mod.Name)
	g.emitForms(mod.Types)
	g.emitRunner(mod, fields, shows)
	g.line("</body>")
	g.line("</html>")

	return g.buf.String(), []Note{}, nil
}

func (g *HTMLGenerator) line(s string) {
	g.buf.WriteString(s)
	g.buf.WriteByte('\n')
}

func (g *HTMLGenerator) emitHead(name string) {
	g.line("<!DOCTYPE html>")
	g.line(`<html lang="en">`)
	g.line("<head>")
	g.line(`<meta charset="utf-8">`)
	g.line(fmt.Sprintf("<title>%s</title>", html.EscapeString(name)))
	g.line("<style>")
	g.line("body { font-family: system-ui, sans-serif; margin: 2rem; }")
	g.line("fieldset { margin-bottom: 1rem; }")
	g.line(".out { font-family: monospace; padding: 0.25rem 0; }")
	g.line("</style>")
	g.line("</head>")
	g.line("<body>")
	g.line(fmt.Sprintf("<h1>%s</h1>", html.EscapeString(name)))
}

// inputTypeFor maps IR scalar types to HTML input types.
func inputTypeFor(t *ir.Type) string {
	if t == nil {
		return "text"
	}
	if t.Kind == "Optional" && len(t.Args) == 1 {
		return inputTypeFor(t.Args[0])
	}
	switch t.Kind {
	case "Int", "Float":
		return "number"
	case "Bool":
		return "checkbox"
	default:
		return "text"
	}
}

// emitForms renders one form per record type with typed inputs.
func (g *HTMLGenerator) emitForms(types []*ir.RecordDecl) {
	for _, rec := range types {
		g.line(fmt.Sprintf(`<form id="form-%s">`, html.EscapeString(rec.Name)))
		g.line(fmt.Sprintf("<fieldset><legend>%s</legend>", html.EscapeString(rec.Name)))
		for _, f := range rec.Fields {
			id := fmt.Sprintf("%s-%s", rec.Name, f.Name)
			g.line(fmt.Sprintf(`<label>%s <input id="%s" name="%s" type="%s"></label><br>`,
				html.EscapeString(f.Name), html.EscapeString(id), html.EscapeString(f.Name),
				inputTypeFor(f.Type)))
		}
		g.line("</fieldset>")
		g.line("</form>")
	}
}

// emitRunner renders the ask inputs, the output lines and the wiring script.
func (g *HTMLGenerator) emitRunner(mod *ir.Module, fields []askField, shows []*ir.Stmt) {
	g.line(`<form id="runner" onsubmit="return false;">`)
	for _, f := range fields {
		label := f.prompt
		if label == "" {
			label = f.name
		}
		g.line(fmt.Sprintf(`<label>%s <input id="var-%s" type="text"></label><br>`,
			html.EscapeString(label), html.EscapeString(f.name)))
	}
	g.line(`<button id="run" onclick="handRun()">Run</button>`)
	g.line("</form>")

	for i, st := range shows {
		g.line(fmt.Sprintf(`<div class="out" id="out-%d" data-origin="%s"></div>`,
			i, html.EscapeString(st.Origin.Ref)))
	}

	g.line("<script>")
	g.line("function handRender(v) {")
	g.line("  if (v === null || v === undefined) { return 'null'; }")
	g.line("  if (typeof v === 'boolean') { return v ? 'true' : 'false'; }")
	g.line("  if (typeof v === 'number') { return String(v); }")
	g.line("  return String(v);")
	g.line("}")
	g.line("function handRun() {")
	for _, f := range fields {
		g.line(fmt.Sprintf("  var v_%s = document.getElementById('var-%s').value;", f.name, f.name))
	}
	for i, st := range shows {
		g.line(fmt.Sprintf("  document.getElementById('out-%d').textContent = handRender(%s);",
			i, jsExpr(st.Value)))
	}
	g.line("}")
	g.line("</script>")
}

// checkRunnerExpr rejects expressions the runner script cannot evaluate.
func checkRunnerExpr(e *ir.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ir.ExprLit, ir.ExprVar:
		return nil
	case ir.ExprUnary:
		return checkRunnerExpr(e.Expr)
	case ir.ExprBinary:
		if err := checkRunnerExpr(e.Left); err != nil {
			return err
		}
		return checkRunnerExpr(e.Right)
	case ir.ExprCall:
		return backendErr("HTML-0200",
			fmt.Sprintf("HTML v0.1 cannot evaluate call '%s' in the runner.", e.Callee),
			e.Origin.Ref)
	}
	return backendErr("HTML-0201",
		fmt.Sprintf("Unknown expr kind: %s", e.Kind), e.Origin.Ref)
}

// jsExpr lowers a runner-subset expression to a JavaScript expression.
func jsExpr(e *ir.Expr) string {
	if e == nil {
		return "null"
	}
	switch e.Kind {
	case ir.ExprLit:
		kind := ""
		if e.Type != nil {
			kind = e.Type.Kind
		}
		switch kind {
		case "Text":
			quoted, _ := json.Marshal(interp.DecodeText(e.Value))
			return string(quoted)
		case "Null":
			return "null"
		default:
			return e.Value
		}
	case ir.ExprVar:
		return "v_" + e.Name
	case ir.ExprUnary:
		return "(-(" + jsExpr(e.Expr) + "))"
	case ir.ExprBinary:
		op := e.Op
		if op == "==" {
			op = "==="
		}
		if op == "!=" {
			op = "!=="
		}
		return "(" + jsExpr(e.Left) + " " + op + " " + jsExpr(e.Right) + ")"
	}
	return "null"
}
