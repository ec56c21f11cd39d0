package parser

import (
	"testing"

	"github.com/hand-lang/handc/internal/compiler/ast"
	"github.com/hand-lang/handc/internal/compiler/lexer"
)

func parseSource(t *testing.T, source string) (*ast.Program, []ParseError) {
	t.Helper()
	tokens, diags := lexer.New(source, "<mem>").ScanTokens()
	if len(diags) != 0 {
		t.Fatalf("lexer diagnostics: %v", diags)
	}
	return New(tokens).Parse()
}

func parseClean(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, errs := parseSource(t, source)
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return program
}

func TestParser_EmptyProgram(t *testing.T) {
	program := parseClean(t, "")
	if len(program.Items) != 0 {
		t.Errorf("expected empty program, got %d items", len(program.Items))
	}
}

func TestParser_AssignWithType(t *testing.T) {
	program := parseClean(t, "x: Int = 1\n")
	assign, ok := program.Items[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", program.Items[0])
	}
	if assign.Name != "x" {
		t.Errorf("name = %q", assign.Name)
	}
	name, ok := assign.DeclaredType.(*ast.TypeName)
	if !ok || name.Name != "Int" {
		t.Errorf("declared type = %#v", assign.DeclaredType)
	}
	lit, ok := assign.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt || lit.Lexeme != "1" {
		t.Errorf("value = %#v", assign.Value)
	}
}

func TestParser_OptionalType(t *testing.T) {
	program := parseClean(t, "x: Int? = null\n")
	assign := program.Items[0].(*ast.AssignStmt)
	opt, ok := assign.DeclaredType.(*ast.TypeOptional)
	if !ok {
		t.Fatalf("expected TypeOptional, got %T", assign.DeclaredType)
	}
	if inner, ok := opt.Inner.(*ast.TypeName); !ok || inner.Name != "Int" {
		t.Errorf("inner = %#v", opt.Inner)
	}
}

func TestParser_GenericType(t *testing.T) {
	program := parseClean(t, "m: Map[Text, Int] = x\n")
	assign := program.Items[0].(*ast.AssignStmt)
	app, ok := assign.DeclaredType.(*ast.TypeApp)
	if !ok {
		t.Fatalf("expected TypeApp, got %T", assign.DeclaredType)
	}
	if app.Base.Name != "Map" || len(app.Args) != 2 {
		t.Errorf("app = %#v", app)
	}
}

func TestParser_Precedence(t *testing.T) {
	program := parseClean(t, "a = 1 + 2 * 3\n")
	assign := program.Items[0].(*ast.AssignStmt)
	add, ok := assign.Value.(*ast.Binary)
	if !ok || add.Op != "+" {
		t.Fatalf("top = %#v", assign.Value)
	}
	mul, ok := add.Right.(*ast.Binary)
	if !ok || mul.Op != "*" {
		t.Errorf("right = %#v", add.Right)
	}
}

func TestParser_ComparisonBindsLooserThanAdditive(t *testing.T) {
	program := parseClean(t, "b = 1 + 2 < 4\n")
	assign := program.Items[0].(*ast.AssignStmt)
	cmp, ok := assign.Value.(*ast.Binary)
	if !ok || cmp.Op != "<" {
		t.Fatalf("top = %#v", assign.Value)
	}
}

func TestParser_IfElse(t *testing.T) {
	program := parseClean(t, "if true:\n    show 1\nelse:\n    show 2\n")
	stmt, ok := program.Items[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", program.Items[0])
	}
	if len(stmt.Then) != 1 || len(stmt.Else) != 1 {
		t.Errorf("then=%d else=%d", len(stmt.Then), len(stmt.Else))
	}
}

func TestParser_While(t *testing.T) {
	program := parseClean(t, "while a < 3:\n    a = a + 1\n")
	stmt, ok := program.Items[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", program.Items[0])
	}
	if len(stmt.Body) != 1 {
		t.Errorf("body = %d statements", len(stmt.Body))
	}
}

func TestParser_FuncDef(t *testing.T) {
	program := parseClean(t, "🔧 add(a: Int, b: Int) -> Int:\n    return a + b\n")
	fn, ok := program.Items[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("expected FuncDef, got %T", program.Items[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("fn = %#v", fn)
	}
	if ret, ok := fn.ReturnType.(*ast.TypeName); !ok || ret.Name != "Int" {
		t.Errorf("return type = %#v", fn.ReturnType)
	}
	if len(fn.Body) != 1 {
		t.Errorf("body = %d statements", len(fn.Body))
	}
}

func TestParser_FuncDefWithLabel(t *testing.T) {
	program := parseClean(t, "🔧 FN add(a, b):\n    return a + b\n")
	fn := program.Items[0].(*ast.FuncDef)
	if fn.Label != "FN" || fn.Name != "add" {
		t.Errorf("label=%q name=%q", fn.Label, fn.Name)
	}
}

func TestParser_Section(t *testing.T) {
	program := parseClean(t, "🎬 PROGRAM \"Demo\":\n")
	sec, ok := program.Items[0].(*ast.Section)
	if !ok {
		t.Fatalf("expected Section, got %T", program.Items[0])
	}
	if sec.Emoji != "🎬" || sec.Header != "PROGRAM \"Demo\"" || !sec.HasColon {
		t.Errorf("section = %#v", sec)
	}
	if sec.Body != nil {
		t.Errorf("expected no body")
	}
}

func TestParser_SectionWithBody(t *testing.T) {
	program := parseClean(t, "▶️ START:\n    show 1\n    show 2\n")
	sec := program.Items[0].(*ast.Section)
	if len(sec.Body) != 2 {
		t.Fatalf("body = %d statements", len(sec.Body))
	}
	if _, ok := sec.Body[0].(*ast.ShowStmt); !ok {
		t.Errorf("body[0] = %T", sec.Body[0])
	}
}

func TestParser_VerifyForms(t *testing.T) {
	for _, src := range []string{"🔍 x != null\n", "verify x != null\n"} {
		program := parseClean(t, src)
		stmt, ok := program.Items[0].(*ast.VerifyStmt)
		if !ok {
			t.Fatalf("%q: expected VerifyStmt, got %T", src, program.Items[0])
		}
		if bin, ok := stmt.Expr.(*ast.Binary); !ok || bin.Op != "!=" {
			t.Errorf("%q: expr = %#v", src, stmt.Expr)
		}
	}
}

func TestParser_VerifyNameStaysAssignable(t *testing.T) {
	program := parseClean(t, "verify = 1\n")
	if _, ok := program.Items[0].(*ast.AssignStmt); !ok {
		t.Fatalf("expected AssignStmt, got %T", program.Items[0])
	}
}

func TestParser_BareReturn(t *testing.T) {
	program := parseClean(t, "return\n")
	ret := program.Items[0].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Errorf("expected bare return, got %#v", ret.Value)
	}
}

func TestParser_CallStatement(t *testing.T) {
	program := parseClean(t, "f(a, 1)\n")
	stmt := program.Items[0].(*ast.ExprStmt)
	call, ok := stmt.Expr.(*ast.Call)
	if !ok || call.Callee != "f" || len(call.Args) != 2 {
		t.Errorf("call = %#v", stmt.Expr)
	}
}

func TestParser_AskCall(t *testing.T) {
	program := parseClean(t, "x: Text = ask(\"p\")\n")
	assign := program.Items[0].(*ast.AssignStmt)
	call, ok := assign.Value.(*ast.Call)
	if !ok || call.Callee != "ask" {
		t.Errorf("value = %#v", assign.Value)
	}
}

func TestParser_EmojiBecomesTextLiteral(t *testing.T) {
	program := parseClean(t, "show 👨‍👩‍👧‍👦\n")
	show := program.Items[0].(*ast.ShowStmt)
	lit, ok := show.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitText || lit.Lexeme != "\"👨‍👩‍👧‍👦\"" {
		t.Errorf("value = %#v", show.Value)
	}
}

func TestParser_SentinelMarkedString(t *testing.T) {
	program := parseClean(t, "show 🌐 \"Hello\"\n")
	show := program.Items[0].(*ast.ShowStmt)
	lit, ok := show.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitText || lit.Lexeme != "\"Hello\"" {
		t.Errorf("value = %#v", show.Value)
	}
}

func TestParser_ErrorRecovery(t *testing.T) {
	program, errs := parseSource(t, "x = = 1\nshow 2\n")
	if len(errs) == 0 {
		t.Fatal("expected parse errors")
	}
	// The parser must keep going and still see the show statement.
	found := false
	for _, item := range program.Items {
		if _, ok := item.(*ast.ShowStmt); ok {
			found = true
		}
	}
	if !found {
		t.Error("parser did not recover past the error")
	}
}
