package lowering

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hand-lang/handc/internal/compiler/capability"
	"github.com/hand-lang/handc/internal/compiler/ir"
	"github.com/hand-lang/handc/internal/compiler/lexer"
	"github.com/hand-lang/handc/internal/compiler/parser"
)

func lowerSource(t *testing.T, source, name string) *ir.IR {
	t.Helper()
	tokens, diags := lexer.New(source, "<mem>").ScanTokens()
	if len(diags) != 0 {
		t.Fatalf("lexer diagnostics: %v", diags)
	}
	program, errs := parser.New(tokens).Parse()
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return Lower(program, name)
}

func TestLowering_ModuleShape(t *testing.T) {
	doc := lowerSource(t, "x: Int = 1\nshow x\n", "m")

	if doc.IRVersion != ir.Version {
		t.Errorf("ir_version = %q", doc.IRVersion)
	}
	if doc.Module.Name != "m" || doc.Module.Semver != "0.1.0" {
		t.Errorf("module = %q %q", doc.Module.Name, doc.Module.Semver)
	}
	if len(doc.Module.Toplevel) != 2 {
		t.Fatalf("toplevel = %d statements", len(doc.Module.Toplevel))
	}
}

func TestLowering_EffectsPerStatement(t *testing.T) {
	doc := lowerSource(t, "x = 1\nshow x\n🔍 true\nreturn\n", "m")
	tl := doc.Module.Toplevel

	if !reflect.DeepEqual(tl[0].Effects, []string{}) {
		t.Errorf("assign effects = %v", tl[0].Effects)
	}
	if !reflect.DeepEqual(tl[1].Effects, []string{"io.show"}) {
		t.Errorf("show effects = %v", tl[1].Effects)
	}
	if !reflect.DeepEqual(tl[1].Capabilities, []string{"io.write"}) {
		t.Errorf("show caps = %v", tl[1].Capabilities)
	}
	if !reflect.DeepEqual(tl[2].Effects, []string{"contract.verify"}) {
		t.Errorf("verify effects = %v", tl[2].Effects)
	}
	if !reflect.DeepEqual(tl[3].Effects, []string{"control.return"}) {
		t.Errorf("return effects = %v", tl[3].Effects)
	}
}

func TestLowering_ModuleCapabilitiesDerived(t *testing.T) {
	// S1 shape: show requires io.write; compute is always present.
	doc := lowerSource(t, "x: Int = 1\nshow x\n", "m")
	if !reflect.DeepEqual(doc.Module.Capabilities, []string{"compute", "io.write"}) {
		t.Errorf("caps = %v", doc.Module.Capabilities)
	}

	// S3 shape: ask anywhere adds io.read.
	doc = lowerSource(t, "x: Text = ask(\"p\")\n", "m")
	if !reflect.DeepEqual(doc.Module.Capabilities, []string{"compute", "io.read"}) {
		t.Errorf("caps = %v", doc.Module.Capabilities)
	}
}

func TestLowering_PreOrderIDsAreDeterministic(t *testing.T) {
	src := "x: Int = 1\nif x > 0:\n    show x\n"
	a := lowerSource(t, src, "m")
	b := lowerSource(t, src, "m")

	dataA, _ := ir.Marshal(a)
	dataB, _ := ir.Marshal(b)
	if string(dataA) != string(dataB) {
		t.Error("two lowerings of the same source differ")
	}
}

func TestLowering_OriginRefFormat(t *testing.T) {
	doc := lowerSource(t, "x = 1\n", "m")
	st := doc.Module.Toplevel[0]

	if st.Origin.Actor != ir.ActorHuman {
		t.Errorf("actor = %q", st.Origin.Actor)
	}
	if !strings.HasPrefix(st.Origin.Ref, "[AST][📝][N") {
		t.Errorf("assign ref = %q", st.Origin.Ref)
	}
	if st.Value.Origin.Ref == st.Origin.Ref {
		t.Error("statement and expression share an origin ref")
	}
}

func TestLowering_CounterIsPerCall(t *testing.T) {
	a := lowerSource(t, "x = 1\n", "m")
	b := lowerSource(t, "x = 1\n", "m")
	if a.Module.Toplevel[0].Origin.Ref != b.Module.Toplevel[0].Origin.Ref {
		t.Error("identifier counter leaked across Lower calls")
	}
}

func TestLowering_FunctionEffectsUnion(t *testing.T) {
	src := "🔧 f() -> Null:\n    show 1\n    return null\n"
	doc := lowerSource(t, src, "m")
	if len(doc.Module.Functions) != 1 {
		t.Fatalf("functions = %d", len(doc.Module.Functions))
	}
	fn := doc.Module.Functions[0]
	if !reflect.DeepEqual(fn.Effects, []string{"control.return", "io.show"}) {
		t.Errorf("fn effects = %v", fn.Effects)
	}
	if !reflect.DeepEqual(fn.Capabilities, []string{"compute", "io.write"}) {
		t.Errorf("fn caps = %v", fn.Capabilities)
	}
}

func TestLowering_TypesLowered(t *testing.T) {
	doc := lowerSource(t, "x: Int? = null\n", "m")
	dt := doc.Module.Toplevel[0].DeclaredType
	if dt == nil || dt.Kind != "Optional" || len(dt.Args) != 1 || dt.Args[0].Kind != "Int" {
		t.Errorf("declared type = %#v", dt)
	}
}

func TestLowering_UnknownNominalBecomesRecord(t *testing.T) {
	doc := lowerSource(t, "u: User = x\n", "m")
	dt := doc.Module.Toplevel[0].DeclaredType
	if dt == nil || dt.Kind != "Record" || dt.Name != "User" || len(dt.Args) != 0 {
		t.Errorf("declared type = %#v", dt)
	}
}

func TestLowering_ParenDropsFromIR(t *testing.T) {
	doc := lowerSource(t, "x = (1 + 2) * 3\n", "m")
	mul := doc.Module.Toplevel[0].Value
	if mul.Kind != ir.ExprBinary || mul.Op != "*" {
		t.Fatalf("top = %#v", mul)
	}
	if mul.Left.Kind != ir.ExprBinary || mul.Left.Op != "+" {
		t.Errorf("left = %#v", mul.Left)
	}
}

func TestCapability_CanonicalizeShorthand(t *testing.T) {
	got := capability.Canonicalize([]string{"io", "fs", "compute", "io.read"})
	want := []string{"io.read", "io.write", "fs.read", "fs.write", "compute"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("canonicalize = %v, want %v", got, want)
	}
}
