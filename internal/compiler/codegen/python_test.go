package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hand-lang/handc/internal/compiler/ir"
	"github.com/hand-lang/handc/internal/compiler/lexer"
	"github.com/hand-lang/handc/internal/compiler/lowering"
	"github.com/hand-lang/handc/internal/compiler/parser"
)

func irFromSource(t *testing.T, source, name string) *ir.IR {
	t.Helper()
	tokens, diags := lexer.New(source, "<mem>").ScanTokens()
	require.Empty(t, diags)
	program, errs := parser.New(tokens).Parse()
	require.Empty(t, errs)
	return lowering.Lower(program, name)
}

func TestPython_ProgramShape(t *testing.T) {
	doc := irFromSource(t, "x: Int = 1\nshow x\n", "m")
	code, notes, err := GenPython(doc)
	require.NoError(t, err)
	assert.Empty(t, notes)

	for _, want := range []string{
		"def __hand_main(inputs):",
		"def __hand_exec(inputs):",
		"store = Store(frames=[{}])",
		"store.set('x', 1)",
		"rt.show(store.get('x'))",
		"if __name__ == '__main__':",
	} {
		assert.Contains(t, code, want)
	}
}

func TestPython_LiteralLowering(t *testing.T) {
	doc := irFromSource(t, "a = true\nb = false\nc = null\nd = \"hi\\n\"\ne = 2.5\n", "m")
	code, _, err := GenPython(doc)
	require.NoError(t, err)

	assert.Contains(t, code, "store.set('a', True)")
	assert.Contains(t, code, "store.set('b', False)")
	assert.Contains(t, code, "store.set('c', None)")
	assert.Contains(t, code, `store.set('d', 'hi\n')`)
	assert.Contains(t, code, "store.set('e', 2.5)")
}

func TestPython_ControlFlow(t *testing.T) {
	src := "i = 0\nwhile i < 2:\n    if i == 0:\n        show i\n    i = i + 1\n"
	code, _, err := GenPython(irFromSource(t, src, "m"))
	require.NoError(t, err)

	assert.Contains(t, code, "while _truthy((store.get('i') < 2)):")
	assert.Contains(t, code, "if _truthy((store.get('i') == 0)):")
}

func TestPython_FunctionsAndCalls(t *testing.T) {
	src := "🔧 add(a, b):\n    return a + b\nshow add(1, 2)\n"
	code, _, err := GenPython(irFromSource(t, src, "m"))
	require.NoError(t, err)

	assert.Contains(t, code, "def add(store, rt, a, b):")
	assert.Contains(t, code, "raise _ReturnSignal((store.get('a') + store.get('b')))")
	assert.Contains(t, code, "rt.show(add(store, rt, 1, 2))")
}

func TestPython_VerifyAndAsk(t *testing.T) {
	src := "x: Text = ask(\"p\")\n🔍 x != null\n"
	code, _, err := GenPython(irFromSource(t, src, "m"))
	require.NoError(t, err)

	assert.Contains(t, code, "rt.ask('p')")
	assert.Contains(t, code, "HND-RT-0401 VERIFY failed.")
}

func TestPython_OriginCommentsPresent(t *testing.T) {
	code, _, err := GenPython(irFromSource(t, "show 1\n", "m"))
	require.NoError(t, err)
	assert.Contains(t, code, "# [AST][📤][N")
}

func TestPython_Deterministic(t *testing.T) {
	doc := irFromSource(t, "x = 1\nshow x + 2\n", "m")
	first, _, err := GenPython(doc)
	require.NoError(t, err)
	second, _, err := GenPython(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPython_RejectsWrongIRVersion(t *testing.T) {
	doc := irFromSource(t, "show 1\n", "m")
	doc.IRVersion = "0.9.0"
	_, _, err := GenPython(doc)
	require.Error(t, err)
}

func TestPython_ParamsRedeclaredInFrame(t *testing.T) {
	code, _, err := GenPython(irFromSource(t, "🔧 f(a):\n    return a\n", "m"))
	require.NoError(t, err)

	// Parameters are declared into the pushed frame so nested stores resolve.
	idx := strings.Index(code, "def f(store, rt, a):")
	require.GreaterOrEqual(t, idx, 0)
	rest := code[idx:]
	assert.Contains(t, rest, "store.push()")
	assert.Contains(t, rest, "store.declare('a', a)")
	assert.Contains(t, rest, "finally:")
	assert.Contains(t, rest, "store.pop()")
}
