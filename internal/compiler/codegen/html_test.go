package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hand-lang/handc/internal/compiler/ir"
)

func TestHTML_ShowOnly(t *testing.T) {
	doc := irFromSource(t, "show \"hi\"\n", "show_only")
	html, notes, err := GenHTML(doc)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<title>show_only</title>")
	assert.Contains(t, html, `<div class="out" id="out-0"`)
	assert.Contains(t, html, `textContent = handRender("hi");`)
}

func TestHTML_AskWiredToInput(t *testing.T) {
	doc := irFromSource(t, "name: Text = ask(\"Your name\")\nshow name\n", "ask_show")
	html, _, err := GenHTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, `<label>Your name <input id="var-name" type="text"></label>`)
	assert.Contains(t, html, "var v_name = document.getElementById('var-name').value;")
	assert.Contains(t, html, "handRender(v_name)")
}

func TestHTML_RecordFormsWithTypedInputs(t *testing.T) {
	doc := irFromSource(t, "show 1\n", "record_preview")
	doc.Module.Types = append(doc.Module.Types, &ir.RecordDecl{
		Name: "User",
		Fields: []*ir.RecordField{
			{Name: "age", Type: ir.NewType("Int")},
			{Name: "name", Type: ir.NewType("Text")},
			{Name: "admin", Type: ir.NewType("Bool")},
		},
		Origin: ir.Origin{Actor: ir.ActorHuman, Ref: "[AST][📝][N9].1"},
	})

	html, _, err := GenHTML(doc)
	require.NoError(t, err)

	assert.Contains(t, html, `<form id="form-User">`)
	assert.Contains(t, html, `<input id="User-age" name="age" type="number">`)
	assert.Contains(t, html, `<input id="User-name" name="name" type="text">`)
	assert.Contains(t, html, `<input id="User-admin" name="admin" type="checkbox">`)
}

func TestHTML_OutputsCarryOriginRefs(t *testing.T) {
	doc := irFromSource(t, "show 1\nshow 2\n", "m")
	html, _, err := GenHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, html, `data-origin="[AST][📤][N`)
	assert.Contains(t, html, `id="out-1"`)
}

func TestHTML_EscapesUserText(t *testing.T) {
	doc := irFromSource(t, "x: Text = ask(\"<b>bold</b>\")\n", "m")
	html, _, err := GenHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;bold&lt;/b&gt;")
	assert.NotContains(t, html, "<b>bold</b>")
}

func TestHTML_RejectsControlFlow(t *testing.T) {
	doc := irFromSource(t, "if true:\n    show 1\n", "m")
	_, _, err := GenHTML(doc)
	require.Error(t, err)
	assert.Equal(t, "HTML-0100", err.(*BackendError).Note.Code)
}

func TestHTML_RejectsUserFunctions(t *testing.T) {
	doc := irFromSource(t, "🔧 f() -> Int:\n    return 1\n", "m")
	_, _, err := GenHTML(doc)
	require.Error(t, err)
	assert.Equal(t, "HTML-0100", err.(*BackendError).Note.Code)
}

func TestHTML_RejectsCallsInRunnerExprs(t *testing.T) {
	doc := irFromSource(t, "show len(\"a\")\n", "m")
	_, _, err := GenHTML(doc)
	require.Error(t, err)
	assert.Equal(t, "HTML-0200", err.(*BackendError).Note.Code)
}

func TestHTML_Deterministic(t *testing.T) {
	doc := irFromSource(t, "a: Text = ask(\"p\")\nshow a\nshow 1 + 2\n", "m")
	first, _, err := GenHTML(doc)
	require.NoError(t, err)
	second, _, err2 := GenHTML(doc)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}
