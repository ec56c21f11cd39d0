package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

func doc(name string) *ir.IR {
	return &ir.IR{
		IRVersion: ir.Version,
		Module: &ir.Module{
			Name:         name,
			Semver:       "0.1.0",
			Functions:    []*ir.Function{},
			Toplevel:     []*ir.Stmt{},
			Types:        []*ir.RecordDecl{},
			Capabilities: []string{"compute"},
		},
	}
}

func TestIRCache_SetAndGet(t *testing.T) {
	c := NewIRCache()
	c.Set("a.hand", "show 1\n", doc("a"), nil)

	entry, ok := c.Get("a.hand", "show 1\n")
	require.True(t, ok)
	assert.Equal(t, "a", entry.Doc.Module.Name)
	assert.Equal(t, 1, c.Len())
}

func TestIRCache_DiagnosticsCachedAlongsideIR(t *testing.T) {
	c := NewIRCache()
	diags := []errors.Diagnostic{{
		Phase:    "typechecker",
		Code:     errors.ErrUndefinedVar,
		Severity: errors.Error,
	}}
	// A failed compile has no IR but its diagnostics are still worth a hit.
	c.Set("bad.hand", "show x\n", nil, diags)

	entry, ok := c.Get("bad.hand", "show x\n")
	require.True(t, ok)
	assert.Nil(t, entry.Doc)
	require.Len(t, entry.Diagnostics, 1)
	assert.Equal(t, errors.ErrUndefinedVar, entry.Diagnostics[0].Code)
}

func TestIRCache_ContentHashInvalidates(t *testing.T) {
	c := NewIRCache()
	c.Set("a.hand", "show 1\n", doc("a"), nil)

	_, ok := c.Get("a.hand", "show 2\n")
	assert.False(t, ok)
}

func TestIRCache_Delete(t *testing.T) {
	c := NewIRCache()
	c.Set("a.hand", "show 1\n", doc("a"), nil)
	c.Delete("a.hand")

	_, ok := c.Get("a.hand", "show 1\n")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestHashSource_IsStable(t *testing.T) {
	assert.Equal(t, HashSource("show 1\n"), HashSource("show 1\n"))
	assert.NotEqual(t, HashSource("show 1\n"), HashSource("show 2\n"))
}
