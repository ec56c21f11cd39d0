package oracle

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracle_DegradedTargetsAreDeterminismChecked(t *testing.T) {
	src := "🔧 add(a: Int, b: Int) -> Int:\n    return a + b\n"
	rep := Run(src, "add.hand", nil, []string{"wasm"}, Options{})

	require.Len(t, rep.Results, 1)
	assert.Equal(t, "ok", rep.Status)
	assert.Equal(t, "wasm", rep.Results[0].Target)
	assert.Equal(t, "degraded", rep.Results[0].Status)
}

func TestOracle_BackendRefusalIsError(t *testing.T) {
	// A show statement is outside the WASM subset.
	rep := Run("show 1\n", "m.hand", nil, []string{"wasm"}, Options{})
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "error", rep.Results[0].Status)
	assert.Equal(t, "error", rep.Status)
}

func TestOracle_CompileErrorPropagates(t *testing.T) {
	rep := Run("x = = 1\n", "bad.hand", nil, []string{"python", "html"}, Options{})
	assert.Equal(t, "error", rep.Status)
	require.Len(t, rep.Results, 2)
	for _, r := range rep.Results {
		assert.Equal(t, "error", r.Status)
	}
}

func TestOracle_RuntimeErrorPropagates(t *testing.T) {
	rep := Run("x = ask(\"p\")\n", "dry.hand", nil, []string{"python"}, Options{})
	assert.Equal(t, "error", rep.Status)
}

// TestOracle_PythonEquivalence exercises the full subprocess comparison; it
// needs a python3 on PATH and is skipped otherwise.
func TestOracle_PythonEquivalence(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}

	cases := []struct {
		name   string
		source string
		inputs []string
	}{
		{"assign_show", "x: Int = 1\nshow x\n", nil},
		{"while_count", "i: Int = 0\nwhile i < 2:\n    i = i + 1\nshow i\n", nil},
		{"ask_echo", "x: Text = ask(\"p\")\nshow x\n", []string{"hola"}},
		{"functions", "🔧 add(a, b):\n    return a + b\nshow add(2, 3)\n", nil},
		{"floats", "show 1 / 2\nshow 0.1 + 0.2\n", nil},
		{"text", "show \"a\" + \"b\"\nshow 🌐 \"Hello\"\n", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := Run(tc.source, tc.name+".hand", tc.inputs, []string{"python"}, Options{})
			require.Len(t, rep.Results, 1)
			assert.Equal(t, "pass", rep.Results[0].Status, rep.Results[0].Detail)
		})
	}
}
