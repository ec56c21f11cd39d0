package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hand-lang/handc/compiler/errors"
)

func TestReport_WriteShape(t *testing.T) {
	dir := t.TempDir()

	rep := New("prog.hand", "python", dir, 2)
	rep.Artifacts.Outputs = append(rep.Artifacts.Outputs, "main.py")
	rep.Capabilities.Declared = []string{"compute", "io.write"}
	rep.Capabilities.Required = []string{"compute", "io.write"}
	require.NoError(t, rep.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, "build_report.json"))
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "0.1", parsed["schema_version"])
	assert.Equal(t, "ok", parsed["status"])

	input := parsed["input"].(map[string]interface{})
	assert.Equal(t, "prog.hand", input["path"])

	artifacts := parsed["artifacts"].(map[string]interface{})
	assert.Equal(t, "python", artifacts["target"])
	assert.Equal(t, dir, artifacts["out_dir"])

	caps := parsed["capabilities"].(map[string]interface{})
	assert.Equal(t, float64(2), caps["supervision_level"])

	// Collections are present even when empty.
	assert.NotNil(t, parsed["diagnostics"])
	assert.NotNil(t, parsed["degradations"])
	assert.NotNil(t, caps["missing"])
	assert.NotNil(t, caps["approvals_needed"])
}

func TestReport_WrittenOnError(t *testing.T) {
	dir := t.TempDir()

	rep := New("prog.hand", "wasm", dir, 1)
	rep.Status = "error"
	rep.Diagnostics = append(rep.Diagnostics, errors.Diagnostic{
		Phase:    "capability",
		Code:     errors.ErrCapDenied,
		Message:  "denied",
		Severity: errors.Fatal,
	})
	require.NoError(t, rep.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, "build_report.json"))
	require.NoError(t, err)

	var parsed struct {
		Status      string              `json:"status"`
		Diagnostics []errors.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "error", parsed.Status)
	require.Len(t, parsed.Diagnostics, 1)
	assert.Equal(t, errors.ErrCapDenied, parsed.Diagnostics[0].Code)
}

func TestReport_CreatesOutDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dist")
	rep := New("prog.hand", "sql", dir, 2)
	require.NoError(t, rep.Write(dir))

	_, err := os.Stat(filepath.Join(dir, "build_report.json"))
	assert.NoError(t, err)
}
