package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("testdata", "scenarios")

func executeCheck(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheckPassingScenario(t *testing.T) {
	output, err := executeCheck(t, "text", filepath.Join(scenariosDir, "passing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, output, "✓ passing")
	assert.Contains(t, output, "Check Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestCheckDirectoryReportsFailures(t *testing.T) {
	output, err := executeCheck(t, "text", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, output, "✓ passing")
	assert.Contains(t, output, "✗ failing")
	assert.Contains(t, output, "total_pubs = 61")
	assert.Contains(t, output, "Check Summary: 1 passed, 1 failed, 2 total")
}

func TestCheckFilter(t *testing.T) {
	output, err := executeCheck(t, "json", scenariosDir, "--filter", "pass*")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "passing", resp.Data.Scenarios[0].Name)
}

func TestCheckJSONFailure(t *testing.T) {
	output, err := executeCheck(t, "json", filepath.Join(scenariosDir, "failing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCheckFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestCheckGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "golden-run.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`name: golden-run
description: Integer-only rules reproduce a stored snapshot
rules_inline: '{"fields": {"age": ["Integer", 50]}, "limits": {"age": "[0 9]"}, "operators": ["=", "<"]}'
cities: [Iasi]
seed: 11
publications: 5
subscriptions: 4
assertions:
  - type: total_pubs
`), 0o644))

	output, err := executeCheck(t, "text", scenario, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ golden-run (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "golden-run.golden")
	require.FileExists(t, goldenPath)

	_, err = executeCheck(t, "text", scenario)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"name":"golden-run"}`), 0o644))
	output, err = executeCheck(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "Golden file mismatch")
}

func TestCheckLoadErrorIsFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [unterminated"), 0o644))

	output, err := executeCheck(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "failed to load scenario")
}

func TestCheckCommandErrors(t *testing.T) {
	_, err := executeCheck(t, "text", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	output, err := executeCheck(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found.")
}
