package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pubsubgen/internal/store"
)

func executeStats(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewStatsCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// recordTestRun generates a small run into dbPath and returns its run ID.
func recordTestRun(t *testing.T, dbPath string, seed string) string {
	t.Helper()
	stdout, _, err := executeGenerate(t, "json", testRules,
		"--cities", testCities, "-p", "40", "-s", "10", "--seed", seed,
		"-o", t.TempDir(), "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	return resp.Data.RunID
}

func TestStatsText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	first := recordTestRun(t, dbPath, "1")
	second := recordTestRun(t, dbPath, "2")

	output, err := executeStats(t, "text", "--db", dbPath, "--top", "3")
	require.NoError(t, err)

	assert.Contains(t, output, first)
	assert.Contains(t, output, second)
	assert.Contains(t, output, "Run "+second, "latest run is selected by default")
	assert.Contains(t, output, "  age: ")
	assert.Contains(t, output, "  city: ")
	assert.Contains(t, output, "40 total")
}

func TestStatsJSONSelectedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	first := recordTestRun(t, dbPath, "1")
	recordTestRun(t, dbPath, "2")

	output, err := executeStats(t, "json", "--db", dbPath, "--run", first, "--top", "2")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   StatsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, first, resp.Data.Selected)

	byField := make(map[string]FieldStats)
	for _, f := range resp.Data.Fields {
		byField[f.Field] = f
	}
	require.Contains(t, byField, "city")
	city := byField["city"]
	assert.Equal(t, 40, city.Total)
	assert.LessOrEqual(t, city.Distinct, 5)
	assert.LessOrEqual(t, len(city.Top), 2)
	if len(city.Top) == 2 {
		assert.GreaterOrEqual(t, city.Top[0].Count, city.Top[1].Count)
	}
}

func TestStatsEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	output, err := executeStats(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", output)
}

func TestStatsUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordTestRun(t, dbPath, "1")

	output, err := executeStats(t, "text", "--db", dbPath, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, output, "text errors go to stderr")
}

func TestStatsErrors(t *testing.T) {
	t.Setenv(EnvDatabase, "")

	_, err := executeStats(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	output, err := executeStats(t, "json", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}
