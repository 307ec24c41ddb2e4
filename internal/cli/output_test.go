package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"publications": 10})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"publications": float64(10)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    buf,
		ErrWriter: stderr,
	}

	err := formatter.Error(ErrCodeLimits, "malformed range", map[string]string{"field": "age"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E102", resp.Error.Code)
	assert.Equal(t, "malformed range", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Empty(t, stderr.String(), "JSON errors stay on the main writer")
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    stdout,
		ErrWriter: stderr,
	}

	require.NoError(t, formatter.Error(ErrCodeNoCities, "city list is empty", nil))
	assert.Empty(t, stdout.String())
	assert.Equal(t, "Error [E105]: city list is empty\n", stderr.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error(ErrCodeGeneric, "boom", map[string]string{"file": "rules.json"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]: boom")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    stdout,
				ErrWriter: stderr,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Compiling %s", "rules.json")

			assert.Empty(t, stdout.String())
			if tt.wantLog {
				assert.Equal(t, "Compiling rules.json\n", stderr.String())
			} else {
				assert.Empty(t, stderr.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	inner := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", inner, ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "write", inner)), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitFailure, "E007", inner)

	assert.Equal(t, "E007: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}
