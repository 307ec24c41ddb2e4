package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/pubsubgen/internal/ir"
)

// CompileSource compiles the contents of a rule file.
// The filename extension selects the decoder: .yaml and .yml go through the
// CUE YAML decoder, anything else (.json, .cue) is compiled as CUE, which
// accepts JSON unchanged.
func CompileSource(filename string, data []byte) (*ir.Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CompileError{Field: "config", Message: fmt.Sprintf("rule file %s is empty", filename)}
	}

	ctx := cuecontext.New()
	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	default:
		v = ctx.CompileBytes(data, cue.Filename(filename))
	}
	return CompileConfig(v)
}

// CompileFile reads and compiles a rule file.
func CompileFile(path string) (*ir.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return CompileSource(path, data)
}
