package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pubsubgen/internal/ir"
)

const namedConfig = `{
	"fields": {
		"age": ["Integer", 50, 20],
		"city": ["String", 30, 10],
		"station": {"type": "String"},
		"date": ["Date", 10]
	},
	"limits": {"age": "[0 100)"},
	"operators": ["=", "!=", "<", ">"]
}`

const positionalConfig = `[
	{
		"age": ["Integer", 50, 20],
		"city": ["String", 30, 10],
		"station": {"type": "String"},
		"date": ["Date", 10]
	},
	{"age": "[0 100)"},
	["=", "!=", "<", ">"],
	{"IS_MULTI_PROC": true, "NUMBER_OF_PROC": 4}
]`

func compileSource(t *testing.T, src string) (*ir.Config, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileConfig(v)
}

func goldenCompare(t *testing.T, name string, cfg *ir.Config) {
	t.Helper()
	data, err := ir.MarshalCanonical(cfg.Canonical())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestCompileConfigNamed(t *testing.T) {
	cfg, err := compileSource(t, namedConfig)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "city", "station", "date"}, cfg.Rules.Fields())
	assert.Equal(t, []string{"=", "!=", "<", ">"}, cfg.Operators)
	assert.Equal(t, ir.Parallelism{Enabled: false, Workers: 1}, cfg.Parallelism)

	goldenCompare(t, "rules_named", cfg)
}

func TestCompileConfigPositional(t *testing.T) {
	cfg, err := compileSource(t, positionalConfig)
	require.NoError(t, err)

	assert.Equal(t, ir.Parallelism{Enabled: true, Workers: 4}, cfg.Parallelism)
	goldenCompare(t, "rules_positional", cfg)
}

func TestCompileConfigCUESource(t *testing.T) {
	cfg, err := compileSource(t, `
fields: {
	temp: {type: "Integer", freq_field: 40}
	city: ["String", 100, 100]
}
limits: temp: "(-10 40]"
operators: ["=", ">="]
parallel: {enabled: true, workers: 2}
`)
	require.NoError(t, err)

	temp, ok := cfg.Rules.Lookup("temp")
	require.True(t, ok)
	assert.Equal(t, ir.Limits{Lo: -9, Hi: 40}, *temp.Limits)
	assert.Equal(t, int64(40), *temp.FreqField)
	assert.Equal(t, 2, cfg.Parallelism.Workers)
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "scalar root",
			src:  `42`,
			msg:  "list or an object",
		},
		{
			name: "positional too short",
			src:  `[{"a": ["Date"]}, {}]`,
			msg:  "at least 3 sections",
		},
		{
			name: "no fields",
			src:  `{"fields": {}, "operators": ["="]}`,
			msg:  "at least one field",
		},
		{
			name: "no operators",
			src:  `[{"a": ["Date"]}, {}, []]`,
			msg:  "at least one operator",
		},
		{
			name: "float percent positional",
			src:  `[{"a": ["Date", 12.5]}, {}, ["="]]`,
			msg:  "percentages must be integers",
		},
		{
			name: "tuple too long",
			src:  `[{"a": ["Date", 1, 2, 3]}, {}, ["="]]`,
			msg:  "got 4 entries",
		},
		{
			name: "zero workers",
			src:  `[{"a": ["Date"]}, {}, ["="], {"IS_MULTI_PROC": true, "NUMBER_OF_PROC": 0}]`,
			msg:  "at least 1",
		},
		{
			name: "unknown top-level key",
			src:  `{"fields": {"a": ["Date"]}, "operators": ["="], "extra": 1}`,
			msg:  "extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCompileConfigMalformedRange(t *testing.T) {
	_, err := compileSource(t, `{"fields": {"a": ["Integer"]}, "limits": {"a": "0 10"}, "operators": ["="]}`)
	require.Error(t, err)
	assert.True(t, IsMalformedRangeError(err))
}
