package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pubsubgen/internal/ir"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		expr string
		want ir.Limits
	}{
		{"[0 100)", ir.Limits{Lo: 0, Hi: 99}},
		{"(0 100]", ir.Limits{Lo: 1, Hi: 100}},
		{"[0 100]", ir.Limits{Lo: 0, Hi: 100}},
		{"(0 100)", ir.Limits{Lo: 1, Hi: 99}},
		{"[-30 45]", ir.Limits{Lo: -30, Hi: 45}},
		{"[7 7]", ir.Limits{Lo: 7, Hi: 7}},
		{"[-9223372036854775808 9223372036854775807]", ir.Limits{Lo: math.MinInt64, Hi: math.MaxInt64}},
		{"  [1   5]  ", ir.Limits{Lo: 1, Hi: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseLimit("age", tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Lo, got.Hi)
		})
	}
}

func TestParseLimitMalformed(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		token string
	}{
		{"bad lower marker", "{0 100)", "{0"},
		{"bad upper marker", "[0 100}", "100}"},
		{"missing upper marker", "[0 100", "100"},
		{"non-integer lower", "[a 100)", "[a"},
		{"non-integer upper", "[0 1.5]", "1.5]"},
		{"bare bracket", "[ 100)", ""},
		{"one token", "[0,100)", ""},
		{"three tokens", "[0 50 100)", ""},
		{"empty", "", ""},
		{"empty interval", "(5 6)", ""},
		{"exclusive lower at max int64", "(9223372036854775807 9223372036854775807]", "(9223372036854775807"},
		{"exclusive upper at min int64", "[0 -9223372036854775808)", "-9223372036854775808)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLimit("age", tt.expr)
			require.Error(t, err)
			assert.True(t, IsMalformedRangeError(err))

			var re *MalformedRangeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "age", re.Field)
			if tt.token != "" {
				assert.Equal(t, tt.token, re.Token)
			}
		})
	}
}

func TestParseLimitsStableError(t *testing.T) {
	_, err := ParseLimits(map[string]string{
		"zeta":  "{0 1]",
		"alpha": "[0 1}",
	})
	require.Error(t, err)

	var re *MalformedRangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "alpha", re.Field)
}

func TestMalformedRangeErrorMessage(t *testing.T) {
	err := &MalformedRangeError{Field: "age", Expr: "{0 1]", Token: "{0", Reason: "bad"}
	assert.Contains(t, err.Error(), "age")
	assert.Contains(t, err.Error(), `"{0"`)
	assert.False(t, IsMalformedRangeError(assert.AnError))
}
