package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pubsubgen/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateClean(t *testing.T) {
	cfg := &ir.Config{
		Rules: &ir.RuleSet{Rules: []ir.Rule{
			{Field: "age", Type: ir.TypeInteger, Limits: &ir.Limits{Lo: 0, Hi: 9}, FreqField: pct(50), FreqOp: pct(20)},
			{Field: "city", Type: ir.TypeString},
		}},
		Operators:   []string{"=", "<"},
		Parallelism: ir.Parallelism{Workers: 1},
	}
	assert.Empty(t, Validate(cfg))
}

func TestValidateFindings(t *testing.T) {
	cfg := &ir.Config{
		Rules: &ir.RuleSet{Rules: []ir.Rule{
			{Field: "mood", Type: ir.TypeNone},
			{Field: "age", Type: ir.TypeInteger, FreqField: pct(10)},
			{Field: "station", Type: ir.TypeString},
			{Field: "date", Type: ir.TypeDate, FreqOp: pct(5)},
			{Field: "temp", Type: ir.TypeInteger, Limits: &ir.Limits{Lo: 0, Hi: 1}, FreqField: pct(10), FreqOp: pct(20)},
		}, UnusedLimits: []string{"height"}},
		Operators:   []string{"<", ">"},
		Parallelism: ir.Parallelism{Enabled: false, Workers: 3},
	}

	assert.Equal(t, []string{
		WarnUntypedField,
		WarnIntegerNoLimits,
		WarnQuotaOnSkipped,
		WarnStringNotCity,
		WarnOpWithoutField,
		WarnOpExceedsField,
		WarnUnusedLimit,
		WarnNoEqualityOp,
		WarnWorkersIgnored,
	}, codes(Validate(cfg)))
}

func TestValidationErrorMessage(t *testing.T) {
	e := ValidationError{Field: "age", Message: "oops", Code: WarnIntegerNoLimits}
	assert.Equal(t, "[W102] age: oops", e.Error())
}
