package testutil

import "github.com/roach88/pubsubgen/internal/ir"

// Cities is a small fixed city list for tests.
var Cities = []string{"Iasi", "Cluj", "Bucuresti", "Timisoara", "Brasov"}

func percent(v int64) *int64 { return &v }

// AgeCityConfig returns the compiled form of the reference rule file:
//
//	age:  Integer [0 99], freq_field 50, freq_op 20
//	city: String, freq_field 30, freq_op 10
//	date: Date
//
// with all six comparison operators and parallelism off.
// Every call returns a fresh value.
func AgeCityConfig() *ir.Config {
	return &ir.Config{
		Rules: &ir.RuleSet{Rules: []ir.Rule{
			{Field: "age", Type: ir.TypeInteger, Limits: &ir.Limits{Lo: 0, Hi: 99}, FreqField: percent(50), FreqOp: percent(20)},
			{Field: "city", Type: ir.TypeString, FreqField: percent(30), FreqOp: percent(10)},
			{Field: "date", Type: ir.TypeDate},
		}},
		Operators:   []string{"=", "!=", "<", "<=", ">", ">="},
		Parallelism: ir.Parallelism{Workers: 1},
	}
}
