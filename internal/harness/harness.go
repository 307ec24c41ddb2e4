package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pubsubgen/internal/compiler"
	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
	"github.com/roach88/pubsubgen/internal/testutil"
)

// inlineRulesName is the file name reported for inline rule sources.
const inlineRulesName = "rules_inline.cue"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	Config *ir.Config     `json:"-"`
	Cities []string       `json:"-"`
	Output *engine.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and evaluates its assertions.
//
// A returned error means the scenario could not run at all (bad rule file,
// empty city list, infeasible quota); failed assertions are reported in the
// Result instead.
func Run(ctx context.Context, scenario *Scenario, opts ...engine.Option) (*Result, error) {
	cfg, err := loadRules(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	cities, err := loadCities(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}

	start, step, err := scenario.Clock.parse()
	if err != nil {
		return nil, err
	}

	base := []engine.Option{
		engine.WithSeed(scenario.Seed),
		engine.WithClock(testutil.NewStepClock(start, step)),
		engine.WithWorkers(scenario.Workers),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	}
	gen := engine.New(cfg, cities, append(base, opts...)...)

	out, err := gen.Run(ctx, scenario.Publications, scenario.Subscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to generate: %w", err)
	}

	result := NewResult()
	result.Config = cfg
	result.Cities = cities
	result.Output = out

	for _, msg := range EvaluateAssertions(scenario, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadRules(s *Scenario) (*ir.Config, error) {
	if s.RulesInline != "" {
		return compiler.CompileSource(inlineRulesName, []byte(s.RulesInline))
	}
	return compiler.CompileFile(s.Rules)
}

func loadCities(s *Scenario) ([]string, error) {
	if s.CitiesFile != "" {
		return compiler.LoadCities(s.CitiesFile)
	}
	return s.Cities, nil
}
