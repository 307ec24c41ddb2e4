package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
)

// Snapshot renders a run as canonical JSON:
//
//	{"name": ..., "publications": [...], "subscriptions": [...]}
func Snapshot(name string, out *engine.Result) ([]byte, error) {
	pubs := make([]any, len(out.Publications))
	for i, p := range out.Publications {
		pubs[i] = ir.Object(p)
	}
	subs := make([]any, len(out.Subscriptions))
	for i, s := range out.Subscriptions {
		subs[i] = s.List()
	}
	return ir.MarshalCanonical(map[string]any{
		"name":          name,
		"publications":  pubs,
		"subscriptions": subs,
	})
}

// RunWithGolden executes a scenario and compares its output against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result.Output)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
