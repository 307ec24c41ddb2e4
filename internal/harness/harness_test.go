package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pubsubgen/internal/engine"
)

func TestRunScenarios(t *testing.T) {
	for _, name := range []string{"age-city", "parallel", "single-city"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Output.Publications, s.Publications)
			assert.Len(t, result.Output.Subscriptions, s.Subscriptions)
		})
	}
}

func TestRunParallelChunks(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/parallel.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 100, 100}, result.Output.PublicationChunks)
	assert.Equal(t, []int{51, 51, 51, 50}, result.Output.SubscriptionChunks)
}

func TestRunIsDeterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/age-city.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first.Output)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second.Output)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunReportsLoadErrors(t *testing.T) {
	s := &Scenario{
		Name:          "broken",
		Description:   "rule file does not parse",
		RulesInline:   `{"fields": `,
		Cities:        []string{"Iasi"},
		Publications:  1,
		Subscriptions: 1,
		Assertions:    []Assertion{{Type: AssertTotalPubs}},
	}
	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
}

func TestRunReportsGenerationErrors(t *testing.T) {
	s := &Scenario{
		Name:          "infeasible",
		Description:   "equality quota above every field quota",
		RulesInline:   `{"fields": {"age": ["Integer", 10, 50]}, "limits": {"age": "[0 9]"}, "operators": ["="]}`,
		Cities:        []string{"Iasi"},
		Publications:  10,
		Subscriptions: 10,
		Assertions:    []Assertion{{Type: AssertTotalPubs}},
	}
	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.True(t, engine.IsQuotaInfeasibleError(err))
}

func TestRunCancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/age-city.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
