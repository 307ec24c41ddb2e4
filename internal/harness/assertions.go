package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per failure.
func EvaluateAssertions(scenario *Scenario, result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFieldCoverage:
			err = assertFieldCoverage(result, assertion)
		case AssertPredicateBounds:
			err = assertPredicateBounds(result, assertion)
		case AssertCityCap:
			err = assertCityCap(result)
		case AssertValueRange:
			err = assertValueRange(result, assertion)
		case AssertTotalPubs:
			err = assertTotalPubs(scenario, result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// chunkRange is the [lo, hi) slice of subscriptions one worker produced.
type chunkRange struct{ lo, hi int }

func subscriptionChunks(out *engine.Result) []chunkRange {
	var ranges []chunkRange
	lo := 0
	for _, size := range out.SubscriptionChunks {
		ranges = append(ranges, chunkRange{lo: lo, hi: lo + size})
		lo += size
	}
	return ranges
}

// assertFieldCoverage checks that quotas were front-loaded in every chunk:
// subscription i of a chunk carries f whenever i < field_nr_gen[f] for that chunk.
// Fields without a generator are exempt.
func assertFieldCoverage(result *Result, a Assertion) error {
	rules := result.Config.Rules
	subs := result.Output.Subscriptions

	for chunk, r := range subscriptionChunks(result.Output) {
		plan, err := engine.PlanQuotas(rules, r.hi-r.lo)
		if err != nil {
			return fmt.Errorf("field_coverage: chunk %d: %w", chunk, err)
		}
		for _, rule := range rules.Rules {
			if a.Field != "" && rule.Field != a.Field {
				continue
			}
			if rule.Kind() == ir.KindUnsupported {
				continue
			}
			target := plan.FieldTargets[rule.Field]
			for i := 0; i < target; i++ {
				if !subs[r.lo+i].Fields()[rule.Field] {
					return &AssertionError{
						Type:     AssertFieldCoverage,
						Expected: fmt.Sprintf("first %d subscriptions of chunk %d carry %q", target, chunk, rule.Field),
						Actual:   fmt.Sprintf("subscription %d has no %q predicate", r.lo+i, rule.Field),
					}
				}
			}
		}
	}
	return nil
}

// assertPredicateBounds checks every subscription size against [min, max].
// Without an explicit min, the lower bound of subscription i in a chunk is
// max(1, |mandatory fields at i|), capped by the number of fields that have a
// generator. Scenarios that exhaust the city stock should set min explicitly.
func assertPredicateBounds(result *Result, a Assertion) error {
	rules := result.Config.Rules
	hi := rules.Len()
	if a.Max != nil {
		hi = *a.Max
	}
	generatable := 0
	for _, r := range rules.Rules {
		if r.Kind() != ir.KindUnsupported {
			generatable++
		}
	}

	subs := result.Output.Subscriptions
	for chunk, r := range subscriptionChunks(result.Output) {
		plan, err := engine.PlanQuotas(rules, r.hi-r.lo)
		if err != nil {
			return fmt.Errorf("predicate_bounds: chunk %d: %w", chunk, err)
		}
		for i := r.lo; i < r.hi; i++ {
			lo := min(max(1, len(plan.Mandatory(i-r.lo))), generatable)
			if a.Min != nil {
				lo = *a.Min
			}
			sub := subs[i]
			if n := len(sub); n < lo || n > hi {
				return &AssertionError{
					Type:     AssertPredicateBounds,
					Expected: fmt.Sprintf("between %d and %d predicates", lo, hi),
					Actual:   fmt.Sprintf("subscription %d has %d", i, n),
				}
			}
			if fields := sub.Fields(); len(fields) != len(sub) {
				return &AssertionError{
					Type:     AssertPredicateBounds,
					Expected: "each field at most once per subscription",
					Actual:   fmt.Sprintf("subscription %d repeats a field", i),
				}
			}
		}
	}
	return nil
}

// assertCityCap checks that no chunk emitted a city more often than the merged
// index counted it. Chunks work on independent clones, so the cap is per chunk.
func assertCityCap(result *Result) error {
	out := result.Output
	for _, rule := range result.Config.Rules.Rules {
		if rule.Kind() != ir.KindCity {
			continue
		}
		for chunk, r := range subscriptionChunks(out) {
			used := make(map[ir.Scalar]int)
			for _, sub := range out.Subscriptions[r.lo:r.hi] {
				for _, p := range sub {
					if p.Field == rule.Field {
						used[p.Value]++
					}
				}
			}
			for v, n := range used {
				if limit := out.Index.Count(rule.Field, v); n > limit {
					return &AssertionError{
						Type:     AssertCityCap,
						Expected: fmt.Sprintf("%s=%s used at most %d times in chunk %d", rule.Field, ir.ScalarString(v), limit, chunk),
						Actual:   fmt.Sprintf("used %d times", n),
					}
				}
			}
		}
	}
	return nil
}

func assertValueRange(result *Result, a Assertion) error {
	cities := make(map[string]bool, len(result.Cities))
	for _, c := range result.Cities {
		cities[c] = true
	}
	operators := make(map[string]bool, len(result.Config.Operators))
	for _, op := range result.Config.Operators {
		operators[op] = true
	}

	check := func(where string, rule ir.Rule, v ir.Value) error {
		switch rule.Kind() {
		case ir.KindInteger:
			n, ok := v.(ir.Int)
			if !ok || !rule.Limits.Contains(int64(n)) {
				return &AssertionError{
					Type:     AssertValueRange,
					Expected: fmt.Sprintf("%s within [%d, %d]", rule.Field, rule.Limits.Lo, rule.Limits.Hi),
					Actual:   fmt.Sprintf("%s has %v", where, v),
				}
			}
		case ir.KindCity:
			s, ok := v.(ir.String)
			if !ok || !cities[string(s)] {
				return &AssertionError{
					Type:     AssertValueRange,
					Expected: fmt.Sprintf("%s from the city list", rule.Field),
					Actual:   fmt.Sprintf("%s has %v", where, v),
				}
			}
		}
		return nil
	}

	rules := result.Config.Rules
	for i, pub := range result.Output.Publications {
		for _, rule := range rules.Rules {
			if a.Field != "" && rule.Field != a.Field {
				continue
			}
			v, ok := pub[rule.Field]
			if !ok {
				continue
			}
			if err := check(fmt.Sprintf("publication %d", i), rule, v); err != nil {
				return err
			}
		}
	}

	for i, sub := range result.Output.Subscriptions {
		for _, p := range sub {
			if a.Field != "" && p.Field != a.Field {
				continue
			}
			rule, ok := rules.Lookup(p.Field)
			if !ok {
				return &AssertionError{
					Type:     AssertValueRange,
					Expected: "predicates on declared fields only",
					Actual:   fmt.Sprintf("subscription %d uses %q", i, p.Field),
				}
			}
			where := fmt.Sprintf("subscription %d", i)
			if err := check(where, rule, p.Value); err != nil {
				return err
			}
			validOp := operators[p.Operator]
			if rule.Kind() == ir.KindCity {
				validOp = p.Operator == ir.EqualityOperator
			}
			if !validOp {
				return &AssertionError{
					Type:     AssertValueRange,
					Expected: fmt.Sprintf("a configured operator for %s", p.Field),
					Actual:   fmt.Sprintf("%s uses %q", where, p.Operator),
				}
			}
		}
	}
	return nil
}

func assertTotalPubs(scenario *Scenario, result *Result, a Assertion) error {
	want := a.Count
	if want == 0 {
		want = scenario.Publications
	}
	out := result.Output
	if out.Index.TotalPubs != want || len(out.Publications) != want {
		return &AssertionError{
			Type:     AssertTotalPubs,
			Expected: fmt.Sprintf("total_pubs = %d", want),
			Actual:   fmt.Sprintf("index counted %d, generated %d", out.Index.TotalPubs, len(out.Publications)),
		}
	}
	return nil
}
