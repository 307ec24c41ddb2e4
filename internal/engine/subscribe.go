package engine

import (
	"math/rand/v2"

	"github.com/roach88/pubsubgen/internal/index"
	"github.com/roach88/pubsubgen/internal/ir"
)

// Subscriptions draws count subscriptions against idx.
//
// For subscription i the mandatory fields are those whose field quota is still
// active. The subscription size is uniform in [max(1, |mandatory|), |fields|].
// Every mandatory field contributes one predicate, then the remaining slots are
// filled by sampling without replacement from the other fields that can still
// produce a value. A subscription is only shorter than its target when that
// pool runs dry.
//
// City predicates always use equality on the most frequent remaining city and
// decrement its count in idx, so the caller must pass an index it owns.
// Integer and Date predicates use a uniform operator.
func Subscriptions(rules *ir.RuleSet, idx *index.FrequencyIndex, operators []string, count int, rng *rand.Rand) ([]ir.Subscription, error) {
	return newSubscriber(rules, idx, operators, rng, nopObserver{}).run(count)
}

type subscriber struct {
	rules     *ir.RuleSet
	idx       *index.FrequencyIndex
	operators []string
	rng       *rand.Rand
	obs       Observer
}

func newSubscriber(rules *ir.RuleSet, idx *index.FrequencyIndex, operators []string, rng *rand.Rand, obs Observer) *subscriber {
	return &subscriber{rules: rules, idx: idx, operators: operators, rng: rng, obs: obs}
}

func (s *subscriber) run(count int) ([]ir.Subscription, error) {
	if len(s.operators) == 0 {
		return nil, ErrNoOperators
	}
	plan, err := PlanQuotas(s.rules, count)
	if err != nil {
		return nil, err
	}

	subs := make([]ir.Subscription, 0, count)
	for i := range count {
		sub := s.next(plan.Mandatory(i))
		s.obs.SubscriptionGenerated(sub)
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *subscriber) next(mandatory []string) ir.Subscription {
	lo := max(1, len(mandatory))
	size := lo + s.rng.IntN(s.rules.Len()-lo+1)

	sub := make(ir.Subscription, 0, size)
	isMandatory := make(map[string]bool, len(mandatory))
	for _, f := range mandatory {
		isMandatory[f] = true
		r, _ := s.rules.Lookup(f)
		if p, ok := s.predicate(r); ok {
			sub = append(sub, p)
		}
	}

	// Slots a mandatory field could not fill go to the optional pool too.
	if extra := size - len(sub); extra > 0 {
		var pool []ir.Rule
		for _, r := range s.rules.Rules {
			if !isMandatory[r.Field] && s.canGenerate(r) {
				pool = append(pool, r)
			}
		}
		for _, r := range sample(s.rng, pool, extra) {
			if p, ok := s.predicate(r); ok {
				sub = append(sub, p)
			}
		}
	}
	return sub
}

// canGenerate reports whether r can currently produce a predicate.
func (s *subscriber) canGenerate(r ir.Rule) bool {
	switch r.Kind() {
	case ir.KindInteger:
		return true
	case ir.KindCity:
		return s.idx.Available(r.Field)
	case ir.KindDate:
		return len(s.idx.Datetimes) > 0
	default:
		return false
	}
}

func (s *subscriber) predicate(r ir.Rule) (ir.Predicate, bool) {
	switch r.Kind() {
	case ir.KindInteger:
		v := uniformInt(s.rng, *r.Limits)
		return ir.Predicate{Field: r.Field, Operator: pick(s.rng, s.operators), Value: ir.Int(v)}, true
	case ir.KindCity:
		c, ok := s.idx.Take(r.Field)
		if !ok {
			s.obs.PredicateSkipped(r.Field, SkipExhausted)
			return ir.Predicate{}, false
		}
		return ir.Predicate{Field: r.Field, Operator: ir.EqualityOperator, Value: c}, true
	case ir.KindDate:
		if len(s.idx.Datetimes) == 0 {
			s.obs.PredicateSkipped(r.Field, SkipExhausted)
			return ir.Predicate{}, false
		}
		ts := pick(s.rng, s.idx.Datetimes)
		return ir.Predicate{Field: r.Field, Operator: pick(s.rng, s.operators), Value: ir.String(ts)}, true
	default:
		s.obs.PredicateSkipped(r.Field, SkipUnsupported)
		return ir.Predicate{}, false
	}
}
