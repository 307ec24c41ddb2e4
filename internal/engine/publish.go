package engine

import (
	"math/rand/v2"

	"github.com/roach88/pubsubgen/internal/index"
	"github.com/roach88/pubsubgen/internal/ir"
)

// Publications draws count records and the frequency index built from them.
//
// Integer fields get a uniform value within their limits and city fields a
// uniform city; both are counted by value. Date fields get the clock's current
// time, recorded in the index in generation order. Unsupported fields get no key.
func Publications(rules *ir.RuleSet, cities []string, count int, rng *rand.Rand, clock Clock) ([]ir.Publication, *index.FrequencyIndex) {
	idx := index.New()
	idx.TotalPubs = count
	pubs := make([]ir.Publication, 0, count)

	for range count {
		pub := make(ir.Publication, rules.Len())
		for _, r := range rules.Rules {
			switch r.Kind() {
			case ir.KindInteger:
				v := ir.Int(uniformInt(rng, *r.Limits))
				pub[r.Field] = v
				idx.Observe(r.Field, v)
			case ir.KindCity:
				if len(cities) == 0 {
					continue
				}
				v := ir.String(pick(rng, cities))
				pub[r.Field] = v
				idx.Observe(r.Field, v)
			case ir.KindDate:
				ts := FormatTimestamp(clock.Now())
				pub[r.Field] = ir.String(ts)
				idx.ObserveDatetime(ts)
			case ir.KindUnsupported:
			}
		}
		pubs = append(pubs, pub)
	}
	return pubs, idx
}
