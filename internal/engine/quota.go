package engine

import (
	"github.com/roach88/pubsubgen/internal/ir"
)

// QuotaPlan holds the per-field quotas for one batch of subscriptions.
//
// FieldTargets[f] = floor(freq_field(f) * total / 100) is the number of leading
// subscriptions that must carry f. OpTargets[f] = floor(freq_op(f) * total / 100)
// is the equality quota; it only feeds the feasibility check.
type QuotaPlan struct {
	Total        int
	FieldTargets map[string]int
	OpTargets    map[string]int

	order []string // fields with a field quota, declaration order
}

// PlanQuotas computes the quotas for total subscriptions and checks that the
// largest equality quota fits inside the largest field quota. An empty set of
// quotas counts as zero.
func PlanQuotas(rules *ir.RuleSet, total int) (*QuotaPlan, error) {
	p := &QuotaPlan{
		Total:        total,
		FieldTargets: make(map[string]int),
		OpTargets:    make(map[string]int),
	}
	for _, r := range rules.Rules {
		if r.FreqField != nil {
			p.FieldTargets[r.Field] = percentOf(*r.FreqField, total)
			p.order = append(p.order, r.Field)
		}
		if r.FreqOp != nil {
			p.OpTargets[r.Field] = percentOf(*r.FreqOp, total)
		}
	}

	maxField := 0
	for _, n := range p.FieldTargets {
		maxField = max(maxField, n)
	}
	maxOp, opField := 0, ""
	for _, r := range rules.Rules {
		if n, ok := p.OpTargets[r.Field]; ok && n > maxOp {
			maxOp, opField = n, r.Field
		}
	}
	if maxField < maxOp {
		return nil, &QuotaInfeasibleError{
			Field:         opField,
			MaxFieldQuota: maxField,
			MaxOpQuota:    maxOp,
			Subscriptions: total,
		}
	}
	return p, nil
}

// Mandatory returns the fields whose quota is still active at subscription i,
// in declaration order. Quotas are consumed front-loaded: field f is mandatory
// for exactly the first FieldTargets[f] subscriptions.
func (p *QuotaPlan) Mandatory(i int) []string {
	var out []string
	for _, f := range p.order {
		if p.FieldTargets[f] > i {
			out = append(out, f)
		}
	}
	return out
}

func percentOf(pct int64, total int) int {
	return int(pct * int64(total) / 100)
}
