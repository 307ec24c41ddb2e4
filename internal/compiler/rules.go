package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/pubsubgen/internal/ir"
)

// CompileRules assembles one Rule per declared field.
//
// Limits are parsed first: a malformed interval aborts compilation even when the
// field it belongs to would otherwise be skipped or is not declared at all.
// Limits for undeclared fields are listed in UnusedLimits. Unknown type names
// produce a rule with ir.TypeNone, which generation treats as unsupported.
func CompileRules(specs []ir.FieldSpec, limitExprs map[string]string) (*ir.RuleSet, error) {
	limits, err := ParseLimits(limitExprs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(specs))
	rs := &ir.RuleSet{Rules: make([]ir.Rule, 0, len(specs))}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &CompileError{Field: "fields", Message: "field name must not be empty"}
		}
		if seen[spec.Name] {
			return nil, &CompileError{
				Field:   "fields." + spec.Name,
				Message: "field declared more than once",
			}
		}
		seen[spec.Name] = true

		for _, p := range []struct {
			name string
			val  *int64
		}{{"freq_field", spec.FreqField}, {"freq_op", spec.FreqOp}} {
			if p.val != nil && (*p.val < 0 || *p.val > 100) {
				return nil, &CompileError{
					Field:   fmt.Sprintf("fields.%s.%s", spec.Name, p.name),
					Message: fmt.Sprintf("percentage %d out of range [0, 100]", *p.val),
				}
			}
		}

		rule := ir.Rule{
			Field:     spec.Name,
			Type:      ir.ParseDataType(spec.Type),
			FreqField: spec.FreqField,
			FreqOp:    spec.FreqOp,
		}
		if l, ok := limits[spec.Name]; ok {
			rule.Limits = &l
		}
		rs.Rules = append(rs.Rules, rule)
	}

	for field := range limits {
		if !seen[field] {
			rs.UnusedLimits = append(rs.UnusedLimits, field)
		}
	}
	sort.Strings(rs.UnusedLimits)

	return rs, nil
}
