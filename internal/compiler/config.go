package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/pubsubgen/internal/ir"
)

//go:embed schema.cue
var schemaSrc string

// Positions of the sections in the positional rule file layout.
const (
	posFields = iota
	posLimits
	posOperators
	posParallel
)

// CompileConfig parses a rule file CUE value into a Config.
//
// Two layouts are accepted:
//
//	[fields, limits, operators, {"IS_MULTI_PROC": bool, "NUMBER_OF_PROC": int}]
//	{fields: ..., limits: ..., operators: [...], parallel: {enabled: bool, workers: int}}
//
// A field is either a tuple [type, freq_field?, freq_op?] or an object
// {type, freq_field?, freq_op?}. JSON, CUE and YAML sources all decode to the same value.
func CompileConfig(v cue.Value) (*ir.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var fieldsVal, limitsVal, opsVal, parVal cue.Value
	var positional bool

	switch v.IncompleteKind() {
	case cue.ListKind:
		positional = true
		var elems []cue.Value
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			elems = append(elems, iter.Value())
		}
		if len(elems) < posOperators+1 {
			return nil, &CompileError{
				Field:   "config",
				Message: fmt.Sprintf("positional layout needs at least 3 sections, got %d", len(elems)),
				Pos:     v.Pos(),
			}
		}
		fieldsVal, limitsVal, opsVal = elems[posFields], elems[posLimits], elems[posOperators]
		if len(elems) > posParallel {
			parVal = elems[posParallel]
		}
	case cue.StructKind:
		validated, err := validateSchema(v)
		if err != nil {
			return nil, err
		}
		fieldsVal = validated.LookupPath(cue.ParsePath("fields"))
		limitsVal = validated.LookupPath(cue.ParsePath("limits"))
		opsVal = validated.LookupPath(cue.ParsePath("operators"))
		parVal = validated.LookupPath(cue.ParsePath("parallel"))
	default:
		return nil, &CompileError{
			Field:   "config",
			Message: fmt.Sprintf("rule file must be a list or an object, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	specs, err := parseFields(fieldsVal)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}

	limitExprs, err := parseLimitExprs(limitsVal)
	if err != nil {
		return nil, err
	}

	rules, err := CompileRules(specs, limitExprs)
	if err != nil {
		return nil, err
	}

	ops, err := parseOperators(opsVal)
	if err != nil {
		return nil, err
	}

	par, err := parseParallelism(parVal, positional)
	if err != nil {
		return nil, err
	}

	return &ir.Config{Rules: rules, Operators: ops, Parallelism: par}, nil
}

// validateSchema unifies the value with the embedded #Config definition.
func validateSchema(v cue.Value) (cue.Value, error) {
	schema := v.Context().CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile embedded schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return unified, nil
}

// parseFields extracts field specs in declaration order.
func parseFields(v cue.Value) ([]ir.FieldSpec, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields section is required"}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.FieldSpec
	for iter.Next() {
		name := iter.Label()
		spec, err := parseField(name, iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseField accepts [type, freq_field?, freq_op?] or {type, freq_field?, freq_op?}.
func parseField(name string, v cue.Value) (ir.FieldSpec, error) {
	spec := ir.FieldSpec{Name: name}

	switch v.IncompleteKind() {
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return spec, formatCUEError(err)
		}
		var elems []cue.Value
		for iter.Next() {
			elems = append(elems, iter.Value())
		}
		if len(elems) == 0 || len(elems) > 3 {
			return spec, &CompileError{
				Field:   "fields." + name,
				Message: fmt.Sprintf("expected [type, freq_field?, freq_op?], got %d entries", len(elems)),
				Pos:     v.Pos(),
			}
		}
		if spec.Type, err = elems[0].String(); err != nil {
			return spec, formatCUEError(err)
		}
		if len(elems) > 1 {
			if spec.FreqField, err = parsePercent(name, "freq_field", elems[1]); err != nil {
				return spec, err
			}
		}
		if len(elems) > 2 {
			if spec.FreqOp, err = parsePercent(name, "freq_op", elems[2]); err != nil {
				return spec, err
			}
		}
	case cue.StructKind:
		typeVal := v.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return spec, &CompileError{Field: "fields." + name + ".type", Message: "type is required", Pos: v.Pos()}
		}
		var err error
		if spec.Type, err = typeVal.String(); err != nil {
			return spec, formatCUEError(err)
		}
		if ff := v.LookupPath(cue.ParsePath("freq_field")); ff.Exists() {
			if spec.FreqField, err = parsePercent(name, "freq_field", ff); err != nil {
				return spec, err
			}
		}
		if fo := v.LookupPath(cue.ParsePath("freq_op")); fo.Exists() {
			if spec.FreqOp, err = parsePercent(name, "freq_op", fo); err != nil {
				return spec, err
			}
		}
	default:
		return spec, &CompileError{
			Field:   "fields." + name,
			Message: "field must be a list or an object",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parsePercent reads an integer percentage. Floats are rejected.
func parsePercent(field, attr string, v cue.Value) (*int64, error) {
	if v.IncompleteKind() == cue.NullKind {
		return nil, nil
	}
	if v.IncompleteKind() != cue.IntKind {
		return nil, &CompileError{
			Field:   fmt.Sprintf("fields.%s.%s", field, attr),
			Message: "percentages must be integers",
			Pos:     v.Pos(),
		}
	}
	n, err := v.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &n, nil
}

func parseLimitExprs(v cue.Value) (map[string]string, error) {
	exprs := make(map[string]string)
	if !v.Exists() {
		return exprs, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		exprs[iter.Label()] = s
	}
	return exprs, nil
}

func parseOperators(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "operators", Message: "operators section is required"}
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var ops []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ops = append(ops, s)
	}
	if len(ops) == 0 {
		return nil, &CompileError{Field: "operators", Message: "at least one operator is required", Pos: v.Pos()}
	}
	return ops, nil
}

// parseParallelism reads either {IS_MULTI_PROC, NUMBER_OF_PROC} or {enabled, workers}.
func parseParallelism(v cue.Value, positional bool) (ir.Parallelism, error) {
	par := ir.Parallelism{Workers: 1}
	if !v.Exists() {
		return par, nil
	}

	enabledKey, workersKey := "enabled", "workers"
	if positional {
		enabledKey, workersKey = "IS_MULTI_PROC", "NUMBER_OF_PROC"
	}

	if ev := v.LookupPath(cue.ParsePath(enabledKey)); ev.Exists() {
		b, err := ev.Bool()
		if err != nil {
			return par, formatCUEError(err)
		}
		par.Enabled = b
	}
	if wv := v.LookupPath(cue.ParsePath(workersKey)); wv.Exists() {
		n, err := wv.Int64()
		if err != nil {
			return par, formatCUEError(err)
		}
		if n < 1 {
			return par, &CompileError{
				Field:   "parallel." + workersKey,
				Message: fmt.Sprintf("worker count must be at least 1, got %d", n),
				Pos:     wv.Pos(),
			}
		}
		par.Workers = int(n)
	}
	return par, nil
}
