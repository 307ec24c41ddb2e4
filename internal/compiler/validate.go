package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/pubsubgen/internal/ir"
)

// Validation warning codes (W100-W199).
// Warnings never abort a run; they point at rules that will not behave as the
// author probably intended.
const (
	WarnUntypedField    = "W101" // type name not recognized, field never generated
	WarnIntegerNoLimits = "W102" // Integer field without limits, never generated
	WarnStringNotCity   = "W103" // String field other than city, never generated
	WarnQuotaOnSkipped  = "W104" // quota declared on a field that is never generated
	WarnOpWithoutField  = "W105" // freq_op without freq_field
	WarnOpExceedsField  = "W106" // freq_op larger than freq_field for the same field
	WarnNoEqualityOp    = "W107" // operator list has no equality operator
	WarnWorkersIgnored  = "W108" // worker count set while parallel mode is disabled
	WarnUnusedLimit     = "W109" // limit for a field that is not declared
)

// ValidationError describes one non-fatal finding about a compiled config.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate inspects a compiled config and returns all findings.
// It does not fail fast; callers log the result.
func Validate(cfg *ir.Config) []ValidationError {
	var errs []ValidationError

	for _, r := range cfg.Rules.Rules {
		kind := r.Kind()
		switch {
		case r.Type == ir.TypeNone:
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: "type not recognized; field is never generated",
				Code:    WarnUntypedField,
			})
		case r.Type == ir.TypeInteger && kind == ir.KindUnsupported:
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: "Integer field has no limits; field is never generated",
				Code:    WarnIntegerNoLimits,
			})
		case r.Type == ir.TypeString && kind == ir.KindUnsupported:
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: fmt.Sprintf("only the %q String field has a generator", ir.CityField),
				Code:    WarnStringNotCity,
			})
		}

		if kind == ir.KindUnsupported && (r.FreqField != nil || r.FreqOp != nil) {
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: "quota declared on a field that is never generated",
				Code:    WarnQuotaOnSkipped,
			})
		}

		if r.FreqOp != nil && r.FreqField == nil {
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: "freq_op declared without freq_field",
				Code:    WarnOpWithoutField,
			})
		}
		if r.FreqOp != nil && r.FreqField != nil && *r.FreqOp > *r.FreqField {
			errs = append(errs, ValidationError{
				Field:   r.Field,
				Message: fmt.Sprintf("freq_op %d%% exceeds freq_field %d%%", *r.FreqOp, *r.FreqField),
				Code:    WarnOpExceedsField,
			})
		}
	}

	for _, f := range cfg.Rules.UnusedLimits {
		errs = append(errs, ValidationError{
			Field:   "limits." + f,
			Message: "limit for a field that is not declared; ignored",
			Code:    WarnUnusedLimit,
		})
	}

	if !slices.Contains(cfg.Operators, ir.EqualityOperator) {
		errs = append(errs, ValidationError{
			Field:   "operators",
			Message: fmt.Sprintf("no %q operator; only city predicates can match exactly", ir.EqualityOperator),
			Code:    WarnNoEqualityOp,
		})
	}

	if !cfg.Parallelism.Enabled && cfg.Parallelism.Workers > 1 {
		errs = append(errs, ValidationError{
			Field:   "parallel",
			Message: fmt.Sprintf("%d workers configured but parallel mode is disabled", cfg.Parallelism.Workers),
			Code:    WarnWorkersIgnored,
		})
	}

	return errs
}
