package compiler

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/pubsubgen/internal/ir"
)

// ParseLimit compiles an interval expression such as "[0 100)" into a closed interval.
//
// The lower token starts with '[' (inclusive) or '(' (exclusive, bound + 1).
// The upper token ends with ']' (inclusive) or ')' (exclusive, bound - 1).
// The normalized interval must not be empty.
func ParseLimit(field, expr string) (ir.Limits, error) {
	tokens := strings.Fields(expr)
	if len(tokens) != 2 {
		return ir.Limits{}, &MalformedRangeError{
			Field:  field,
			Expr:   expr,
			Reason: "expected two whitespace-separated bounds",
		}
	}
	lower, upper := tokens[0], tokens[1]

	var lo int64
	switch lower[0] {
	case '[':
		n, err := parseBound(field, expr, lower, lower[1:])
		if err != nil {
			return ir.Limits{}, err
		}
		lo = n
	case '(':
		n, err := parseBound(field, expr, lower, lower[1:])
		if err != nil {
			return ir.Limits{}, err
		}
		if n == math.MaxInt64 {
			return ir.Limits{}, &MalformedRangeError{
				Field:  field,
				Expr:   expr,
				Token:  lower,
				Reason: "exclusive lower bound overflows int64",
			}
		}
		lo = n + 1
	default:
		return ir.Limits{}, &MalformedRangeError{
			Field:  field,
			Expr:   expr,
			Token:  lower,
			Reason: "lower bound must start with '[' or '('",
		}
	}

	var hi int64
	switch upper[len(upper)-1] {
	case ']':
		n, err := parseBound(field, expr, upper, upper[:len(upper)-1])
		if err != nil {
			return ir.Limits{}, err
		}
		hi = n
	case ')':
		n, err := parseBound(field, expr, upper, upper[:len(upper)-1])
		if err != nil {
			return ir.Limits{}, err
		}
		if n == math.MinInt64 {
			return ir.Limits{}, &MalformedRangeError{
				Field:  field,
				Expr:   expr,
				Token:  upper,
				Reason: "exclusive upper bound overflows int64",
			}
		}
		hi = n - 1
	default:
		return ir.Limits{}, &MalformedRangeError{
			Field:  field,
			Expr:   expr,
			Token:  upper,
			Reason: "upper bound must end with ']' or ')'",
		}
	}

	if lo > hi {
		return ir.Limits{}, &MalformedRangeError{
			Field:  field,
			Expr:   expr,
			Reason: "interval is empty after normalization",
		}
	}

	return ir.Limits{Lo: lo, Hi: hi}, nil
}

func parseBound(field, expr, token, digits string) (int64, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &MalformedRangeError{
			Field:  field,
			Expr:   expr,
			Token:  token,
			Reason: "bound is not an integer",
		}
	}
	return n, nil
}

// ParseLimits compiles every limit expression, in field name order so that the
// reported error is stable.
func ParseLimits(exprs map[string]string) (map[string]ir.Limits, error) {
	fields := make([]string, 0, len(exprs))
	for f := range exprs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make(map[string]ir.Limits, len(exprs))
	for _, f := range fields {
		l, err := ParseLimit(f, exprs[f])
		if err != nil {
			return nil, err
		}
		out[f] = l
	}
	return out, nil
}
