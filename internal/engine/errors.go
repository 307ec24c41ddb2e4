package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCities is returned when the rules declare a city field but the city list is empty.
	ErrNoCities = errors.New("city list is empty")

	// ErrNoOperators is returned when there are no operators to draw from.
	ErrNoOperators = errors.New("operator list is empty")
)

// QuotaInfeasibleError reports that an equality quota cannot be satisfied
// because it needs more subscriptions than the largest field quota provides.
// It is detected before any subscription is generated.
type QuotaInfeasibleError struct {
	// Field is the field carrying the largest equality quota.
	Field string

	// MaxFieldQuota is max(field_nr_gen), zero when no field quota is set.
	MaxFieldQuota int

	// MaxOpQuota is max(op_nr_gen).
	MaxOpQuota int

	// Subscriptions is the count the quotas were computed for.
	Subscriptions int
}

func (e *QuotaInfeasibleError) Error() string {
	return fmt.Sprintf("equality quota %d for field %q exceeds the largest field quota %d (%d subscriptions)",
		e.MaxOpQuota, e.Field, e.MaxFieldQuota, e.Subscriptions)
}

// EmptyResultError reports that a phase produced no records.
type EmptyResultError struct {
	Phase     Phase
	Requested int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s phase produced no records (requested %d)", e.Phase, e.Requested)
}

// IsQuotaInfeasibleError returns true if err is or wraps a QuotaInfeasibleError.
func IsQuotaInfeasibleError(err error) bool {
	var qe *QuotaInfeasibleError
	return errors.As(err, &qe)
}

// IsEmptyResultError returns true if err is or wraps an EmptyResultError.
func IsEmptyResultError(err error) bool {
	var ee *EmptyResultError
	return errors.As(err, &ee)
}
