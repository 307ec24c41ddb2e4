package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a rule file error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MalformedRangeError is returned when a limit expression cannot be parsed.
// The run aborts: defaulting the bound would silently change the numeric domain.
type MalformedRangeError struct {
	Field  string // field the limit belongs to
	Expr   string // full limit expression
	Token  string // offending token, empty when the token count is wrong
	Reason string
}

func (e *MalformedRangeError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("malformed range for %s: %q: token %q: %s", e.Field, e.Expr, e.Token, e.Reason)
	}
	return fmt.Sprintf("malformed range for %s: %q: %s", e.Field, e.Expr, e.Reason)
}

// IsMalformedRangeError returns true if the error is a MalformedRangeError.
// Uses errors.As to handle wrapped errors.
func IsMalformedRangeError(err error) bool {
	var re *MalformedRangeError
	return errors.As(err, &re)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
