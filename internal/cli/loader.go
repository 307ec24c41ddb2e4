package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/pubsubgen/internal/compiler"
	"github.com/roach88/pubsubgen/internal/engine"
	"github.com/roach88/pubsubgen/internal/ir"
	"github.com/roach88/pubsubgen/internal/store"
)

// LoadError represents an error that occurred while loading command inputs
// or running the generator, tagged with a stable error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Detail is the message prefixed with the source position, without the code.
func (e *LoadError) Detail() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadRules compiles a rule file.
func LoadRules(path string) (*ir.Config, error) {
	cfg, err := compiler.CompileFile(path)
	if err != nil {
		return nil, convertError(err)
	}
	return cfg, nil
}

// LoadCities reads a city file.
func LoadCities(path string) ([]string, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeNoCities, Message: "--cities is required"}
	}
	cities, err := compiler.LoadCities(path)
	if err != nil {
		return nil, convertError(err)
	}
	return cities, nil
}

// convertError converts a compiler, engine or store error to a LoadError.
func convertError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
			Err:     err,
		}
	}

	return &LoadError{Code: MapErrorCode(err), Message: err.Error(), Err: err}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeParseFailed = "E004" // Rule file does not parse
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStoreFailed = "E008" // Run store error

	// Rule file errors
	ErrCodeFields      = "E101" // Invalid fields section
	ErrCodeLimits      = "E102" // Malformed limit expression
	ErrCodeOperators   = "E103" // Missing or empty operator list
	ErrCodeParallel    = "E104" // Invalid parallel settings
	ErrCodeNoCities    = "E105" // Empty or missing city list
	ErrCodeConfig      = "E106" // Empty rule file or wrong layout
	ErrCodeInvalidArgs = "E107" // Invalid count or flag value

	// Generation errors
	ErrCodeQuotaInfeasible = "E201" // Equality quota exceeds every field quota
	ErrCodeEmptyResult     = "E202" // A phase produced no records
	ErrCodeCancelled       = "E203" // Interrupted by signal
	ErrCodeCheckFailed     = "E301" // One or more scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	section, _, _ := strings.Cut(field, ".")
	switch section {
	case "fields":
		return ErrCodeFields
	case "limits":
		return ErrCodeLimits
	case "operators":
		return ErrCodeOperators
	case "parallel":
		return ErrCodeParallel
	case "cities":
		return ErrCodeNoCities
	case "config":
		return ErrCodeConfig
	case "cue":
		return ErrCodeParseFailed
	default:
		return ErrCodeGeneric
	}
}

// MapErrorCode maps any error returned by the lower layers to an error code.
func MapErrorCode(err error) string {
	var compileErr *compiler.CompileError
	switch {
	case errors.As(err, &compileErr):
		return MapFieldToErrorCode(compileErr.Field)
	case compiler.IsMalformedRangeError(err):
		return ErrCodeLimits
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, store.ErrRunNotFound):
		return ErrCodeNotFound
	case errors.Is(err, engine.ErrNoCities):
		return ErrCodeNoCities
	case errors.Is(err, engine.ErrNoOperators):
		return ErrCodeOperators
	case engine.IsQuotaInfeasibleError(err):
		return ErrCodeQuotaInfeasible
	case engine.IsEmptyResultError(err):
		return ErrCodeEmptyResult
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	default:
		return ErrCodeGeneric
	}
}

// exitCodeFor picks the exit code for a failed command.
// Input and configuration problems exit with ExitCommandError; failures of
// the generation itself exit with ExitFailure.
func exitCodeFor(code string) int {
	switch code {
	case ErrCodeEmptyResult, ErrCodeCancelled, ErrCodeWriteFailed, ErrCodeStoreFailed:
		return ExitFailure
	default:
		return ExitCommandError
	}
}

// fail reports err through the formatter and returns the matching ExitError.
func fail(formatter *OutputFormatter, err error) error {
	loadErr := convertError(err)
	_ = formatter.Error(loadErr.Code, loadErr.Detail(), nil)
	return WrapExitError(exitCodeFor(loadErr.Code), loadErr.Code, err)
}

// failWith is fail with a fixed code, for errors whose origin the caller knows.
func failWith(formatter *OutputFormatter, code string, err error) error {
	return fail(formatter, &LoadError{Code: code, Message: err.Error(), Err: err})
}
