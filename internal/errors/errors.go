package apperrors

import (
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess      = 0 // Indicates successful execution.
	ExitErrorGeneric = 1 // Indicates a generic error, including invalid input.
	ExitErrorConfig  = 4 // Indicates a configuration error.
)

var (
	// ErrInvalidArgument is matched by every error caused by a negative flip
	// count, a non-positive iteration count or any other malformed input that
	// reaches the simulation core.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOverflow is matched when 2^k cannot be represented as an int.
	ErrOverflow = errors.New("outcome count exceeds the supported range")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e ValidationError) Unwrap() error { return ErrInvalidArgument }

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(field, format string, a ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// OverflowError reports a flip count whose outcome space does not fit in an
// int or is too large to enumerate.
type OverflowError struct {
	// Flips is the requested number of flips per iteration.
	Flips int
	// MaxFlips is the largest flip count accepted at that point.
	MaxFlips int
}

// Error returns a formatted message describing the overflow.
func (e OverflowError) Error() string {
	return fmt.Sprintf("2^%d outcomes exceeds the supported range (max flips per iteration: %d)", e.Flips, e.MaxFlips)
}

// Unwrap lets errors.Is match ErrOverflow.
func (e OverflowError) Unwrap() error { return ErrOverflow }

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// ExitCodeFor maps an error to the process exit code the CLI should return.
// Invalid input exits with ExitErrorGeneric to match the usage-error
// convention; configuration errors exit with ExitErrorConfig.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}
