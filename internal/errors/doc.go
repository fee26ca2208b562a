// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (invalid input,
// overflow, configuration) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Typed errors unwrap to the package sentinels so callers can match on
// errors.Is(err, ErrInvalidArgument) without knowing the concrete type.
package apperrors
