package errors

import (
	"fmt"
)

// Error is the structured error type for Passage.
// It provides context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_MODE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with *Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// BackendError creates a search-backend availability error.
// Backend errors are retryable.
func BackendError(message string, cause error) *Error {
	return New(ErrCodeBackendUnavailable, message, cause)
}

// InvalidMode creates the error returned for an unknown retrieval mode.
func InvalidMode(mode string) *Error {
	return New(ErrCodeInvalidMode,
		fmt.Sprintf("unknown retrieval mode %q (want vector, keyword, or hybrid)", mode), nil).
		WithDetail("mode", mode)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an *Error with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*Error); ok {
		return pe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*Error); ok {
		return pe.Severity == SeverityFatal
	}
	return false
}
