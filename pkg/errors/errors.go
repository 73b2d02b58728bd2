// Package errors provides structured error types for the Olive API client.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NETWORK_*: Transport-level failures (no response obtained)
//   - SERVER_*: HTTP responses with status >= 400
//   - CIRCUIT_*: Circuit-breaker rejections
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNetwork, "connect to %s failed", host)
//	if errors.Is(err, errors.ErrCodeNetwork) {
//	    // Handle connectivity failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDeserialize, origErr, "decoding %s", typeName)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeInvalidMethod Code = "INVALID_METHOD"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Transport errors (no response obtained at all)
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeOffline Code = "NETWORK_UNAVAILABLE"
	ErrCodeTimeout Code = "TIMEOUT"

	// Server errors (response obtained, status >= 400)
	ErrCodeServer       Code = "SERVER_ERROR"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Circuit breaker
	ErrCodeCircuitOpen Code = "CIRCUIT_OPEN"

	// Response handling
	ErrCodeDeserialize Code = "DESERIALIZE_ERROR"

	// Storage (cache files, queue files)
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (connection errors, timeouts) with this type so
// the retry loop knows to attempt the operation again.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
