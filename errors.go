package threadkit

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors by how they should be handled.
type ErrorKind string

const (
	// ErrorTransient indicates the error is temporary and the operation
	// can be retried. Examples: connection failures, 5xx responses,
	// mid-stream drops.
	ErrorTransient ErrorKind = "transient"

	// ErrorFatal indicates the error is not recoverable through retry.
	// Examples: 4xx responses, a retry budget exhausted.
	ErrorFatal ErrorKind = "fatal"
)

// Error is a classified error with metadata for retry decisions.
type Error struct {
	Msg   string
	Kind  ErrorKind
	Code  int   // HTTP status code, 0 if not applicable
	Cause error // underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable returns true if the error is transient.
func (e *Error) Retryable() bool {
	return e.Kind == ErrorTransient
}

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Kind: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewFatalError creates a fatal error that must not be retried.
func NewFatalError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Kind: ErrorFatal, Code: statusCode, Cause: cause}
}

// IsTransient returns true if the error or any wrapped error is a
// transient *Error.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == ErrorTransient
	}
	return false
}

// IsFatal returns true if the error or any wrapped error is a fatal *Error.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == ErrorFatal
	}
	return false
}

// StatusCodeOf returns the HTTP status code from a classified error, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
