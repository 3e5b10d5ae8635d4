// Package errors defines unified error types for the memory engine.
// Storage, input, and completion failures are mapped to these standard types.
package errors

import (
	"fmt"
	"net/http"
)

// Error represents a standardized failure from the memory engine.
// It contains all necessary information for error handling, logging, and client response.
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Op         string `json:"op"`
	Retryable  bool   `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (op=%s): %v", e.Type, e.Message, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] %s (op=%s)", e.Type, e.Message, e.Op)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for the error.
func (e *Error) HTTPStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Common error types as constants for consistency.
const (
	TypeStorage        = "storage_error"
	TypeMalformedInput = "malformed_input_error"
	TypeCompletion     = "completion_error"
	TypeInternalError  = "internal_error"
)

// NewStorageError creates a storage error (502). The underlying store
// failure is kept as the cause; the message stays stable for callers.
func NewStorageError(op string, err error) *Error {
	return &Error{
		StatusCode: http.StatusBadGateway,
		Message:    "memory store operation failed",
		Type:       TypeStorage,
		Op:         op,
		Retryable:  true,
		Err:        err,
	}
}

// NewMalformedInputError creates an invalid input error (400).
func NewMalformedInputError(op, message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Type:       TypeMalformedInput,
		Op:         op,
		Retryable:  false,
	}
}

// NewCompletionError creates an upstream completion error (502).
func NewCompletionError(op string, err error) *Error {
	return &Error{
		StatusCode: http.StatusBadGateway,
		Message:    "completion request failed",
		Type:       TypeCompletion,
		Op:         op,
		Retryable:  true,
		Err:        err,
	}
}

// NewInternalError creates an internal server error (500).
func NewInternalError(op, message string) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeInternalError,
		Op:         op,
		Retryable:  false,
	}
}

// IsStorage reports whether err is a storage error.
func IsStorage(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == TypeStorage
}
