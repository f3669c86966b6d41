// Package errors provides structured error types for negflo.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - CONFIGURATION_*: Caller supplied an unusable setting (e.g. a negative flow limit)
//   - INVALID_*: Input validation failures and invalid object states
//   - NOT_*: Missing resources or functionality
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "flow limit must be non-negative, got %g", limit)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle caller error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "failed to parse %s", path)
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Caller configuration errors
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidMode      Code = "INVALID_MODE"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidState     Code = "INVALID_STATE"
	ErrCodeColumnMismatch   Code = "COLUMN_MISMATCH"
	ErrCodeResidualOverflow Code = "RESIDUAL_OVERFLOW"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Missing functionality
	ErrCodeNotImplemented Code = "NOT_IMPLEMENTED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for an *Error or *OverflowError with a
// matching code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var oe *OverflowError
	if errors.As(err, &oe) {
		return oe.Code()
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

// OverflowError reports columns whose negative flow could not be fully
// redistributed. Passes never return it; callers that treat leftover
// negative volume as fatal build one from the engine's overflow map.
type OverflowError struct {
	Leftover map[string]float64 // Column name to remaining (negative) volume
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	if len(e.Leftover) == 0 {
		return "residual overflow"
	}
	names := make([]string, 0, len(e.Leftover))
	for name := range e.Leftover {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, e.Leftover[name])
	}
	return fmt.Sprintf("residual overflow: %s", strings.Join(parts, ", "))
}

// Code returns the error code for this error type.
func (e *OverflowError) Code() Code {
	return ErrCodeResidualOverflow
}
