// Package errors provides structured error types for cratedeps.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into two groups. Resolution codes describe why a dependency graph
// could not be built:
//   - REGISTRY_CONNECTION: the registry could not be reached before traversal
//   - REGISTRY_QUERY: a registry query failed mid-traversal
//   - REQUIREMENT_PARSE: a declared version requirement is malformed
//   - NO_MATCHING_VERSION: no published version satisfies a requirement
//   - UNKNOWN_CRATE: a crate has no parseable versions at all
//   - OUTPUT_WRITE: the exported artifact could not be written
//
// Input codes (INVALID_*) describe bad flags, names, or request parameters.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownCrate, "no versions found for %s", name)
//	if errors.Is(err, errors.ErrCodeUnknownCrate) {
//	    // Handle missing crate
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRegistryQuery, origErr, "list versions of %s", name)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Registry errors
	ErrCodeRegistryConnection Code = "REGISTRY_CONNECTION"
	ErrCodeRegistryQuery      Code = "REGISTRY_QUERY"

	// Resolution errors
	ErrCodeRequirementParse  Code = "REQUIREMENT_PARSE"
	ErrCodeNoMatchingVersion Code = "NO_MATCHING_VERSION"
	ErrCodeUnknownCrate      Code = "UNKNOWN_CRATE"

	// Output errors
	ErrCodeOutputWrite Code = "OUTPUT_WRITE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

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
// It unwraps the error chain looking for an *Error with a matching code,
// so a NO_MATCHING_VERSION error wrapping an UNKNOWN_CRATE cause matches both.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// IsResolution reports whether err is one of the two per-dependency
// resolution failures (REQUIREMENT_PARSE, NO_MATCHING_VERSION) that a
// resilient build may downgrade to a skipped edge.
func IsResolution(err error) bool {
	return Is(err, ErrCodeRequirementParse) || Is(err, ErrCodeNoMatchingVersion)
}
