// Package errors provides the coded error kinds used across the core
// geometry builder.
//
// Every build-time failure carries a Code so callers (and the command line)
// can tell a bad configuration apart from a missing material or a zone that
// has no geometry yet:
//
//	err := errors.New(errors.ErrCodeConfiguration, "pitch must be positive, got %g", pitch)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // reject the input
//	}
//
//	// Collaborator failures keep their cause.
//	err := errors.Wrap(errors.ErrCodeExport, ioErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// ErrCodeConfiguration marks degenerate or invalid geometric parameters:
	// zero pitch, zero-radius cylinder, malformed plane normal.
	ErrCodeConfiguration Code = "CONFIGURATION"

	// ErrCodeMissingMaterial marks a name lookup miss against the materials
	// mapping.
	ErrCodeMissingMaterial Code = "MISSING_MATERIAL"

	// ErrCodeIncompleteRegion marks a region that cannot be evaluated, either
	// because it is malformed or because its composition path has not been
	// implemented.
	ErrCodeIncompleteRegion Code = "INCOMPLETE_REGION"

	// ErrCodeExport and ErrCodePlot wrap collaborator failures unchanged.
	ErrCodeExport Code = "EXPORT_FAILURE"
	ErrCodePlot   Code = "PLOT_FAILURE"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// ErrNotImplemented is the cause attached to IncompleteRegion errors raised
// by zone or boundary paths that exist by name but have no geometry.
var ErrNotImplemented = errors.New("not implemented")

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

// NotImplemented returns an IncompleteRegion error whose cause is
// ErrNotImplemented.
func NotImplemented(format string, args ...any) *Error {
	return Wrap(ErrCodeIncompleteRegion, ErrNotImplemented, format, args...)
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
