// Package errors provides structured error types for the MaskForge engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - PARAM_*: Parameter schema violations (unknown name, wrong type, out of range)
//   - SEQ_*: Sequencer command faults (unknown tag, malformed operands)
//   - PORT_*: Port connection faults (incompatible or degenerate connections)
//   - CACHE_*: Cache pool consistency violations (write-once conflicts)
//   - STATE_*: Device lifecycle violations (run before build)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParamRange, "width %g outside [%g, %g]", v, min, max)
//	if errors.Is(err, errors.ErrCodeParamRange) {
//	    // Handle range violation
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeGeneration, genErr, "generator for %s failed", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Parameter schema errors
	ErrCodeParamUnknown Code = "PARAM_UNKNOWN"
	ErrCodeParamType    Code = "PARAM_TYPE"
	ErrCodeParamRange   Code = "PARAM_RANGE"

	// Sequencer errors
	ErrCodeSeqUnknownCommand Code = "SEQ_UNKNOWN_COMMAND"
	ErrCodeSeqBadOperands    Code = "SEQ_BAD_OPERANDS"

	// Port connection errors
	ErrCodePortIncompatible Code = "PORT_INCOMPATIBLE"
	ErrCodePortDegenerate   Code = "PORT_DEGENERATE"

	// Cache pool errors
	ErrCodeCacheConsistency Code = "CACHE_CONSISTENCY"

	// Device lifecycle errors
	ErrCodeGeneration   Code = "GENERATION_FAILED"
	ErrCodeStateInvalid Code = "STATE_INVALID"

	// General errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
