package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an inventory failure.
type ErrorKind string

const (
	// KindMalformedInput marks caller-correctable failures.
	KindMalformedInput ErrorKind = "malformed input"

	// KindBadData marks failures caused by inconsistent stored or derived state.
	KindBadData ErrorKind = "bad data"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// Sentinels for errors.Is checks. Every InventoryError matches exactly one
// of them, depending on its Kind.
var (
	ErrMalformedInput = errors.New(string(KindMalformedInput))
	ErrBadData        = errors.New(string(KindBadData))
)

// InventoryError is the error type returned by inventory operations.
type InventoryError struct {
	// Kind decides whether the caller can fix the problem by retrying.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *InventoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *InventoryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching e's kind.
func (e *InventoryError) Is(target error) bool {
	switch e.Kind {
	case KindMalformedInput:
		return target == ErrMalformedInput
	case KindBadData:
		return target == ErrBadData
	default:
		return false
	}
}

// MalformedInput creates a caller-correctable error with a formatted message.
func MalformedInput(format string, args ...interface{}) *InventoryError {
	return &InventoryError{Kind: KindMalformedInput, Message: fmt.Sprintf(format, args...)}
}

// BadData creates an inconsistent-state error with a formatted message.
func BadData(format string, args ...interface{}) *InventoryError {
	return &InventoryError{Kind: KindBadData, Message: fmt.Sprintf(format, args...)}
}

// WrapMalformedInput creates a MalformedInput error that wraps err.
func WrapMalformedInput(err error, format string, args ...interface{}) *InventoryError {
	return &InventoryError{Kind: KindMalformedInput, Message: fmt.Sprintf(format, args...), Err: err}
}

// WrapBadData creates a BadData error that wraps err.
func WrapBadData(err error, format string, args ...interface{}) *InventoryError {
	return &InventoryError{Kind: KindBadData, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first InventoryError in err's chain and
// false if there is none.
func KindOf(err error) (ErrorKind, bool) {
	var invErr *InventoryError
	if errors.As(err, &invErr) {
		return invErr.Kind, true
	}
	return "", false
}

// ExitCode defines the CLI exit codes. Scripts driving the inventory rely on
// them to tell a typo apart from a corrupted inventory file.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitMalformedInput indicates the command arguments or input files
	// were rejected.
	ExitMalformedInput ExitCode = 2

	// ExitBadData indicates the inventory contents are inconsistent.
	ExitBadData ExitCode = 3

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// ExitCodeFor maps an error onto the exit code of its kind.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	switch kind, _ := KindOf(err); kind {
	case KindMalformedInput:
		return ExitMalformedInput
	case KindBadData:
		return ExitBadData
	default:
		return ExitGeneralError
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
