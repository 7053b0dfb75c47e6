// Package apperr defines the typed failures returned by the rules and ledger
// engine.
//
// Every failure carries a machine-readable Code. Two errors are considered
// equal by errors.Is when their codes match, so callers compare against the
// exported sentinels:
//
//	if errors.Is(err, apperr.ErrInsufficientBalance) { ... }
//
// The engine never approximates a result. When an operation cannot be applied
// in full it returns one of these errors and leaves state untouched.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown                 Code = "UNKNOWN"
	CodeInvalidAmount           Code = "INVALID_AMOUNT"
	CodeInsufficientBalance     Code = "INSUFFICIENT_BALANCE"
	CodeInvalidStateTransition  Code = "INVALID_STATE_TRANSITION"
	CodeInvalidFeeConfiguration Code = "INVALID_FEE_CONFIGURATION"
	CodeConfigPrecondition      Code = "CONFIG_PRECONDITION"
	CodeInvalidInput            Code = "INVALID_INPUT"
	CodeNotFound                Code = "NOT_FOUND"
	CodeForbidden               Code = "FORBIDDEN"
	CodePayoutBlocked           Code = "PAYOUT_BLOCKED"
)

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidAmount           = New(CodeInvalidAmount, "invalid amount")
	ErrInsufficientBalance     = New(CodeInsufficientBalance, "insufficient balance")
	ErrInvalidStateTransition  = New(CodeInvalidStateTransition, "invalid state transition")
	ErrInvalidFeeConfiguration = New(CodeInvalidFeeConfiguration, "invalid fee configuration")
	ErrConfigPrecondition      = New(CodeConfigPrecondition, "config precondition failed")
	ErrInvalidInput            = New(CodeInvalidInput, "invalid input")
	ErrNotFound                = New(CodeNotFound, "not found")
	ErrForbidden               = New(CodeForbidden, "forbidden")
	ErrPayoutBlocked           = New(CodePayoutBlocked, "payout blocked")
)

// Error is the engine error type.
type Error struct {
	Code    Code              // Machine-readable error code
	Message string            // Internal message for logs
	Meta    map[string]string // Identifiers and amounts involved
	Cause   error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMeta creates an error carrying metadata such as ids and amounts.
func WithMeta(code Code, message string, meta map[string]string) *Error {
	return &Error{Code: code, Message: message, Meta: meta}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
