// Package apperr defines the error taxonomy surfaced by the workflow engine.
// Every failure a caller can see maps to exactly one Kind; handlers translate
// the Kind to an HTTP status and return the message verbatim.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is the fallback for unexpected failures.
	KindInternal Kind = iota

	// KindUnauthorized means no valid identity was resolved.
	KindUnauthorized

	// KindForbidden means the identity is valid but the role may not perform the action.
	KindForbidden

	// KindConflict means the from-state precondition no longer holds
	// (a concurrent transition already advanced the record).
	KindConflict

	// KindValidation means the input payload is malformed or incomplete.
	KindValidation

	// KindNotFound means a referenced record does not exist or is inactive.
	KindNotFound

	// KindUsageConflict means a reference entity is still in use and cannot
	// be deactivated or deleted.
	KindUsageConflict
)

// Error is an application error with a classification and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict creates a stale-state conflict error.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// NotFoundf creates a not-found error with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// UsageConflict creates a usage-conflict error.
func UsageConflict(msg string) error {
	return &Error{Kind: KindUsageConflict, Message: msg}
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
