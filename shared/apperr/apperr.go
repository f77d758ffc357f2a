// Package apperr defines the marketplace's tagged application error kind,
// letting HTTP controllers and event handlers classify any returned error
// without coupling to a specific storage driver's sentinel values.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for status-code mapping and retry decisions.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindConcurrency  Kind = "concurrency_conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindExpired      Kind = "expired"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// Error is the application-level error type every domain/service layer
// should return instead of a bare driver error, so the HTTP and event
// layers can map it without knowing about Postgres/Redis/amqp internals.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Is reports whether err (or any error it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// IsNotFound reports whether err is a not-found application error.
func IsNotFound(err error) bool { return Is(err, KindNotFound) }

// IsConflict reports whether err is a conflict application error.
func IsConflict(err error) bool { return Is(err, KindConflict) }

// IsConcurrencyConflict reports whether err is an optimistic-concurrency
// conflict, the signal a caller should retry the transition.
func IsConcurrencyConflict(err error) bool { return Is(err, KindConcurrency) }
