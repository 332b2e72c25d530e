// Package apperr defines the error taxonomy shared by the engine's services.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error so the HTTP layer can map it to a status code.
type Kind int

const (
	// KindUnknown is an internal failure with no more specific classification.
	KindUnknown Kind = iota
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindForbidden means the caller lacks ownership or the required role.
	KindForbidden
	// KindConflict means a uniqueness invariant was violated.
	KindConflict
	// KindInvalid means the input failed validation.
	KindInvalid
)

// Error carries a kind and a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a not-found error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden builds an authorization error.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a uniqueness-violation error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a validation error.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsForbidden reports whether err is an authorization error.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsConflict reports whether err is a uniqueness-violation error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInvalid reports whether err is a validation error.
func IsInvalid(err error) bool { return KindOf(err) == KindInvalid }

// IsUniqueViolation detects a Postgres unique-constraint violation
// (SQLSTATE 23505) without depending on the driver's error types.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "sqlstate 23505") ||
		strings.Contains(s, "23505") ||
		strings.Contains(s, "duplicate key value")
}
