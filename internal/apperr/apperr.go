// Package apperr defines the error kinds surfaced to the user.
//
// Every failure that reaches the error banner is classified as one of a small
// set of kinds so callers can branch on the kind (for example returning to the
// login screen on Unauthenticated) without string matching. The message carried
// by an Error is the text the banner shows.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	// Unauthenticated means no token is available or the token was rejected.
	Unauthenticated Kind = "unauthenticated"
	// NetworkFailure means a request was rejected by the backend or could not reach it.
	NetworkFailure Kind = "network_failure"
	// ValidationFailure means the backend returned structured field errors.
	ValidationFailure Kind = "validation_failure"
	// EmptyInput means an action was attempted with no qualifying data.
	EmptyInput Kind = "empty_input"
	// Internal is a programming or local I/O error.
	Internal Kind = "internal"
)

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, apperr.New(k, ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf extracts the kind from err. Unclassified errors are Internal; nil
// returns the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the user-facing text for err. For an *Error that is its
// Message, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
