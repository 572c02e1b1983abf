// Package apperror classifies failures of the comment engine so the transport
// layer can map them to status codes without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the category of an engine failure
type Kind int

const (
	// KindInternal covers storage failures and anything unclassified
	KindInternal Kind = iota
	// KindInvalidArgument is a malformed client input; never retried
	KindInvalidArgument
	// KindNotFound means a referenced article or comment does not exist
	KindNotFound
	// KindInvalidState means the request violates a domain rule
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "internal"
	}
}

// Error carries a kind, a client-facing message and an optional cause
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgument builds a KindInvalidArgument error
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// InvalidArgumentWrap builds a KindInvalidArgument error that keeps its cause
func InvalidArgumentWrap(err error, msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg, Err: err}
}

// NotFound builds a KindNotFound error
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// InvalidState builds a KindInvalidState error
func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Msg: msg}
}

// Internal wraps err as a KindInternal error. Errors that already carry a
// kind are returned unchanged so classification survives transaction layers.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of err, KindInternal when it carries none
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Msg
	}
	return "internal server error"
}

// Is reports whether err carries kind k
func Is(err error, k Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == k
}
