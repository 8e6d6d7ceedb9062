// Package apperr defines the error kinds every core operation reports.
//
// A caller distinguishes failures with errors.Is against the sentinels below;
// the kind survives any amount of fmt.Errorf("... -> %w") wrapping.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindPermission        Kind = "permission"
	KindState             Kind = "state"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindIntegrity         Kind = "integrity"
	KindNotFound          Kind = "not_found"
)

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrPermission        = &Error{Kind: KindPermission, Message: "permission denied"}
	ErrState             = &Error{Kind: KindState, Message: "operation not allowed in the current state"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "resource already exists"}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrIntegrity         = &Error{Kind: KindIntegrity, Message: "integrity constraint violated"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "resource not found"}
)

// Error is a classified failure with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }
func Permission(format string, args ...any) *Error { return New(KindPermission, format, args...) }
func State(format string, args ...any) *Error      { return New(KindState, format, args...) }
func Conflict(format string, args ...any) *Error   { return New(KindConflict, format, args...) }
func NotFound(format string, args ...any) *Error   { return New(KindNotFound, format, args...) }

func InsufficientFunds(format string, args ...any) *Error {
	return New(KindInsufficientFunds, format, args...)
}

func Integrity(format string, args ...any) *Error { return New(KindIntegrity, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
