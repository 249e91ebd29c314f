// Package apperrors defines the error taxonomy shared by the planning
// services and the HTTP layer. Every validation failure is classified
// before any write happens, so callers never see partially applied state.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindBadRequest
	KindInvalidHierarchy
	KindCircularHierarchy
	KindInvalidStatusTransition
	KindDuplicateKey
	KindForbidden
	KindInternal
)

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

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func BadRequestf(format string, args ...any) *Error {
	return New(KindBadRequest, format, args...)
}

func InvalidHierarchyf(format string, args ...any) *Error {
	return New(KindInvalidHierarchy, format, args...)
}

func CircularHierarchyf(format string, args ...any) *Error {
	return New(KindCircularHierarchy, format, args...)
}

func InvalidTransitionf(format string, args ...any) *Error {
	return New(KindInvalidStatusTransition, format, args...)
}

func DuplicateKeyf(format string, args ...any) *Error {
	return New(KindDuplicateKey, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// KindOf classifies err, returning KindInternal for anything outside the
// taxonomy (store errors, programming errors) so the HTTP layer surfaces a
// generic 500 without leaking internals.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
