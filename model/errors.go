package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Store-level sentinels. Repositories return these; services translate them.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindInvalidState
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

var kindCodes = map[ErrorKind]string{
	KindInternal:     "SERVER_ERROR",
	KindValidation:   "VALIDATION_ERROR",
	KindInvalidState: "INVALID_STATE",
	KindNotFound:     "NOT_FOUND",
	KindConflict:     "CONFLICT",
	KindUnauthorized: "UNAUTHORIZED",
	KindForbidden:    "FORBIDDEN",
}

var kindStatus = map[ErrorKind]int{
	KindInternal:     http.StatusInternalServerError,
	KindValidation:   http.StatusBadRequest,
	KindInvalidState: http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
}

func (k ErrorKind) Code() string {
	return kindCodes[k]
}

func (k ErrorKind) HTTPStatus() int {
	return kindStatus[k]
}

// Error is the typed failure every service operation returns.
type Error struct {
	Kind    ErrorKind
	Message string
	Details []string
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

func NewError(kind ErrorKind, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Validation(message string, details ...string) *Error {
	return NewError(KindValidation, message, details...)
}

func InvalidState(message string) *Error {
	return NewError(KindInvalidState, message)
}

func NotFound(message string) *Error {
	return NewError(KindNotFound, message)
}

func Conflict(message string) *Error {
	return NewError(KindConflict, message)
}

func Unauthorized(message string) *Error {
	return NewError(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return NewError(KindForbidden, message)
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything untyped.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
