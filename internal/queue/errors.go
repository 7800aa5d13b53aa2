package queue

import (
	"errors"
	"net/http"
)

// ErrorKind classifies service failures for the boundary.
type ErrorKind string

const (
	ErrUnauthenticated   ErrorKind = "unauthenticated"
	ErrForbidden         ErrorKind = "forbidden"
	ErrNotFound          ErrorKind = "not_found"
	ErrInvalidReference  ErrorKind = "invalid_reference"
	ErrConflict          ErrorKind = "conflict"
	ErrInvalidTransition ErrorKind = "invalid_transition"
	ErrInternal          ErrorKind = "internal"
)

// Error is the service-level error carried to the HTTP boundary.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

func serviceErr(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf extracts the kind from any error, defaulting to internal.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrInternal
}

func httpStatus(kind ErrorKind) int {
	switch kind {
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidReference:
		return http.StatusUnprocessableEntity
	case ErrConflict, ErrInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
