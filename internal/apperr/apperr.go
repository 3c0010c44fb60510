// Package apperr classifies failures so the HTTP layer can turn them into a
// status code and a user-facing message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure category.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUpload       Kind = "upload"
	KindPersistence  Kind = "persistence"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Error carries a kind, a message safe to show to the user and the
// underlying cause.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind onto an HTTP status.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUpload:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPersistence:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error            { return newErr(KindValidation, msg, nil) }
func Upload(msg string, err error) *Error      { return newErr(KindUpload, msg, err) }
func Persistence(msg string, err error) *Error { return newErr(KindPersistence, msg, err) }
func NotFound(msg string) *Error               { return newErr(KindNotFound, msg, nil) }
func Forbidden(msg string, err error) *Error   { return newErr(KindForbidden, msg, err) }
func Unauthorized(msg string) *Error           { return newErr(KindUnauthorized, msg, nil) }
func Internal(msg string, err error) *Error    { return newErr(KindInternal, msg, err) }

// As extracts an *Error from err. Plain errors become internal failures.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("error interno", err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
