// Package apperr is the error taxonomy shared by services, middleware and
// handlers.  Every failure the API reports to a client is an *Error whose Kind
// decides the HTTP status and whose Message is safe to show.  Underlying
// causes (driver errors, hashing failures) travel in Err for server-side
// logging and are never rendered.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, client-safe failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Kind: KindConflict, Message: msg} }

func InvalidCredentials(msg string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: msg}
}

// Server wraps an unexpected failure behind a generic message.
func Server(msg string, err error) *Error {
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// KindOf returns the kind of err, KindServer for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Public returns the status and message a client may see for err.
// Unclassified errors collapse to a generic 500.
func Public(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Status(), e.Message
	}
	return http.StatusInternalServerError, "Internal server error."
}
