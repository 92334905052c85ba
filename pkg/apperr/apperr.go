package apperr

import (
	"errors"
	"net/http"
)

// Kind is the closed taxonomy of user-visible failures. Every error that
// reaches a handler is normalized to one of these before it is written to
// the client; transport status is derived from the kind in exactly one place.
type Kind int

const (
	Validation Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	CodeInvalid
	CodeExpired
	Internal
)

// Error is a tagged application error carrying a kind and a client-safe
// message. Wrapped causes stay server-side for logging.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a taxonomy entry. The cause is never exposed to
// clients; Message is what they see.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the taxonomy kind from err, defaulting to Internal for
// anything that escaped normalization.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// MessageOf returns the client-safe message for err. Unclassified errors get
// a generic message so internals never leak.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}

// StatusOf maps a taxonomy kind to its HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case Validation, CodeInvalid, CodeExpired:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Is lets errors.Is match two taxonomy errors by kind.
func (e *Error) Is(target error) bool {
	var ae *Error
	if errors.As(target, &ae) {
		return e.Kind == ae.Kind
	}
	return false
}
