// Package apperr defines the error kinds surfaced to API callers and CLI users.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for presentation.
type Kind string

const (
	KindNetworkUnavailable   Kind = "NETWORK_UNAVAILABLE"
	KindHTTP                 Kind = "HTTP_ERROR"
	KindPermissionDenied     Kind = "PERMISSION_DENIED"
	KindValidation           Kind = "VALIDATION_ERROR"
	KindCalculationAmbiguity Kind = "CALCULATION_AMBIGUITY"
	KindNotFound             Kind = "NOT_FOUND"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindInternal             Kind = "INTERNAL"
)

// PermissionDeniedMessage is shown for every 403 regardless of the response body.
const PermissionDeniedMessage = "권한이 없습니다."

// Error carries a kind, a user-facing message and, for HTTP failures, the status code.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Ambiguous(message string) *Error { return New(KindCalculationAmbiguity, message) }

func PermissionDenied() *Error {
	return &Error{Kind: KindPermissionDenied, Message: PermissionDeniedMessage, Status: http.StatusForbidden}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// NetworkUnavailable reports a request that failed before any response arrived.
func NetworkUnavailable(message string, err error) *Error {
	return Wrap(KindNetworkUnavailable, message, err)
}

// FromStatus classifies a non-2xx response. 403 always maps to PermissionDenied.
func FromStatus(status int, message string) *Error {
	if status == http.StatusForbidden {
		return PermissionDenied()
	}
	return &Error{Kind: KindHTTP, Message: message, Status: status}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status the API responds with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindCalculationAmbiguity:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindHTTP:
		if appErr.Status >= 400 {
			return appErr.Status
		}
		return http.StatusBadGateway
	case KindNetworkUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
