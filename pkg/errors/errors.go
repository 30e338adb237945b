package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so handlers can map it to a
// status code in exactly one place.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConfiguration
	KindUpstreamUnavailable
	KindUpstreamRejected
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamRejected:
		return "upstream_rejected"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status. Used by the error
// middleware at the boundary.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamRejected:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New builds an AppError with an explicit kind and message, for the
// cases the shaped constructors below do not cover.
func New(kind Kind, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Configuration(message string, err error) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Message: message,
		Err:     err,
	}
}

// UpstreamUnavailable wraps a transport-level failure reaching a
// third-party API (network error, timeout, upstream 5xx).
func UpstreamUnavailable(integration string, err error) *AppError {
	return &AppError{
		Kind:    KindUpstreamUnavailable,
		Message: fmt.Sprintf("%s is unavailable", integration),
		Err:     err,
	}
}

// UpstreamRejected carries the upstream's own message through to the
// caller: the request was understood but refused.
func UpstreamRejected(message string, err error) *AppError {
	return &AppError{
		Kind:    KindUpstreamRejected,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// AsAppError unwraps err to an AppError when it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) an AppError,
// KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
