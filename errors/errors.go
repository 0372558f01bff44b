package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail entry and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError, deriving Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// ServiceUnavailable reports that service cannot be reached right now.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s is unavailable", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// ConnectionFailed reports that a connection to service could not be made.
func ConnectionFailed(service string, cause error) *AppError {
	return New(ErrCodeConnectionFailed, fmt.Sprintf("could not connect to %s", service), http.StatusServiceUnavailable).
		WithDetail("service", service).WithCause(cause)
}

// Timeout reports that operation did not finish in time.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// NotFound reports a missing resource. The message follows the playground
// backend wording.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// InvalidInput reports a bad value for field.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, reason, http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports a request that failed validation.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusUnprocessableEntity)
}

// MissingField reports a required field that was not supplied.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("%s is required", field), http.StatusUnprocessableEntity).
		WithDetail("field", field)
}

// Unauthorized reports a missing or rejected credential.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Not authenticated"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// InvalidToken reports a bearer token that could not be verified.
func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Could not validate credentials", http.StatusUnauthorized)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "internal server error", http.StatusInternalServerError).WithCause(cause)
}

// Upstream wraps a failure response from the playground backend. Server
// side statuses are retryable; client side ones are not.
func Upstream(status int, reason string) *AppError {
	if reason == "" {
		reason = http.StatusText(status)
	}
	e := FromStatus(status, reason)
	e.WithDetail("status", status)
	return e
}

// FromStatus builds an AppError whose code matches an HTTP status.
func FromStatus(status int, message string) *AppError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return New(ErrCodeUnauthorized, message, status)
	case status == http.StatusNotFound:
		return New(ErrCodeNotFound, message, status)
	case status == http.StatusTooManyRequests:
		return New(ErrCodeRateLimited, message, status)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return New(ErrCodeTimeout, message, status)
	case status == http.StatusServiceUnavailable:
		return New(ErrCodeServiceUnavailable, message, status)
	case status >= 400 && status < 500:
		return New(ErrCodeInvalidInput, message, status)
	default:
		return New(ErrCodeUpstream, message, status)
	}
}
