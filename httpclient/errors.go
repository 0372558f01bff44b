package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, etc).
	ErrCodeConnection
	// ErrCodeAuth indicates an authentication failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates a rejected request (4xx) or one that
	// could not be built.
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is 0 for connection-level errors.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is the response body, truncated to a bounded size.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Reason())
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Reason returns the human-readable failure reason. For status errors it
// is taken from the response body; see ReasonFromBody.
func (e *Error) Reason() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	if r := ReasonFromBody(e.Body); r != "" {
		return r
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ReasonFromBody extracts an error reason from a JSON error body. It looks
// at "detail", then "message", then "error" (a string or an object with a
// "message"). A non-string detail is returned as compact JSON. It returns
// "" when nothing usable is found.
func ReasonFromBody(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	if raw, ok := fields["detail"]; ok {
		if s, ok := asString(raw); ok {
			return s
		}
		if r := compact(raw); r != "null" {
			return r
		}
	}
	if raw, ok := fields["message"]; ok {
		if s, ok := asString(raw); ok && s != "" {
			return s
		}
	}
	if raw, ok := fields["error"]; ok {
		if s, ok := asString(raw); ok && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{
		Code:      ErrCodeTimeout,
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{
		Code:      ErrCodeConnection,
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}
}

// NewValidationError creates an error for a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 401 || statusCode == 403:
		e.Code = ErrCodeAuth
	case statusCode == 404:
		e.Code = ErrCodeNotFound
	case statusCode == 429:
		e.Code = ErrCodeRateLimit
		e.Retryable = true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code = ErrCodeServer
		e.Retryable = true
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAuth
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsServerError checks if an error is a server error.
func IsServerError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeServer
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// StatusOf returns the HTTP status of err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
