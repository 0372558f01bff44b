package errors

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Availability errors. These are retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Request errors.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors.
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Server errors.
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeUpstream is a failure reported by the playground backend.
	ErrCodeUpstream ErrorCode = "UPSTREAM_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeUpstream:           true,
}

// IsRetryableCode reports whether errors with code may succeed on retry.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
