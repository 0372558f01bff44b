package errors

import (
	stderrors "errors"
	"net/http"
)

// DetailResponse is the FastAPI-style error body: {"detail": "..."}.
type DetailResponse struct {
	Detail any `json:"detail"`
}

// ToDetail converts the error into a DetailResponse. Field details, when
// present, are appended as a list so clients see both.
func (e *AppError) ToDetail() DetailResponse {
	if field, ok := e.Details["field"]; ok && e.Code == ErrCodeInvalidInput {
		return DetailResponse{Detail: []map[string]any{{
			"loc":  []any{"body", field},
			"msg":  e.Message,
			"type": "value_error",
		}}}
	}
	return DetailResponse{Detail: e.Message}
}

// StatusCode returns the HTTP status for err, 500 for anything that is not
// an AppError.
func StatusCode(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError returns the AppError wrapped by err.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
