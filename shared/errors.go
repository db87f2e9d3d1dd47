package shared

import (
	"errors"
	"net/http"
)

// AppError is the only error shape that crosses the HTTP boundary. The
// wrapped cause stays server-side; clients only ever see Code and Message.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, code, message string, err error) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, "bad_request", message, err)
}

func NewUnauthorizedError(code, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, code, message, nil)
}

func NewForbiddenError(code, message string) *AppError {
	return NewAppError(http.StatusForbidden, code, message, nil)
}

func NewNotFoundError(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, nil)
}

func NewTooManyRequestsError(code, message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, code, message, nil)
}

func NewInternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "server_error", "Server error occurred", err)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
