package common

import "net/http"

// AppError is an application error carrying an HTTP status, a stable machine
// code and a human-readable message. The wrapped error is kept for logging
// only and never serialized.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying error for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message, Err: err}
}

// NewInvalidStatusError creates a 400 error for a status value outside the
// allowed transition set
func NewInvalidStatusError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "INVALID_STATUS", Message: message}
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message, Err: err}
}

// NewConflictError creates a 409 error
func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: "INTERNAL", Message: message}
}

// NewServiceUnavailableError creates a 503 error for transient store failures
// that the caller may retry
func NewServiceUnavailableError(message string, err error) *AppError {
	return &AppError{Status: http.StatusServiceUnavailable, Code: "RETRY_LATER", Message: message, Err: err}
}
