package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource already exists")
	ErrUnsupported  = errors.New("unsupported media type")
	ErrTooLarge     = errors.New("payload too large")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream service error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps an error chain onto the status the API answers with.
// Anything unrecognised is a 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the AppError code when present, else a code derived from the status.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	switch HTTPStatus(err) {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "INTERNAL"
	}
}

func NotFoundErrorf(format string, args ...interface{}) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return NewAppError("INVALID_ARGUMENT", fmt.Sprintf(format, args...), ErrInvalidInput)
}
