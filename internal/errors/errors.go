package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeTooLarge    ErrorType = "too_large"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeInference   ErrorType = "inference"
	ErrorTypeIntegration ErrorType = "integration"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeInternal    ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches a human readable detail string and returns the same error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewTooLargeError is returned when an upload exceeds the configured body limit
func NewTooLargeError(message string, cause error) *AppError {
	return newError(ErrorTypeTooLarge, http.StatusRequestEntityTooLarge, message, cause)
}

// NewDecodeError reports bytes that are not a decodable JPEG or PNG image.
// It only ever fails the upload that produced it.
func NewDecodeError(message string, cause error) *AppError {
	return newError(ErrorTypeDecode, http.StatusUnsupportedMediaType, message, cause)
}

// NewInferenceError creates a new inference error
func NewInferenceError(message string, cause error) *AppError {
	return newError(ErrorTypeInference, http.StatusInternalServerError, message, cause)
}

// NewIntegrationError marks a mismatch between the model, the category list
// and the advisory table. These are defects, not runtime conditions.
func NewIntegrationError(message string, cause error) *AppError {
	return newError(ErrorTypeIntegration, http.StatusInternalServerError, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if the error, or any error it wraps, is an AppError of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
