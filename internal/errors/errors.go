package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeMissingInput    ErrorType = "missing_input"
	ErrorTypeInvalidFormat   ErrorType = "invalid_format"
	ErrorTypeMissingAnalysis ErrorType = "missing_analysis"
	ErrorTypePayloadTooLarge ErrorType = "payload_too_large"
	ErrorTypeModel           ErrorType = "model"
	ErrorTypeRender          ErrorType = "render"
	ErrorTypeSend            ErrorType = "send"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents a structured application error.
// Message is safe to show to clients; Cause is for server-side logs only.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
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

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewMissingInputError reports a required request field that was absent or empty
func NewMissingInputError(message string, cause error) *AppError {
	return newError(ErrorTypeMissingInput, http.StatusBadRequest, message, cause)
}

// NewInvalidFormatError reports a malformed data-URI, base64 body or image
func NewInvalidFormatError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidFormat, http.StatusBadRequest, message, cause)
}

// NewMissingAnalysisError reports a report request without analysis text
func NewMissingAnalysisError(message string, cause error) *AppError {
	return newError(ErrorTypeMissingAnalysis, http.StatusBadRequest, message, cause)
}

// NewPayloadTooLargeError reports a request body over the configured limit
func NewPayloadTooLargeError(message string, cause error) *AppError {
	return newError(ErrorTypePayloadTooLarge, http.StatusRequestEntityTooLarge, message, cause)
}

// NewModelError reports a failed or empty vision model call
func NewModelError(message string, cause error) *AppError {
	return newError(ErrorTypeModel, http.StatusInternalServerError, message, cause)
}

// NewRenderError reports a failure while writing the report document
func NewRenderError(message string, cause error) *AppError {
	return newError(ErrorTypeRender, http.StatusInternalServerError, message, cause)
}

// NewSendError reports a failure while delivering a report to the client
func NewSendError(message string, cause error) *AppError {
	return newError(ErrorTypeSend, http.StatusInternalServerError, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error, or any error it wraps, is an AppError of the given type
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

// PublicMessage returns the client-facing message for err, falling back to fallback
// for errors that are not AppErrors
func PublicMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
