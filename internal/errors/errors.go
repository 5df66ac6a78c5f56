package errors

import (
	"fmt"
)

// APIError is the error shape every handler responds with.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an APIError whose status is derived from the code.
func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return New(ErrUnauthorized, message)
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return New(ErrForbidden, message)
}

// Conflict creates a CONFLICT error
func Conflict(message string) *APIError {
	return New(ErrConflict, message)
}

// ValidationError creates a VALIDATION_ERROR for a single field.
func ValidationError(field, message string) *APIError {
	e := New(ErrValidation, message)
	e.Field = field
	return e
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return New(ErrBadRequest, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return New(ErrInternalError, message)
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return New(ErrRateLimited, message)
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return New(ErrServiceUnavail, fmt.Sprintf("%s is temporarily unavailable", service))
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}
