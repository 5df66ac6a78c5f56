package errors

import "net/http"

// ErrorCode is the machine-readable error identifier returned to clients.
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Account verification
	ErrInvalidOTP         ErrorCode = "INVALID_OTP"
	ErrOTPExpired         ErrorCode = "OTP_EXPIRED"
	ErrAlreadyVerified    ErrorCode = "ALREADY_VERIFIED"
	ErrEmailNotVerified   ErrorCode = "EMAIL_NOT_VERIFIED"
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:           http.StatusNotFound,
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrConflict:           http.StatusConflict,
	ErrValidation:         http.StatusBadRequest,
	ErrBadRequest:         http.StatusBadRequest,
	ErrInternalError:      http.StatusInternalServerError,
	ErrRateLimited:        http.StatusTooManyRequests,
	ErrServiceUnavail:     http.StatusServiceUnavailable,
	ErrInvalidOTP:         http.StatusBadRequest,
	ErrOTPExpired:         http.StatusBadRequest,
	ErrAlreadyVerified:    http.StatusBadRequest,
	ErrEmailNotVerified:   http.StatusForbidden,
	ErrInvalidCredentials: http.StatusUnauthorized,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
