package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *APIError
		status int
	}{
		{NotFound("writing"), http.StatusNotFound},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{Conflict("email taken"), http.StatusConflict},
		{ValidationError("email", "required"), http.StatusBadRequest},
		{New(ErrOTPExpired, "OTP expired"), http.StatusBadRequest},
		{New(ErrEmailNotVerified, "verify first"), http.StatusForbidden},
		{New(ErrInvalidCredentials, "bad password"), http.StatusUnauthorized},
		{RateLimited(""), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestUnknownCodeIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("SOMETHING_ELSE").StatusCode())
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: post not found", NotFound("post").Error())
	assert.Equal(t, "VALIDATION_ERROR: required (field: title)", ValidationError("title", "required").Error())
	assert.Equal(t, "more", BadRequest("x").WithDetails("more").Details)
}
