package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/errors"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError logs and writes a structured error response.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("path", c.FullPath()),
		zap.Int("status", apiErr.Status),
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, logger.WithRequestID(requestID))
	}
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{
		Success: false,
		Error:   string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondSuccess writes {success: true, message} merged with data.
func RespondSuccess(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "authentication required"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondInternalError sends a 500 response. The cause is logged, never returned.
func RespondInternalError(c *gin.Context, message string, err ...error) {
	if len(err) > 0 && err[0] != nil {
		logger.ErrorWithFields(message, err[0], zap.String("path", c.FullPath()))
	}
	RespondWithAPIError(c, errors.InternalError(message))
}

// RespondConflict sends a 409 Conflict response
func RespondConflict(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Conflict(message))
}

// RespondValidationError sends a 400 response naming the offending field.
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
