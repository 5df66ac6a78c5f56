package util

import (
	"github.com/gin-gonic/gin"
)

// GetUserIDFromContext returns the authenticated user's ID.
// It responds with 401 and returns false when the request is anonymous.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := OptionalUserID(c)
	if userID == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return userID, true
}

// OptionalUserID returns the caller's ID, or "" for anonymous requests.
func OptionalUserID(c *gin.Context) string {
	v, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	userID, _ := v.(string)
	return userID
}
