package util

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RespondDBError answers a failed lookup of resource: 404 when the row is
// missing or soft-deleted, 409 on a unique-key clash, 500 otherwise.
// It reports whether a response was written.
func RespondDBError(c *gin.Context, err error, resource string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondNotFound(c, resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		RespondConflict(c, resource+" already exists")
	default:
		RespondInternalError(c, "Failed to load "+resource, err)
	}
	return true
}
