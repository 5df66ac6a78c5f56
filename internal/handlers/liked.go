package handlers

import (
	"errors"
	"net/http"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// respondToggleError maps repository toggle errors.
func respondToggleError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, repository.ErrTargetNotFound):
		util.RespondNotFound(c, resource)
	case errors.Is(err, repository.ErrSelfFollow):
		util.RespondBadRequest(c, "You cannot follow yourself")
	default:
		util.RespondInternalError(c, "Failed to update "+resource, err)
	}
}

// ToggleLike likes the post if the caller has not, and unlikes it otherwise
// POST /api/liked/:postId
func (h *Handlers) ToggleLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.engagement.TogglePostLike(c.Request.Context(), userID, c.Param("postId"))
	if err != nil {
		respondToggleError(c, err, "post")
		return
	}
	metrics.RecordToggle("post_like", result.Active)

	message := "Post unliked"
	if result.Active {
		message = "Post liked"
	}
	util.RespondSuccess(c, http.StatusOK, message, gin.H{
		"liked":     result.Active,
		"likeCount": result.Count,
	})
}

// GetLikedPosts lists the caller's liked posts, most recently liked first
// GET /api/liked
func (h *Handlers) GetLikedPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	var posts []models.Post
	err := h.db.WithContext(c.Request.Context()).
		Joins("JOIN likes ON likes.post_id = posts.id").
		Where("likes.user_id = ?", userID).
		Preload("User").
		Order("likes.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load liked posts", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"posts": newPostViews(posts)})
}

// LikeStatus reports whether the caller likes the post
// GET /api/liked/:postId/status
func (h *Handlers) LikeStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	liked, err := h.engagement.IsPostLiked(c.Request.Context(), userID, c.Param("postId"))
	if err != nil {
		util.RespondInternalError(c, "Failed to load like status", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"liked": liked})
}
