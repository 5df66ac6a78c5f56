package handlers

import (
	"net/http"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// ToggleSaved adds the post to the caller's collection or removes it
// POST /api/saved/:postId
func (h *Handlers) ToggleSaved(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	postID := c.Param("postId")

	post, err := h.loadPost(ctx, postID)
	if err != nil {
		h.respondLoadError(c, err, "post")
		return
	}

	result, err := h.engagement.ToggleSavedPost(ctx, userID, postID)
	if err != nil {
		respondToggleError(c, err, "post")
		return
	}
	metrics.RecordToggle("saved_post", result.Active)

	message := "Post removed from saved"
	if result.Active {
		message = "Post saved"
	}
	util.RespondSuccess(c, http.StatusOK, message, gin.H{
		"saved":      result.Active,
		"bucket":     post.MediaType.Bucket(),
		"savedCount": result.Count,
	})
}

// RemoveSaved drops the post from the caller's collection; absent is fine
// DELETE /api/saved/:postId
func (h *Handlers) RemoveSaved(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.engagement.RemoveSavedPost(c.Request.Context(), userID, c.Param("postId")); err != nil {
		util.RespondInternalError(c, "Failed to remove saved post", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Post removed from saved", gin.H{"saved": false})
}

// GetSaved returns the caller's saved posts grouped by media bucket
// GET /api/saved
func (h *Handlers) GetSaved(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var posts []models.Post
	err := h.db.WithContext(c.Request.Context()).
		Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
		Where("saved_posts.user_id = ?", userID).
		Preload("User").
		Order("saved_posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load saved posts", err)
		return
	}

	buckets := map[string][]postView{
		models.MediaImage.Bucket(): {},
		models.MediaVideo.Bucket(): {},
		models.MediaAudio.Bucket(): {},
		models.MediaText.Bucket():  {},
	}
	for i := range posts {
		bucket := posts[i].MediaType.Bucket()
		buckets[bucket] = append(buckets[bucket], newPostView(&posts[i]))
	}

	data := gin.H{}
	for bucket, views := range buckets {
		data[bucket] = views
	}
	util.RespondSuccess(c, http.StatusOK, "", data)
}

// SavedStatus reports whether the caller saved the post
// GET /api/saved/:postId/status
func (h *Handlers) SavedStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	saved, err := h.engagement.IsPostSaved(c.Request.Context(), userID, c.Param("postId"))
	if err != nil {
		util.RespondInternalError(c, "Failed to load saved status", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"saved": saved})
}
