package handlers

import (
	"errors"
	"net/http"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetComments lists the comments of a post
// GET /api/comments/:postId
func (h *Handlers) GetComments(c *gin.Context) {
	viewerID := util.OptionalUserID(c)
	ctx := c.Request.Context()
	limit, offset := util.Pagination(c)

	post, err := h.loadPost(ctx, c.Param("postId"))
	if err != nil {
		h.respondLoadError(c, err, "post")
		return
	}

	q := h.db.WithContext(ctx).Where("post_id = ?", post.ID)
	switch {
	case viewerID == post.UserID:
	case viewerID != "":
		q = q.Where("flagged = ? OR user_id = ?", false, viewerID)
	default:
		q = q.Where("flagged = ?", false)
	}

	var comments []models.Comment
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to load comments", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"comments": comments})
}

// CreateComment moderates and stores a post comment
// POST /api/comments/:postId
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	postID := c.Param("postId")

	verdict := h.moderate(ctx, text)
	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		Username: h.authorName(ctx, userID),
		Text:     text,
		Flagged:  verdict.Flagged(),
	}
	if comment.Flagged {
		comment.ModerationLabel = string(verdict)
	}

	if err := h.comments.CreatePostComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrTargetNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		util.RespondInternalError(c, "Failed to create comment", err)
		return
	}
	metrics.RecordComment("post", comment.Flagged)

	message := "Comment added"
	if comment.Flagged {
		message = "Comment submitted and is pending review"
	} else {
		h.publish(postID, comment)
	}
	util.RespondSuccess(c, http.StatusCreated, message, gin.H{"comment": comment})
}

// loadComment fetches the post comment named by the route.
func (h *Handlers) loadComment(c *gin.Context) (*models.Comment, bool) {
	var comment models.Comment
	err := h.db.WithContext(c.Request.Context()).
		First(&comment, "id = ? AND post_id = ?", c.Param("commentId"), c.Param("postId")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "comment")
			return nil, false
		}
		util.RespondInternalError(c, "Failed to load comment", err)
		return nil, false
	}
	return &comment, true
}

// loadOwnComment fetches a post comment and checks the caller wrote it.
func (h *Handlers) loadOwnComment(c *gin.Context, userID, verb string) (*models.Comment, bool) {
	comment, ok := h.loadComment(c)
	if !ok {
		return nil, false
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only "+verb+" your own comments")
		return nil, false
	}
	return comment, true
}

// postOwnerComment loads a comment for a moderation action by the post owner.
func (h *Handlers) postOwnerComment(c *gin.Context) (*models.Comment, bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	post, err := h.loadPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.respondLoadError(c, err, "post")
		return nil, false
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "Only the post's owner can moderate its comments")
		return nil, false
	}
	return h.loadComment(c)
}

// UpdateComment edits the caller's post comment
// PUT /api/comments/:postId/:commentId
func (h *Handlers) UpdateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	comment, ok := h.loadOwnComment(c, userID, "edit")
	if !ok {
		return
	}

	comment.Text = text
	if err := h.db.WithContext(c.Request.Context()).Model(comment).Update("text", text).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Comment updated", gin.H{"comment": comment})
}

// DeleteComment deletes the caller's post comment
// DELETE /api/comments/:postId/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	comment, ok := h.loadOwnComment(c, userID, "delete")
	if !ok {
		return
	}

	if err := h.comments.DeletePostComment(c.Request.Context(), comment.PostID, comment.ID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			util.RespondNotFound(c, "comment")
			return
		}
		util.RespondInternalError(c, "Failed to delete comment", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Comment deleted", nil)
}

// UnflagComment clears a moderation flag on a post comment
// PATCH /api/comments/:postId/:commentId/unflag
func (h *Handlers) UnflagComment(c *gin.Context) {
	comment, ok := h.postOwnerComment(c)
	if !ok {
		return
	}
	if !comment.Flagged {
		util.RespondBadRequest(c, "Comment is not flagged")
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(comment).
		Updates(map[string]interface{}{"flagged": false, "moderation_label": ""}).Error; err != nil {
		util.RespondInternalError(c, "Failed to unflag comment", err)
		return
	}
	comment.Flagged = false
	comment.ModerationLabel = ""
	h.publish(comment.PostID, comment)
	util.RespondSuccess(c, http.StatusOK, "Comment unflagged", gin.H{"comment": comment})
}

// ForceDeleteComment lets the post owner remove any comment
// DELETE /api/comments/:postId/:commentId/force
func (h *Handlers) ForceDeleteComment(c *gin.Context) {
	comment, ok := h.postOwnerComment(c)
	if !ok {
		return
	}
	if err := h.comments.DeletePostComment(c.Request.Context(), comment.PostID, comment.ID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			util.RespondNotFound(c, "comment")
			return
		}
		util.RespondInternalError(c, "Failed to delete comment", err)
		return
	}
	logger.InfoWithFields("Comment removed by post owner",
		logger.WithPostID(comment.PostID), logger.WithCommentID(comment.ID))
	util.RespondSuccess(c, http.StatusOK, "Comment deleted", nil)
}
