package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/moderation"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// moderateTimeout bounds the moderation call made before a comment is stored.
const moderateTimeout = 15 * time.Second

type commentTextRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required,emoji"`
}

// bindCommentText reads {text}, rejecting blank or oversized bodies.
func bindCommentText(c *gin.Context) (string, bool) {
	var req commentTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "text", "text is required and must be at most 2000 characters")
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		util.RespondValidationError(c, "text", "text cannot be blank")
		return "", false
	}
	return text, true
}

// moderate asks the gateway for a verdict. The gateway already falls back
// to SAFE, so this never fails.
func (h *Handlers) moderate(ctx context.Context, text string) moderation.Verdict {
	ctx, cancel := context.WithTimeout(ctx, moderateTimeout)
	defer cancel()
	return h.gateway.Moderate(ctx, text)
}

// respondThreadError maps errors from comment and thread mutations.
func respondThreadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrCommentNotFound):
		util.RespondNotFound(c, "comment")
	case errors.Is(err, repository.ErrTargetNotFound):
		util.RespondNotFound(c, "writing")
	case errors.Is(err, models.ErrReplyNotFound):
		util.RespondNotFound(c, "reply")
	case errors.Is(err, models.ErrNotAuthor):
		util.RespondForbidden(c, "You can only modify your own replies")
	case errors.Is(err, repository.ErrConcurrentUpdate):
		util.RespondConflict(c, "The comment changed while saving, please retry")
	default:
		util.RespondInternalError(c, "Failed to update comment", err)
	}
}

// commentContext loads a writing comment and its writing, hiding both when
// the viewer may not see them: drafts outside their owner, and flagged
// comments outside their author and the writing owner.
func (h *Handlers) commentContext(ctx context.Context, commentID, viewerID string) (*models.WritingComment, *models.Writing, error) {
	comment, err := h.comments.GetWritingComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	w, err := h.visibleWriting(ctx, comment.WritingID, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrTargetNotFound) {
			return nil, nil, repository.ErrCommentNotFound
		}
		return nil, nil, err
	}
	if comment.Flagged && viewerID != comment.UserID && viewerID != w.UserID {
		return nil, nil, repository.ErrCommentNotFound
	}
	return comment, w, nil
}

// ListWritingComments lists the comments of a writing
// GET /api/writing-comments/writing/:writingId
func (h *Handlers) ListWritingComments(c *gin.Context) {
	viewerID := util.OptionalUserID(c)
	ctx := c.Request.Context()
	limit, offset := util.Pagination(c)

	w, err := h.visibleWriting(ctx, c.Param("writingId"), viewerID)
	if err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}

	q := h.db.WithContext(ctx).Where("writing_id = ?", w.ID)
	switch {
	case viewerID == w.UserID:
		// The owner reviews flagged comments.
	case viewerID != "":
		q = q.Where("flagged = ? OR user_id = ?", false, viewerID)
	default:
		q = q.Where("flagged = ?", false)
	}

	var comments []models.WritingComment
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&comments).Error; err != nil {
		util.RespondInternalError(c, "Failed to load comments", err)
		return
	}
	views := make([]writingCommentView, 0, len(comments))
	for i := range comments {
		views = append(views, newWritingCommentView(&comments[i]))
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"comments": views})
}

// CreateWritingComment moderates and stores a comment, then pushes it live
// POST /api/writing-comments/writing/:writingId
func (h *Handlers) CreateWritingComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	writingID := c.Param("writingId")

	if _, err := h.visibleWriting(ctx, writingID, userID); err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}

	verdict := h.moderate(ctx, text)
	comment := &models.WritingComment{
		WritingID: writingID,
		UserID:    userID,
		Username:  h.authorName(ctx, userID),
		Text:      text,
		Flagged:   verdict.Flagged(),
	}
	if comment.Flagged {
		comment.ModerationLabel = string(verdict)
	}

	if err := h.comments.CreateWritingComment(ctx, comment); err != nil {
		respondThreadError(c, err)
		return
	}
	metrics.RecordComment("writing", comment.Flagged)

	view := newWritingCommentView(comment)
	message := "Comment added"
	if comment.Flagged {
		message = "Comment submitted and is pending review"
		logger.InfoWithFields("Comment flagged by moderation",
			logger.WithWritingID(writingID), logger.WithCommentID(comment.ID), zap.String("label", comment.ModerationLabel))
	} else {
		h.publish(writingID, view)
	}
	util.RespondSuccess(c, http.StatusCreated, message, gin.H{"comment": view})
}

// UpdateWritingComment edits the caller's comment. The moderation flag is kept.
// PUT /api/writing-comments/:id
func (h *Handlers) UpdateWritingComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment, err := h.comments.GetWritingComment(ctx, c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own comments")
		return
	}

	comment.Text = text
	if err := h.db.WithContext(ctx).Model(comment).Update("text", text).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Comment updated", gin.H{"comment": newWritingCommentView(comment)})
}

// DeleteWritingComment deletes the caller's comment
// DELETE /api/writing-comments/:id
func (h *Handlers) DeleteWritingComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment, err := h.comments.GetWritingComment(ctx, c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own comments")
		return
	}
	if err := h.comments.DeleteWritingComment(ctx, comment.ID); err != nil {
		respondThreadError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Comment deleted", nil)
}

// ownerComment loads a comment for a moderation action by the writing owner.
func (h *Handlers) ownerComment(c *gin.Context) (*models.WritingComment, bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()

	comment, err := h.comments.GetWritingComment(ctx, c.Param("id"))
	if err != nil {
		respondThreadError(c, err)
		return nil, false
	}
	w, err := h.loadWriting(ctx, comment.WritingID)
	if err != nil {
		h.respondLoadError(c, err, "writing")
		return nil, false
	}
	if w.UserID != userID {
		util.RespondForbidden(c, "Only the writing's owner can moderate its comments")
		return nil, false
	}
	return comment, true
}

// UnflagWritingComment clears a moderation flag
// PATCH /api/writing-comments/:id/unflag
func (h *Handlers) UnflagWritingComment(c *gin.Context) {
	comment, ok := h.ownerComment(c)
	if !ok {
		return
	}
	if !comment.Flagged {
		util.RespondBadRequest(c, "Comment is not flagged")
		return
	}
	if err := h.comments.SetWritingCommentFlag(c.Request.Context(), comment.ID, false); err != nil {
		respondThreadError(c, err)
		return
	}
	comment.Flagged = false
	view := newWritingCommentView(comment)
	h.publish(comment.WritingID, view)
	util.RespondSuccess(c, http.StatusOK, "Comment unflagged", gin.H{"comment": view})
}

// ForceDeleteWritingComment lets the writing owner remove any comment
// DELETE /api/writing-comments/:id/force
func (h *Handlers) ForceDeleteWritingComment(c *gin.Context) {
	comment, ok := h.ownerComment(c)
	if !ok {
		return
	}
	if err := h.comments.DeleteWritingComment(c.Request.Context(), comment.ID); err != nil {
		respondThreadError(c, err)
		return
	}
	logger.InfoWithFields("Comment removed by writing owner",
		logger.WithWritingID(comment.WritingID), logger.WithCommentID(comment.ID))
	util.RespondSuccess(c, http.StatusOK, "Comment deleted", nil)
}

// AddReply appends a reply to a comment
// POST /api/writing-comments/:id/replies
func (h *Handlers) AddReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, _, err := h.commentContext(ctx, c.Param("id"), userID); err != nil {
		respondThreadError(c, err)
		return
	}
	username := h.authorName(ctx, userID)

	var reply models.Reply
	comment, err := h.comments.UpdateWritingCommentThread(ctx, c.Param("id"), func(wc *models.WritingComment) error {
		reply = wc.AddReply(userID, username, text, time.Now().UTC())
		return nil
	})
	if err != nil {
		respondThreadError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusCreated, "Reply added", gin.H{
		"reply":   reply,
		"comment": newWritingCommentView(comment),
	})
}

// EditReply rewrites the caller's reply
// PUT /api/writing-comments/:id/replies/:replyId
func (h *Handlers) EditReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	text, ok := bindCommentText(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var reply models.Reply
	comment, err := h.comments.UpdateWritingCommentThread(ctx, c.Param("id"), func(wc *models.WritingComment) error {
		var err error
		reply, err = wc.EditReply(c.Param("replyId"), userID, text, time.Now().UTC())
		return err
	})
	if err != nil {
		respondThreadError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Reply updated", gin.H{
		"reply":   reply,
		"comment": newWritingCommentView(comment),
	})
}

// DeleteReply removes the caller's reply
// DELETE /api/writing-comments/:id/replies/:replyId
func (h *Handlers) DeleteReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	comment, err := h.comments.UpdateWritingCommentThread(c.Request.Context(), c.Param("id"), func(wc *models.WritingComment) error {
		return wc.RemoveReply(c.Param("replyId"), userID)
	})
	if err != nil {
		respondThreadError(c, err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "Reply deleted", gin.H{"comment": newWritingCommentView(comment)})
}

// ToggleReaction adds or removes the caller's emoji on a comment
// PUT /api/writing-comments/:id/reactions
func (h *Handlers) ToggleReaction(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "emoji", "a single emoji is required")
		return
	}
	ctx := c.Request.Context()

	if _, _, err := h.commentContext(ctx, c.Param("id"), userID); err != nil {
		respondThreadError(c, err)
		return
	}

	var reacted bool
	comment, err := h.comments.UpdateWritingCommentThread(ctx, c.Param("id"), func(wc *models.WritingComment) error {
		reacted = wc.ToggleReaction(userID, req.Emoji, time.Now().UTC())
		return nil
	})
	if err != nil {
		respondThreadError(c, err)
		return
	}
	metrics.RecordToggle("comment_reaction", reacted)
	util.RespondSuccess(c, http.StatusOK, "", gin.H{
		"reacted":   reacted,
		"reactions": comment.ReactionSummary(),
	})
}
