package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// tagsTimeout bounds tag generation on the request path.
const tagsTimeout = 15 * time.Second

type saveWritingRequest struct {
	ID      string   `json:"id"`
	Title   string   `json:"title" binding:"max=300"`
	Content string   `json:"content"`
	Status  string   `json:"status" binding:"omitempty,writingstatus"`
	Tags    []string `json:"tags"`
}

var saveWritingMessages = map[string]string{
	"title":  "title must be at most 300 characters",
	"status": "status must be draft or published",
}

// visibleWriting loads a writing the viewer may see. Drafts exist only for
// their owner, everyone else gets ErrTargetNotFound.
func (h *Handlers) visibleWriting(ctx context.Context, writingID, viewerID string) (*models.Writing, error) {
	w, err := h.loadWriting(ctx, writingID)
	if err != nil {
		return nil, err
	}
	if !w.IsPublished() && w.UserID != viewerID {
		return nil, repository.ErrTargetNotFound
	}
	return w, nil
}

// SaveWriting creates a writing, or updates the caller's writing when an id is given
// POST /api/writing/save
func (h *Handlers) SaveWriting(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req saveWritingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, saveWritingMessages)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		util.RespondValidationError(c, "title", "title is required")
		return
	}
	status := models.WritingStatus(req.Status)
	if status == "" {
		status = models.WritingDraft
	}
	now := time.Now().UTC()

	if req.ID == "" {
		w := &models.Writing{
			UserID:  userID,
			Title:   title,
			Content: req.Content,
			Status:  status,
			Tags:    models.StringArray(util.NormalizeTags(req.Tags)),
		}
		if status == models.WritingPublished {
			w.PublishedAt = &now
		}
		if err := h.db.WithContext(ctx).Create(w).Error; err != nil {
			util.RespondInternalError(c, "Failed to save writing", err)
			return
		}
		h.search.SyncWriting(ctx, w, h.authorName(ctx, userID))
		logger.InfoWithFields("Writing created", logger.WithUserID(userID), logger.WithWritingID(w.ID))
		util.RespondSuccess(c, http.StatusCreated, "Writing saved", gin.H{"writing": newWritingView(w)})
		return
	}

	w, err := h.loadWriting(ctx, req.ID)
	if err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}
	if w.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own writings")
		return
	}

	updates := map[string]interface{}{
		"title":   title,
		"content": req.Content,
		"status":  status,
	}
	if req.Tags != nil {
		w.Tags = models.StringArray(util.NormalizeTags(req.Tags))
		updates["tags"] = w.Tags
	}
	switch {
	case status == models.WritingPublished && !w.IsPublished():
		w.PublishedAt = &now
		updates["published_at"] = now
	case status == models.WritingDraft:
		w.PublishedAt = nil
		updates["published_at"] = nil
	}
	w.Title, w.Content, w.Status = title, req.Content, status

	if err := h.db.WithContext(ctx).Model(w).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to save writing", err)
		return
	}
	h.search.SyncWriting(ctx, w, h.authorName(ctx, userID))
	util.RespondSuccess(c, http.StatusOK, "Writing saved", gin.H{"writing": newWritingView(w)})
}

// MyWritings lists the caller's writings, optionally by status
// GET /api/writing/my-writings
func (h *Handlers) MyWritings(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	q := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		if s := models.WritingStatus(status); s != models.WritingDraft && s != models.WritingPublished {
			util.RespondValidationError(c, "status", "status must be draft or published")
			return
		}
		q = q.Where("status = ?", status)
	}

	var writings []models.Writing
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&writings).Error; err != nil {
		util.RespondInternalError(c, "Failed to load writings", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"writings": newWritingViews(writings)})
}

// PublishedWritings lists published writings whose title, content or author
// name contains the search term
// GET /api/writing/published?search=
func (h *Handlers) PublishedWritings(c *gin.Context) {
	limit, offset := util.Pagination(c)
	term := c.Query("search")
	q := search.PublishedWritings(h.db.WithContext(c.Request.Context()), term).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "Failed to count writings", err)
		return
	}
	var writings []models.Writing
	if err := q.Preload("User").Limit(limit).Offset(offset).Find(&writings).Error; err != nil {
		util.RespondInternalError(c, "Failed to load writings", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{
		"writings": newWritingViews(writings),
		"total":    total,
	})
}

type generateTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GenerateTags suggests tags; a failing gateway yields an empty list
// POST /api/writing/generate-tags
func (h *Handlers) GenerateTags(c *gin.Context) {
	var req generateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), tagsTimeout)
	defer cancel()
	tags := h.gateway.GenerateTags(ctx, req.Title, req.Content)
	if tags == nil {
		tags = []string{}
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"tags": tags})
}

// GetWriting returns a published writing, or a draft to its owner
// GET /api/writing/:id
func (h *Handlers) GetWriting(c *gin.Context) {
	viewerID := util.OptionalUserID(c)
	ctx := c.Request.Context()

	var w models.Writing
	if err := h.db.WithContext(ctx).Preload("User").First(&w, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondDBError(c, err, "writing")
		return
	}
	if !w.IsPublished() && w.UserID != viewerID {
		util.RespondNotFound(c, "writing")
		return
	}

	if viewerID != "" {
		w.LikedByMe, _ = h.engagement.IsWritingLiked(ctx, viewerID, w.ID)
		w.BookmarkedByMe, _ = h.engagement.IsWritingBookmarked(ctx, viewerID, w.ID)
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"writing": newWritingView(&w)})
}

// DeleteWriting removes the caller's writing and everything attached to it
// DELETE /api/writing/:id
func (h *Handlers) DeleteWriting(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	writingID := c.Param("id")

	w, err := h.loadWriting(ctx, writingID)
	if err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}
	if w.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own writings")
		return
	}
	if _, err := h.content.DeleteWriting(ctx, writingID); err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}

	h.search.Remove(ctx, search.TypeWritings, writingID)
	logger.InfoWithFields("Writing deleted", logger.WithUserID(userID), logger.WithWritingID(writingID))
	util.RespondSuccess(c, http.StatusOK, "Writing deleted", nil)
}

// ToggleWritingLike likes or unlikes a writing
// PUT /api/writing/like/:id
func (h *Handlers) ToggleWritingLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.visibleWriting(ctx, c.Param("id"), userID); err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}

	result, err := h.engagement.ToggleWritingLike(ctx, userID, c.Param("id"))
	if err != nil {
		respondToggleError(c, err, "writing")
		return
	}
	metrics.RecordToggle("writing_like", result.Active)
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"liked": result.Active, "likes": result.Count})
}

// ToggleWritingBookmark bookmarks or unbookmarks a writing
// PUT /api/writing/bookmark/:id
func (h *Handlers) ToggleWritingBookmark(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.visibleWriting(ctx, c.Param("id"), userID); err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}

	result, err := h.engagement.ToggleWritingBookmark(ctx, userID, c.Param("id"))
	if err != nil {
		respondToggleError(c, err, "writing")
		return
	}
	metrics.RecordToggle("writing_bookmark", result.Active)
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"bookmarked": result.Active, "bookmarks": result.Count})
}

type reportRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ReportWriting records a report against a writing
// POST /api/writing/report/:id
func (h *Handlers) ReportWriting(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req reportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, "Invalid request body")
			return
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = models.DefaultReportReason
	}

	if _, err := h.visibleWriting(ctx, c.Param("id"), userID); err != nil {
		h.respondLoadError(c, err, "writing")
		return
	}
	count, err := h.engagement.ReportWriting(ctx, userID, c.Param("id"), reason)
	if err != nil {
		respondToggleError(c, err, "writing")
		return
	}
	logger.InfoWithFields("Writing reported", logger.WithUserID(userID), logger.WithWritingID(c.Param("id")))
	util.RespondSuccess(c, http.StatusCreated, "Report submitted", gin.H{"reports": count})
}

// BookmarkedWritings lists the caller's bookmarked writings
// GET /api/writing/bookmarks
func (h *Handlers) BookmarkedWritings(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := util.Pagination(c)

	var writings []models.Writing
	err := h.db.WithContext(c.Request.Context()).
		Joins("JOIN writing_bookmarks ON writing_bookmarks.writing_id = writings.id").
		Where("writing_bookmarks.user_id = ?", userID).
		Where("writings.status = ? OR writings.user_id = ?", models.WritingPublished, userID).
		Preload("User").
		Order("writing_bookmarks.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&writings).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load bookmarks", err)
		return
	}
	for i := range writings {
		writings[i].BookmarkedByMe = true
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"writings": newWritingViews(writings)})
}
