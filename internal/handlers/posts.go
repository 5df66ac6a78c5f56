package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	maxMediaSize     = 200 << 20
	maxThumbnailSize = 10 << 20
)

type createPostForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=5000"`
	MediaType   string `form:"mediaType" binding:"required,mediatype"`
	Tags        string `form:"tags"`
	Category    string `form:"category" binding:"max=64"`
}

func toStorageFile(fh *multipart.FileHeader) (storage.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return storage.File{}, nil, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeFor(fh.Filename)
	}
	return storage.File{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
	}, func() { f.Close() }, nil
}

// CreatePost uploads media and records the post
// POST /api/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var form createPostForm
	if err := c.ShouldBind(&form); err != nil {
		util.RespondBadRequest(c, "title and a valid mediaType (image, video, text, audio) are required")
		return
	}
	if strings.TrimSpace(form.Title) == "" {
		util.RespondValidationError(c, "title", "title cannot be blank")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.RespondValidationError(c, "file", "file is required")
		return
	}
	if fileHeader.Size > maxMediaSize {
		util.RespondValidationError(c, "file", "file must be 200MB or smaller")
		return
	}

	ctx := c.Request.Context()
	file, closeFile, err := toStorageFile(fileHeader)
	if err != nil {
		util.RespondInternalError(c, "Failed to read upload", err)
		return
	}
	defer closeFile()

	media, err := h.media.Upload(ctx, storage.FolderPosts, file)
	if err != nil {
		util.RespondInternalError(c, "Failed to upload media", err)
		return
	}

	post := &models.Post{
		UserID:      userID,
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		MediaURL:    media.URL,
		MediaKey:    media.Key,
		MediaType:   models.MediaType(form.MediaType),
		Tags:        models.StringArray(util.ParseTags(form.Tags)),
		Category:    strings.TrimSpace(form.Category),
	}

	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		if thumbHeader.Size > maxThumbnailSize {
			h.deleteMedia(ctx, media.Key)
			util.RespondValidationError(c, "thumbnail", "thumbnail must be 10MB or smaller")
			return
		}
		thumb, closeThumb, err := toStorageFile(thumbHeader)
		if err != nil {
			h.deleteMedia(ctx, media.Key)
			util.RespondInternalError(c, "Failed to read thumbnail", err)
			return
		}
		defer closeThumb()
		res, err := h.media.Upload(ctx, storage.FolderThumbnails, thumb)
		if err != nil {
			h.deleteMedia(ctx, media.Key)
			util.RespondInternalError(c, "Failed to upload thumbnail", err)
			return
		}
		post.ThumbnailURL = res.URL
		post.ThumbnailKey = res.Key
	}

	if err := h.db.WithContext(ctx).Create(post).Error; err != nil {
		h.deleteMedia(ctx, post.MediaKey, post.ThumbnailKey)
		util.RespondInternalError(c, "Failed to create post", err)
		return
	}

	h.search.IndexPost(ctx, post, h.authorName(ctx, userID))
	logger.InfoWithFields("Post created", logger.WithUserID(userID), logger.WithPostID(post.ID))
	util.RespondSuccess(c, http.StatusCreated, "Post created", gin.H{"post": newPostView(post)})
}

// listPosts answers a paginated post query with the authors attached.
func (h *Handlers) listPosts(c *gin.Context, scope func(*gorm.DB) *gorm.DB) {
	limit, offset := util.Pagination(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
	if scope != nil {
		q = scope(q)
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		q = q.Where("category = ?", category)
	}
	if mediaType := c.Query("mediaType"); mediaType != "" {
		if !models.MediaType(mediaType).Valid() {
			util.RespondValidationError(c, "mediaType", "mediaType must be one of image, video, text, audio")
			return
		}
		q = q.Where("media_type = ?", mediaType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.RespondInternalError(c, "Failed to count posts", err)
		return
	}
	var posts []models.Post
	if err := q.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to load posts", err)
		return
	}

	util.RespondSuccess(c, http.StatusOK, "", gin.H{
		"posts":  newPostViews(posts),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// ListPosts lists every post
// GET /api/posts
func (h *Handlers) ListPosts(c *gin.Context) {
	h.listPosts(c, nil)
}

// MyUploads lists the caller's posts
// GET /api/posts/user/my-uploads
func (h *Handlers) MyUploads(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	h.listPosts(c, func(q *gorm.DB) *gorm.DB { return q.Where("user_id = ?", userID) })
}

// Explore lists everyone else's posts
// GET /api/posts/user/explore
func (h *Handlers) Explore(c *gin.Context) {
	userID := util.OptionalUserID(c)
	h.listPosts(c, func(q *gorm.DB) *gorm.DB {
		if userID == "" {
			return q
		}
		return q.Where("user_id <> ?", userID)
	})
}

// GetPost returns one post and counts the view unless the owner is looking
// GET /api/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.OptionalUserID(c)
	ctx := c.Request.Context()

	var post models.Post
	if err := h.db.WithContext(ctx).Preload("User").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondDBError(c, err, "post")
		return
	}

	if viewerID != post.UserID {
		if err := h.engagement.IncrementPostViews(ctx, postID); err != nil {
			if errors.Is(err, repository.ErrTargetNotFound) {
				util.RespondNotFound(c, "post")
				return
			}
			util.RespondInternalError(c, "Failed to record view", err)
			return
		}
		post.Views++
	}

	resp := gin.H{"post": newPostView(&post)}
	if viewerID != "" {
		liked, _ := h.engagement.IsPostLiked(ctx, viewerID, postID)
		saved, _ := h.engagement.IsPostSaved(ctx, viewerID, postID)
		resp["liked"] = liked
		resp["saved"] = saved
	}
	util.RespondSuccess(c, http.StatusOK, "", resp)
}

type updatePostRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
}

// UpdatePost edits the title or description of the caller's post
// PUT /api/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	post, err := h.loadPost(ctx, c.Param("id"))
	if err != nil {
		h.respondLoadError(c, err, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "You can only edit your own posts")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			util.RespondValidationError(c, "title", "title cannot be blank")
			return
		}
		updates["title"] = title
		post.Title = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
		post.Description = *req.Description
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "Failed to update post", err)
			return
		}
		h.search.IndexPost(ctx, post, h.authorName(ctx, userID))
	}
	util.RespondSuccess(c, http.StatusOK, "Post updated", gin.H{"post": newPostView(post)})
}

// DeletePost removes the caller's post with its likes, saves and comments
// DELETE /api/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	postID := c.Param("id")

	post, err := h.loadPost(ctx, postID)
	if err != nil {
		h.respondLoadError(c, err, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own posts")
		return
	}

	deleted, err := h.content.DeletePost(ctx, postID)
	if err != nil {
		h.respondLoadError(c, err, "post")
		return
	}

	h.deleteMedia(ctx, deleted.MediaKey, deleted.ThumbnailKey)
	h.search.Remove(ctx, search.TypePosts, postID)
	logger.InfoWithFields("Post deleted", logger.WithUserID(userID), logger.WithPostID(postID))
	util.RespondSuccess(c, http.StatusOK, "Post deleted", nil)
}

// respondLoadError answers a failed load of a named resource.
func (h *Handlers) respondLoadError(c *gin.Context, err error, resource string) {
	if errors.Is(err, repository.ErrTargetNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, resource)
		return
	}
	util.RespondInternalError(c, "Failed to load "+resource, err)
}
