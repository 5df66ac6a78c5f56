package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/moderation"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"gorm.io/gorm"
)

// mediaCleanupTimeout bounds best-effort deletes of stored media.
const mediaCleanupTimeout = 15 * time.Second

// Publisher pushes a new comment to the live room of its content.
type Publisher interface {
	Publish(room string, comment interface{})
}

// Deps are the collaborators shared by every content handler.
type Deps struct {
	DB         *gorm.DB
	Users      repository.UserRepository
	Engagement repository.EngagementRepository
	Comments   repository.CommentRepository
	Content    repository.ContentRepository
	Media      storage.MediaUploader
	Gateway    moderation.Gateway
	Relay      Publisher
	Search     *search.Service
}

// Handlers contains all content and engagement HTTP handlers.
type Handlers struct {
	db         *gorm.DB
	users      repository.UserRepository
	engagement repository.EngagementRepository
	comments   repository.CommentRepository
	content    repository.ContentRepository
	media      storage.MediaUploader
	gateway    moderation.Gateway
	relay      Publisher
	search     *search.Service
}

// NewHandlers fills in repositories over deps.DB where none are given.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		db:         deps.DB,
		users:      deps.Users,
		engagement: deps.Engagement,
		comments:   deps.Comments,
		content:    deps.Content,
		media:      deps.Media,
		gateway:    deps.Gateway,
		relay:      deps.Relay,
		search:     deps.Search,
	}
	if h.users == nil {
		h.users = repository.NewUserRepository(deps.DB)
	}
	if h.engagement == nil {
		h.engagement = repository.NewEngagementRepository(deps.DB)
	}
	if h.comments == nil {
		h.comments = repository.NewCommentRepository(deps.DB)
	}
	if h.content == nil {
		h.content = repository.NewContentRepository(deps.DB)
	}
	if h.search == nil {
		h.search = search.NewService(nil, deps.DB, nil)
	}
	return h
}

// authorName resolves a user's display name for denormalised fields.
func (h *Handlers) authorName(ctx context.Context, userID string) string {
	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Name
}

// publish pushes comment to room without blocking the response.
func (h *Handlers) publish(room string, comment interface{}) {
	if h.relay == nil {
		return
	}
	h.relay.Publish(room, comment)
}

// deleteMedia removes stored objects best-effort, after the response path.
func (h *Handlers) deleteMedia(ctx context.Context, keys ...string) {
	if h.media == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mediaCleanupTimeout)
	defer cancel()
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := h.media.Delete(ctx, key); err != nil {
			logger.WarnWithFields("Failed to delete media object", err, logger.WithMediaKey(key))
		}
	}
}

// loadPost fetches a live post, mapping a missing row to repository.ErrTargetNotFound.
func (h *Handlers) loadPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := h.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTargetNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (h *Handlers) loadWriting(ctx context.Context, writingID string) (*models.Writing, error) {
	var w models.Writing
	if err := h.db.WithContext(ctx).First(&w, "id = ?", writingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTargetNotFound
		}
		return nil, err
	}
	return &w, nil
}
