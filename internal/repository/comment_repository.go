package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	// ErrConcurrentUpdate is returned when a comment thread kept changing
	// underneath every retry.
	ErrConcurrentUpdate = errors.New("comment was modified concurrently")
)

// maxThreadRetries bounds optimistic retries of reply/reaction updates.
const maxThreadRetries = 5

// CommentRepository stores post and writing comments and keeps the parent
// comment_count in the same transaction as each insert and delete.
type CommentRepository interface {
	CreatePostComment(ctx context.Context, comment *models.Comment) error
	DeletePostComment(ctx context.Context, postID, commentID string) error

	CreateWritingComment(ctx context.Context, comment *models.WritingComment) error
	GetWritingComment(ctx context.Context, commentID string) (*models.WritingComment, error)
	DeleteWritingComment(ctx context.Context, commentID string) error
	SetWritingCommentFlag(ctx context.Context, commentID string, flagged bool) error

	// UpdateWritingCommentThread loads the comment, applies mutate and saves
	// replies and reactions if the version did not move in between. A
	// concurrent writer causes a reload and a fresh call to mutate.
	UpdateWritingCommentThread(ctx context.Context, commentID string, mutate func(*models.WritingComment) error) (*models.WritingComment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) CreatePostComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, comment.PostID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return AdjustCounter(tx, &models.Post{}, comment.PostID, "comment_count", 1)
	})
}

// DeletePostComment removes the comment; the counter moves only if a row
// was deleted.
func (r *commentRepository) DeletePostComment(ctx context.Context, postID, commentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND post_id = ?", commentID, postID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return AdjustCounter(tx, &models.Post{}, postID, "comment_count", -1)
	})
}

func (r *commentRepository) CreateWritingComment(ctx context.Context, comment *models.WritingComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Writing{}, comment.WritingID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return AdjustCounter(tx, &models.Writing{}, comment.WritingID, "comment_count", 1)
	})
}

func (r *commentRepository) GetWritingComment(ctx context.Context, commentID string) (*models.WritingComment, error) {
	var comment models.WritingComment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) DeleteWritingComment(ctx context.Context, commentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.WritingComment
		if err := tx.Select("id", "writing_id").First(&comment, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		res := tx.Where("id = ?", commentID).Delete(&models.WritingComment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return AdjustCounter(tx, &models.Writing{}, comment.WritingID, "comment_count", -1)
	})
}

func (r *commentRepository) SetWritingCommentFlag(ctx context.Context, commentID string, flagged bool) error {
	res := r.db.WithContext(ctx).Model(&models.WritingComment{}).
		Where("id = ?", commentID).
		UpdateColumn("flagged", flagged)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) UpdateWritingCommentThread(ctx context.Context, commentID string, mutate func(*models.WritingComment) error) (*models.WritingComment, error) {
	for attempt := 0; attempt < maxThreadRetries; attempt++ {
		comment, err := r.GetWritingComment(ctx, commentID)
		if err != nil {
			return nil, err
		}
		if err := mutate(comment); err != nil {
			return nil, err
		}

		seen := comment.Version
		comment.Version = seen + 1
		comment.UpdatedAt = time.Now().UTC()
		res := r.db.WithContext(ctx).Model(comment).
			Where("version = ?", seen).
			Select("replies", "reactions", "version", "updated_at").
			Updates(comment)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return comment, nil
		}
	}
	return nil, ErrConcurrentUpdate
}

// requireRow returns ErrTargetNotFound unless a live row with id exists.
func requireRow(tx *gorm.DB, model interface{}, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrTargetNotFound
	}
	return nil
}
