package repository

import (
	"context"
	"errors"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"gorm.io/gorm"
)

// ContentRepository removes posts and writings together with everything
// that hangs off them.
type ContentRepository interface {
	DeletePost(ctx context.Context, postID string) (*models.Post, error)
	DeleteWriting(ctx context.Context, writingID string) (*models.Writing, error)
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// DeletePost removes the post's likes, saves and comments in the same
// transaction as the post itself and returns the deleted row so the caller
// can release its media.
func (r *contentRepository) DeletePost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		for _, dep := range []interface{}{&models.Like{}, &models.SavedPost{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", postID).Delete(dep).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeleteWriting removes likes, bookmarks, reports and comments of the writing.
func (r *contentRepository) DeleteWriting(ctx context.Context, writingID string) (*models.Writing, error) {
	var w models.Writing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, "id = ?", writingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		deps := []interface{}{&models.WritingLike{}, &models.WritingBookmark{}, &models.WritingReport{}, &models.WritingComment{}}
		for _, dep := range deps {
			if err := tx.Where("writing_id = ?", writingID).Delete(dep).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&w).Error
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}
