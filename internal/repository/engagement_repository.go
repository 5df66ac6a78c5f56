package repository

import (
	"context"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult is the membership state after a toggle and the resulting
// counter value of the target.
type ToggleResult struct {
	Active bool
	Count  int
}

// EngagementRepository owns every set-membership relation and the counters
// derived from them.
type EngagementRepository interface {
	TogglePostLike(ctx context.Context, userID, postID string) (ToggleResult, error)
	ToggleSavedPost(ctx context.Context, userID, postID string) (ToggleResult, error)
	RemoveSavedPost(ctx context.Context, userID, postID string) error
	ToggleWritingLike(ctx context.Context, userID, writingID string) (ToggleResult, error)
	ToggleWritingBookmark(ctx context.Context, userID, writingID string) (ToggleResult, error)
	ToggleFollow(ctx context.Context, followerID, followingID string) (ToggleResult, error)

	IsPostLiked(ctx context.Context, userID, postID string) (bool, error)
	IsPostSaved(ctx context.Context, userID, postID string) (bool, error)
	IsWritingLiked(ctx context.Context, userID, writingID string) (bool, error)
	IsWritingBookmarked(ctx context.Context, userID, writingID string) (bool, error)

	IncrementPostViews(ctx context.Context, postID string) error
	ReportWriting(ctx context.Context, userID, writingID, reason string) (int, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// counterRef names a counter column to keep in step with a membership row.
type counterRef struct {
	model  interface{}
	id     string
	column string
}

// toggle is the shared set-membership primitive. Inside one transaction it
// deletes the membership row; when nothing was deleted it inserts the row
// with ON CONFLICT DO NOTHING. Counters move only when a row was actually
// removed or inserted, so concurrent identical toggles cannot double count.
// The first counter's value is reported back.
func (r *engagementRepository) toggle(ctx context.Context, target counterRef, row interface{}, where map[string]interface{}, counters ...counterRef) (ToggleResult, error) {
	var result ToggleResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(target.model).Where("id = ?", target.id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrTargetNotFound
		}

		deleted := tx.Where(where).Delete(row)
		if deleted.Error != nil {
			return deleted.Error
		}

		delta := 0
		if deleted.RowsAffected > 0 {
			result.Active = false
			delta = -1
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if inserted.Error != nil {
				return inserted.Error
			}
			result.Active = true
			if inserted.RowsAffected > 0 {
				delta = 1
			}
		}

		for _, c := range counters {
			if err := AdjustCounter(tx, c.model, c.id, c.column, delta); err != nil {
				return err
			}
		}
		if len(counters) > 0 {
			count, err := ReadCounter(tx, counters[0].model, counters[0].id, counters[0].column)
			if err != nil {
				return err
			}
			result.Count = count
		}
		return nil
	})
	return result, err
}

func (r *engagementRepository) TogglePostLike(ctx context.Context, userID, postID string) (ToggleResult, error) {
	post := counterRef{model: &models.Post{}, id: postID, column: "like_count"}
	return r.toggle(ctx, post,
		&models.Like{UserID: userID, PostID: postID},
		map[string]interface{}{"user_id": userID, "post_id": postID},
		post,
	)
}

// ToggleSavedPost reports the caller's saved-post total as Count.
func (r *engagementRepository) ToggleSavedPost(ctx context.Context, userID, postID string) (ToggleResult, error) {
	result, err := r.toggle(ctx, counterRef{model: &models.Post{}, id: postID},
		&models.SavedPost{UserID: userID, PostID: postID},
		map[string]interface{}{"user_id": userID, "post_id": postID},
	)
	if err != nil {
		return result, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.SavedPost{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return result, err
	}
	result.Count = int(n)
	return result, nil
}

func (r *engagementRepository) RemoveSavedPost(ctx context.Context, userID, postID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.SavedPost{}).Error
}

func (r *engagementRepository) ToggleWritingLike(ctx context.Context, userID, writingID string) (ToggleResult, error) {
	writing := counterRef{model: &models.Writing{}, id: writingID, column: "like_count"}
	return r.toggle(ctx, writing,
		&models.WritingLike{WritingID: writingID, UserID: userID},
		map[string]interface{}{"writing_id": writingID, "user_id": userID},
		writing,
	)
}

func (r *engagementRepository) ToggleWritingBookmark(ctx context.Context, userID, writingID string) (ToggleResult, error) {
	writing := counterRef{model: &models.Writing{}, id: writingID, column: "bookmark_count"}
	return r.toggle(ctx, writing,
		&models.WritingBookmark{WritingID: writingID, UserID: userID},
		map[string]interface{}{"writing_id": writingID, "user_id": userID},
		writing,
	)
}

// ToggleFollow reports the followed user's follower count.
func (r *engagementRepository) ToggleFollow(ctx context.Context, followerID, followingID string) (ToggleResult, error) {
	if followerID == followingID {
		return ToggleResult{}, ErrSelfFollow
	}
	following := counterRef{model: &models.User{}, id: followingID, column: "follower_count"}
	return r.toggle(ctx, following,
		&models.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now().UTC()},
		map[string]interface{}{"follower_id": followerID, "following_id": followingID},
		following,
		counterRef{model: &models.User{}, id: followerID, column: "following_count"},
	)
}

func (r *engagementRepository) IsPostLiked(ctx context.Context, userID, postID string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Like{}, map[string]interface{}{"user_id": userID, "post_id": postID})
}

func (r *engagementRepository) IsPostSaved(ctx context.Context, userID, postID string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.SavedPost{}, map[string]interface{}{"user_id": userID, "post_id": postID})
}

func (r *engagementRepository) IsWritingLiked(ctx context.Context, userID, writingID string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.WritingLike{}, map[string]interface{}{"user_id": userID, "writing_id": writingID})
}

func (r *engagementRepository) IsWritingBookmarked(ctx context.Context, userID, writingID string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.WritingBookmark{}, map[string]interface{}{"user_id": userID, "writing_id": writingID})
}

// IncrementPostViews bumps the view counter with a single UPDATE.
func (r *engagementRepository) IncrementPostViews(ctx context.Context, postID string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// ReportWriting appends a report and returns the writing's report count.
// Reports are not a set: a user may report the same writing repeatedly.
func (r *engagementRepository) ReportWriting(ctx context.Context, userID, writingID, reason string) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Writing{}, writingID); err != nil {
			return err
		}
		report := &models.WritingReport{WritingID: writingID, UserID: userID, Reason: reason}
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		if err := AdjustCounter(tx, &models.Writing{}, writingID, "report_count", 1); err != nil {
			return err
		}
		var err error
		count, err = ReadCounter(tx, &models.Writing{}, writingID, "report_count")
		return err
	})
	return count, err
}
