package repository

import (
	"context"
	"errors"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTargetNotFound = errors.New("target not found")
	ErrSelfFollow     = errors.New("users cannot follow themselves")
	ErrInvalidInput   = errors.New("invalid input")
)

// UserRepository handles all database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
	MarkVerified(ctx context.Context, userID, code string) (bool, error)

	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateFields writes only the given columns.
func (r *userRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MarkVerified consumes the pending code: the user becomes verified and the
// code is cleared only if it still matches. It reports whether this call won.
func (r *userRepository) MarkVerified(ctx context.Context, userID, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_verified = ? AND otp_code = ?", userID, false, code).
		Updates(map[string]interface{}{
			"is_verified":    true,
			"otp_code":       nil,
			"otp_expires_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetFollowers gets users following the given user
func (r *userRepository) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// GetFollowing gets users that the given user follows
func (r *userRepository) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Follow{}, map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
	})
}

func exists(db *gorm.DB, model interface{}, where map[string]interface{}) (bool, error) {
	var n int64
	if err := db.Model(model).Where(where).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
