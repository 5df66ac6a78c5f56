package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaType classifies an uploaded post.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
	MediaAudio MediaType = "audio"
)

// Valid reports whether t is a supported media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaText, MediaAudio:
		return true
	}
	return false
}

// Bucket is the saved-collection bucket a post of this type lands in.
func (t MediaType) Bucket() string {
	switch t {
	case MediaImage:
		return "images"
	case MediaVideo:
		return "videos"
	case MediaAudio:
		return "audios"
	default:
		return "texts"
	}
}

// Post is an uploaded piece of media.
type Post struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title        string      `gorm:"not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	MediaURL     string      `gorm:"not null" json:"media_url"`
	MediaType    MediaType   `gorm:"type:varchar(16);not null;index" json:"media_type"`
	MediaKey     string      `json:"-"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	ThumbnailKey string      `json:"-"`
	Tags         StringArray `gorm:"type:text" json:"tags"`
	Category     string      `gorm:"index" json:"category"`

	Views        int64 `gorm:"not null;default:0" json:"views"`
	LikeCount    int   `gorm:"not null;default:0" json:"like_count"`
	CommentCount int   `gorm:"not null;default:0" json:"comment_count"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Like records that a user liked a post.
type Like struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	PostID    string    `gorm:"primaryKey;type:varchar(36);index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is one entry of a user's saved collection.
type SavedPost struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	PostID    string    `gorm:"primaryKey;type:varchar(36);index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a flat comment on a post.
type Comment struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID   string `gorm:"type:varchar(36);not null;index" json:"post_id"`
	UserID   string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Username string `json:"username"`
	Text     string `gorm:"type:text;not null" json:"text"`

	Flagged         bool   `gorm:"default:false" json:"flagged"`
	ModerationLabel string `json:"moderation_label,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
