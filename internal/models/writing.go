package models

import (
	"time"

	"gorm.io/gorm"
)

type WritingStatus string

const (
	WritingDraft     WritingStatus = "draft"
	WritingPublished WritingStatus = "published"
)

// DefaultReportReason replaces a blank report reason.
const DefaultReportReason = "No reason provided"

// Writing is a rich-text document authored in the editor.
type Writing struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Title   string        `gorm:"not null" json:"title"`
	Content string        `gorm:"type:text" json:"content"`
	Status  WritingStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	Tags    StringArray   `gorm:"type:text" json:"tags"`

	LikeCount     int `gorm:"not null;default:0" json:"like_count"`
	BookmarkCount int `gorm:"not null;default:0" json:"bookmark_count"`
	CommentCount  int `gorm:"not null;default:0" json:"comment_count"`
	ReportCount   int `gorm:"not null;default:0" json:"report_count"`

	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	LikedByMe      bool `gorm:"-" json:"liked_by_me"`
	BookmarkedByMe bool `gorm:"-" json:"bookmarked_by_me"`
}

// IsPublished reports whether the writing is visible to everyone.
func (w *Writing) IsPublished() bool {
	return w.Status == WritingPublished
}

type WritingLike struct {
	WritingID string    `gorm:"primaryKey;type:varchar(36)" json:"writing_id"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type WritingBookmark struct {
	WritingID string    `gorm:"primaryKey;type:varchar(36)" json:"writing_id"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WritingReport is a user's report against a writing.
type WritingReport struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WritingID string    `gorm:"type:varchar(36);not null;index" json:"writing_id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Writing) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = generateUUID()
	}
	if w.Status == "" {
		w.Status = WritingDraft
	}
	return nil
}

func (r *WritingReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
