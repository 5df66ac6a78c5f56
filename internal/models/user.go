package models

import (
	"time"

	"gorm.io/gorm"
)

// SocialLinks stores a user's external profile links
type SocialLinks struct {
	Instagram  string `json:"instagram,omitempty"`
	Twitter    string `json:"twitter,omitempty"`
	Facebook   string `json:"facebook,omitempty"`
	LinkedIn   string `json:"linkedin,omitempty"`
	Behance    string `json:"behance,omitempty"`
	DeviantArt string `json:"deviantart,omitempty"`
	Website    string `json:"website,omitempty"`
}

// User is an account. It starts unverified and becomes usable once the
// emailed one-time code is confirmed.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	DateOfBirth  time.Time `json:"dob"`

	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Bio          string       `gorm:"type:text" json:"bio"`
	Interests    StringArray  `gorm:"type:text" json:"interests"`
	SocialLinks  *SocialLinks `gorm:"type:text;serializer:json" json:"social_links"`
	ProfileImage string       `json:"profile_image"`
	ProfileKey   string       `json:"-"`

	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	OTPCode      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	FollowerCount  int `gorm:"not null;default:0" json:"follower_count"`
	FollowingCount int `gorm:"not null;default:0" json:"following_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow is a directed follower -> following edge.
type Follow struct {
	FollowerID  string    `gorm:"primaryKey;type:varchar(36)" json:"follower_id"`
	FollowingID string    `gorm:"primaryKey;type:varchar(36);index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// PublicUser is the author summary embedded in content responses.
type PublicUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Public strips the account down to what other users may see.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}
