package models

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
)

var (
	ErrReplyNotFound = errors.New("reply not found")
	ErrNotAuthor     = errors.New("only the author can modify this entry")
)

// Reply is an entry of a comment's reply thread. Replies live inside their
// comment row and are always persisted together with it.
type Reply struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reaction is an emoji left on a comment. A user holds at most one reaction
// per emoji.
type Reaction struct {
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// WritingComment is a comment on a writing together with its replies and
// reactions. Version guards concurrent rewrites of the embedded lists.
type WritingComment struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WritingID string `gorm:"type:varchar(36);not null;index:idx_writing_comments_writing_created,priority:1" json:"writing_id"`
	UserID    string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Username  string `json:"username"`
	Text      string `gorm:"type:text;not null" json:"text"`

	Flagged         bool   `gorm:"default:false" json:"flagged"`
	ModerationLabel string `json:"moderation_label,omitempty"`

	Replies   []Reply    `gorm:"type:text;serializer:json" json:"replies"`
	Reactions []Reaction `gorm:"type:text;serializer:json" json:"reactions"`
	Version   int        `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_writing_comments_writing_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *WritingComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	if c.Replies == nil {
		c.Replies = []Reply{}
	}
	if c.Reactions == nil {
		c.Reactions = []Reaction{}
	}
	return nil
}

// AddReply appends a reply authored by userID.
func (c *WritingComment) AddReply(userID, username, text string, now time.Time) Reply {
	r := Reply{
		ID:        generateUUID(),
		UserID:    userID,
		Username:  username,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Replies = append(c.Replies, r)
	return r
}

func (c *WritingComment) findReply(replyID string) int {
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			return i
		}
	}
	return -1
}

// EditReply rewrites the text of a reply owned by userID.
func (c *WritingComment) EditReply(replyID, userID, text string, now time.Time) (Reply, error) {
	i := c.findReply(replyID)
	if i < 0 {
		return Reply{}, ErrReplyNotFound
	}
	if c.Replies[i].UserID != userID {
		return Reply{}, ErrNotAuthor
	}
	c.Replies[i].Text = text
	c.Replies[i].UpdatedAt = now
	return c.Replies[i], nil
}

// RemoveReply deletes a reply owned by userID.
func (c *WritingComment) RemoveReply(replyID, userID string) error {
	i := c.findReply(replyID)
	if i < 0 {
		return ErrReplyNotFound
	}
	if c.Replies[i].UserID != userID {
		return ErrNotAuthor
	}
	c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
	return nil
}

// ToggleReaction removes the (user, emoji) reaction if present and adds it
// otherwise. It returns true when the reaction is now present.
func (c *WritingComment) ToggleReaction(userID, emoji string, now time.Time) bool {
	for i, r := range c.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			c.Reactions = append(c.Reactions[:i], c.Reactions[i+1:]...)
			return false
		}
	}
	c.Reactions = append(c.Reactions, Reaction{UserID: userID, Emoji: emoji, CreatedAt: now})
	return true
}

// ReactionCount is the number of users who left one emoji.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// ReactionSummary counts reactions per emoji, most used first.
func (c *WritingComment) ReactionSummary() []ReactionCount {
	counts := make(map[string]int)
	order := []string{}
	for _, r := range c.Reactions {
		if counts[r.Emoji] == 0 {
			order = append(order, r.Emoji)
		}
		counts[r.Emoji]++
	}
	summary := make([]ReactionCount, 0, len(order))
	for _, e := range order {
		summary = append(summary, ReactionCount{Emoji: e, Count: counts[e]})
	}
	sort.SliceStable(summary, func(i, j int) bool { return summary[i].Count > summary[j].Count })
	return summary
}
