package websocket

import (
	"encoding/json"
	"time"
)

// Message types on the relay channel
const (
	// Client -> server
	MessageTypeJoinPost   = "join_post"
	MessageTypeLeavePost  = "leave_post"
	MessageTypeNewComment = "new_comment"
	MessageTypePing       = "ping"

	// Server -> client
	MessageTypeCommentAdded = "comment_added"
	MessageTypeJoined       = "joined"
	MessageTypeLeft         = "left"
	MessageTypePong         = "pong"
	MessageTypeSystem       = "system"
	MessageTypeError        = "error"
)

// Message is the JSON envelope for every frame in both directions.
// PostID names the room; it is the id of a post or a writing.
type Message struct {
	Type      string          `json:"type"`
	PostID    string          `json:"postId,omitempty"`
	Comment   json.RawMessage `json:"comment,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message of the given type for a room.
func NewMessage(msgType, room string) *Message {
	return &Message{
		Type:      msgType,
		PostID:    room,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommentAdded wraps an already-encoded comment for delivery to a room.
func NewCommentAdded(room string, comment json.RawMessage) *Message {
	msg := NewMessage(MessageTypeCommentAdded, room)
	msg.Comment = comment
	return msg
}

// NewErrorMessage creates an error frame sent back to a single client.
func NewErrorMessage(code, message string) *Message {
	msg := NewMessage(MessageTypeError, "")
	msg.Code = code
	msg.Message = message
	return msg
}
