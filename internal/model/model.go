package model

import (
	"time"
)

// Role values for a chat message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a chat session.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	// IsStreaming is true only while an assistant message is being
	// incrementally filled from a stream, never on a finalized message.
	IsStreaming bool `json:"isStreaming,omitempty"`
}

// ChatSession stores metadata about a conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Favorite  bool      `json:"favorite"`
}

// SessionUpdates carries the optional fields of a generic session update.
type SessionUpdates struct {
	Title *string `json:"title,omitempty"`
}

// StreamChunk is the decoded payload of a single streaming frame.
type StreamChunk struct {
	Content string `json:"content"`
}
