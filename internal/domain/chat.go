// File: internal/domain/chat.go
package domain

import (
	"strings"
	"time"
)

const (
	// TitleMaxRunes is the length a chat title is cut to before the ellipsis is added.
	TitleMaxRunes = 34
	// PreviewMaxRunes is the length of the last-message preview in chat summaries.
	PreviewMaxRunes = 60
	// EmptyChatPreview is shown for chats that have no messages yet.
	EmptyChatPreview = "Start new conversation"

	ellipsis = "..."
)

// Chat represents a single conversation thread together with its ordered messages.
type Chat struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	Title        string    `gorm:"not null" json:"title"`
	Messages     []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages"`
	LastActivity time.Time `gorm:"index" json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChatSummary is the list projection served by the chat list endpoint.
type ChatSummary struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount int       `json:"messageCount"`
	LastMessage  string    `json:"lastmessage"`
}

// AppendMessage adds a message to the in-memory chat. Nothing is persisted.
func (c *Chat) AppendMessage(role Role, content string, at time.Time) Message {
	msg := Message{
		ChatID:    c.ID,
		Seq:       len(c.Messages),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
	c.Messages = append(c.Messages, msg)
	return msg
}

// Touch records activity on the chat.
func (c *Chat) Touch(at time.Time) {
	c.LastActivity = at
}

// LastMessages returns the last n messages, or all of them if there are fewer.
func (c *Chat) LastMessages(n int) []Message {
	if n >= len(c.Messages) {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// DeriveTitle builds a chat title from the first user message.
func DeriveTitle(firstMessage string) string {
	trimmed := strings.TrimSpace(firstMessage)
	runes := []rune(trimmed)
	if len(runes) > TitleMaxRunes {
		return string(runes[:TitleMaxRunes]) + ellipsis
	}
	return trimmed
}

// Preview returns the chat-list preview for a message content.
// The ellipsis is always appended, matching what clients already render.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) > PreviewMaxRunes {
		runes = runes[:PreviewMaxRunes]
	}
	return string(runes) + ellipsis
}

// Summarize projects a fully loaded chat into its list summary.
func (c *Chat) Summarize() ChatSummary {
	s := ChatSummary{
		ID:           c.ID,
		Title:        c.Title,
		LastActivity: c.LastActivity,
		MessageCount: len(c.Messages),
		LastMessage:  EmptyChatPreview,
	}
	if n := len(c.Messages); n > 0 {
		s.LastMessage = Preview(c.Messages[n-1].Content)
	}
	return s
}
