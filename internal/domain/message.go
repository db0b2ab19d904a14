// File: internal/domain/message.go
package domain

import (
	"time"
	"unicode/utf8"
)

// MaxMessageContent bounds the content of a single message, in characters.
const MaxMessageContent = 8000

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single message within a chat. It is owned by its chat.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	ChatID    string    `gorm:"size:36;not null;uniqueIndex:idx_messages_chat_seq,priority:1" json:"-"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_messages_chat_seq,priority:2" json:"-"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"not null" json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Persisted reports whether the message has already been written to the store.
func (m Message) Persisted() bool {
	return m.ID != ""
}

// ContentTooLong reports whether content exceeds MaxMessageContent characters.
func ContentTooLong(content string) bool {
	return utf8.RuneCountInString(content) > MaxMessageContent
}

// TruncateContent cuts content down to MaxMessageContent characters.
func TruncateContent(content string) string {
	if !ContentTooLong(content) {
		return content
	}
	return string([]rune(content)[:MaxMessageContent])
}
