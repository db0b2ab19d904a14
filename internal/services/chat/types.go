// File: internal/services/chat/types.go
package chat

import (
	"context"
	"time"

	"github.com/KRISH826/gemini-backend/internal/domain"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Cache is the subset of the cache layer the chat services use.
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dst interface{}) error
	Invalidate(ctx context.Context, pattern string) (int, error)
}

// ModelClient produces assistant replies from a chat history.
type ModelClient interface {
	Generate(ctx context.Context, history []domain.Message) string
	GenerateStream(ctx context.Context, history []domain.Message, onChunk func(string) error) (string, error)
}

// StreamEvent is one frame of a streamed turn.
type StreamEvent struct {
	Content     string `json:"content,omitempty"`
	Done        bool   `json:"done,omitempty"`
	FullMessage string `json:"fullMessage,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	Title       string `json:"title,omitempty"`
	Error       string `json:"error,omitempty"`
	// Truncated is set on the done event when the stored reply is shorter
	// than FullMessage.
	Truncated bool `json:"truncated,omitempty"`
}

func fragmentEvent(chatID, content string) StreamEvent {
	return StreamEvent{Content: content, ChatID: chatID}
}

func doneEvent(chat *domain.Chat, full string, truncated bool) StreamEvent {
	return StreamEvent{Done: true, FullMessage: full, ChatID: chat.ID, Title: chat.Title, Truncated: truncated}
}

func errorEvent(msg string) StreamEvent {
	return StreamEvent{Error: msg, Done: true}
}

// EventSink receives the frames of one streamed turn.
type EventSink interface {
	Send(event StreamEvent) error
	Close() error
}

// StreamOpener establishes the response transport. It is called at most
// once, after the request has been validated and the chat loaded.
type StreamOpener interface {
	Open() (EventSink, error)
}

// TurnResult is the outcome of a buffered turn.
type TurnResult struct {
	UserMessage domain.Message `json:"userMessage"`
	AIResponse  domain.Message `json:"aiResponse"`
	ChatID      string         `json:"chatId"`
	Title       string         `json:"title"`
}

// TurnState tracks how far a turn progressed.
type TurnState int

const (
	StateIdle TurnState = iota
	StateUserMessageAppended
	StateModelInvoked
	StateAssistantMessageAppended
	StatePersisted
	StateCacheInvalidated
	StateDone
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserMessageAppended:
		return "user_message_appended"
	case StateModelInvoked:
		return "model_invoked"
	case StateAssistantMessageAppended:
		return "assistant_message_appended"
	case StatePersisted:
		return "persisted"
	case StateCacheInvalidated:
		return "cache_invalidated"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
