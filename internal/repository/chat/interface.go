package chat

import (
	"context"

	"github.com/KRISH826/gemini-backend/internal/domain"
)

// ChatRepository is the durable record of chats and their ordered messages.
// It knows nothing about caching.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, chatID string) (*domain.Chat, error)
	FindAllSummaries(ctx context.Context) ([]domain.ChatSummary, error)
	Append(ctx context.Context, chatID string, message domain.Message) (*domain.Message, error)
	Save(ctx context.Context, chat *domain.Chat) error
	Delete(ctx context.Context, chatID string) (*domain.Chat, error)
}

// Logger is the logging surface the repository needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
