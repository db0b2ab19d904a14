// File: internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/KRISH826/gemini-backend/internal/cache"
	"github.com/KRISH826/gemini-backend/internal/domain"
	"github.com/KRISH826/gemini-backend/internal/repository/chat"
	chatservice "github.com/KRISH826/gemini-backend/internal/services/chat"
)

// ChatService is the entry point the HTTP layer uses for every chat
// operation. Reads go through the cache, turns are delegated to the
// TurnService.
type ChatService struct {
	config   *chatservice.Config
	chatRepo chat.ChatRepository
	cache    chatservice.Cache
	turns    *chatservice.TurnService
	reads    singleflight.Group
	logger   Logger
}

func NewChatService(
	config *chatservice.Config,
	chatRepo chat.ChatRepository,
	chatCache chatservice.Cache,
	model chatservice.ModelClient,
	logger Logger,
) (*ChatService, error) {
	if chatRepo == nil {
		return nil, chatservice.NewValidationError("constructor", "chat repository is required")
	}
	if chatCache == nil {
		return nil, chatservice.NewValidationError("constructor", "cache is required")
	}
	if model == nil {
		return nil, chatservice.NewValidationError("constructor", "model client is required")
	}
	if config == nil {
		config = chatservice.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, chatservice.NewValidationError("config", err.Error())
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	return &ChatService{
		config:   config,
		chatRepo: chatRepo,
		cache:    chatCache,
		turns:    chatservice.NewTurnService(config, chatRepo, chatCache, model, logger),
		logger:   logger,
	}, nil
}

// CreateNewChat stores an empty chat titled after the first message. The
// message itself is not stored.
func (s *ChatService) CreateNewChat(ctx context.Context, firstMessage string) (*domain.Chat, error) {
	const op = "create_chat"
	if strings.TrimSpace(firstMessage) == "" {
		return nil, chatservice.NewValidationError(op, "First message is required to create chat")
	}

	created, err := s.chatRepo.Create(ctx, &domain.Chat{Title: domain.DeriveTitle(firstMessage)})
	if err != nil {
		return nil, chatservice.NewPersistenceError(op, "", err)
	}

	cacheCtx, cancel := s.detached(ctx, s.config.CacheTimeout)
	defer cancel()
	if err := chatservice.InvalidateChatList(cacheCtx, s.cache); err != nil {
		s.logger.Error("failed to invalidate chat list", "chat_id", created.ID, "error", err)
		return nil, chatservice.NewCacheError(op, created.ID, err)
	}
	s.logger.Info("chat created", "chat_id", created.ID)
	return created, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	const op = "delete_chat"
	deleted, err := s.chatRepo.Delete(ctx, chatID)
	if err != nil {
		if errors.Is(err, chat.ErrChatNotFound) || errors.Is(err, chat.ErrInvalidChatID) {
			return nil, chatservice.NewNotFoundError(op, chatID)
		}
		return nil, chatservice.NewPersistenceError(op, chatID, err)
	}

	cacheCtx, cancel := s.detached(ctx, s.config.CacheTimeout)
	defer cancel()
	if err := chatservice.InvalidateChat(cacheCtx, s.cache, chatID); err != nil {
		s.logger.Error("failed to invalidate deleted chat", "chat_id", chatID, "error", err)
		return nil, chatservice.NewCacheError(op, chatID, err)
	}
	s.logger.Info("chat deleted", "chat_id", chatID, "messages", len(deleted.Messages))
	return deleted, nil
}

// GetAllChats returns chat summaries, most recent first. The bool reports
// whether they came from the cache.
func (s *ChatService) GetAllChats(ctx context.Context) ([]domain.ChatSummary, bool, error) {
	var cached []domain.ChatSummary
	if s.lookup(ctx, cache.ChatListKey, &cached) {
		return cached, true, nil
	}

	const op = "get_all_chats"
	v, err := s.load(ctx, op, cache.ChatListKey, func(ctx context.Context) (interface{}, error) {
		summaries, err := s.chatRepo.FindAllSummaries(ctx)
		if err != nil {
			return nil, chatservice.NewStoreReadError(op, "", err)
		}
		s.store(ctx, cache.ChatListKey, summaries)
		return summaries, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]domain.ChatSummary), false, nil
}

// GetChatByID returns a chat with its messages. The bool reports whether it
// came from the cache.
func (s *ChatService) GetChatByID(ctx context.Context, chatID string) (*domain.Chat, bool, error) {
	key := cache.ChatKey(chatID)
	var cached domain.Chat
	if s.lookup(ctx, key, &cached) {
		if cached.Messages == nil {
			cached.Messages = []domain.Message{}
		}
		return &cached, true, nil
	}

	const op = "get_chat"
	v, err := s.load(ctx, op, key, func(ctx context.Context) (interface{}, error) {
		found, err := s.chatRepo.FindByID(ctx, chatID)
		if err != nil {
			if errors.Is(err, chat.ErrChatNotFound) || errors.Is(err, chat.ErrInvalidChatID) {
				return nil, chatservice.NewNotFoundError(op, chatID)
			}
			return nil, chatservice.NewStoreReadError(op, chatID, err)
		}
		s.store(ctx, key, found)
		return found, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Chat), false, nil
}

func (s *ChatService) SendMessage(ctx context.Context, chatID, text string) (*chatservice.TurnResult, error) {
	return s.turns.SendMessage(ctx, chatID, text)
}

func (s *ChatService) SendMessageStream(ctx context.Context, chatID, text string, opener chatservice.StreamOpener) error {
	return s.turns.SendMessageStream(ctx, chatID, text, opener)
}

// load collapses concurrent store reads of key into one flight. The flight
// runs detached from the caller that started it; each caller stops waiting
// when its own ctx is done.
func (s *ChatService) load(ctx context.Context, op, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.reads.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := s.detached(ctx, s.config.StoreTimeout)
		defer cancel()
		return fn(loadCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, chatservice.NewInternalError(op, ctx.Err())
	}
}

// detached keeps ctx values but not its cancellation.
func (s *ChatService) detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// lookup reports a cache hit. Cache failures count as misses.
func (s *ChatService) lookup(ctx context.Context, key string, dst interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dst)
	if err == nil {
		s.logger.Debug("cache hit", "key", key)
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache read failed, reading from store", "key", key, "error", err)
	}
	return false
}

func (s *ChatService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.config.ReadTTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
