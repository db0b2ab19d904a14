// File: internal/services/chat/turn_service.go
package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KRISH826/gemini-backend/internal/cache"
	"github.com/KRISH826/gemini-backend/internal/domain"
	chatrepo "github.com/KRISH826/gemini-backend/internal/repository/chat"
)

// TurnService runs one user turn against a chat: append the user message,
// ask the model, append its reply, persist, invalidate caches.
type TurnService struct {
	config *Config
	repo   chatrepo.ChatRepository
	cache  Cache
	model  ModelClient
	logger Logger
	locks  *turnLocks
	now    func() time.Time
}

func NewTurnService(config *Config, repo chatrepo.ChatRepository, cache Cache, model ModelClient, logger Logger) *TurnService {
	return &TurnService{
		config: config,
		repo:   repo,
		cache:  cache,
		model:  model,
		logger: logger,
		locks:  newTurnLocks(),
		now:    time.Now,
	}
}

// ValidateMessage trims text and rejects empty or oversized messages.
func ValidateMessage(operation, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", NewValidationError(operation, "Message is required")
	}
	if domain.ContentTooLong(trimmed) {
		return "", NewValidationError(operation, "Message is too long")
	}
	return trimmed, nil
}

// begin validates the message, takes the chat's turn lock and loads the chat.
// The returned release must be called once the turn is over.
func (s *TurnService) begin(ctx context.Context, operation, chatID, text string) (*domain.Chat, string, func(), error) {
	content, err := ValidateMessage(operation, text)
	if err != nil {
		return nil, "", nil, err
	}
	release, err := s.locks.acquire(ctx, chatID)
	if err != nil {
		return nil, "", nil, NewInternalError(operation, err)
	}
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		release()
		return nil, "", nil, storeError(operation, chatID, err)
	}
	return chat, content, release, nil
}

func (s *TurnService) SendMessage(ctx context.Context, chatID, text string) (*TurnResult, error) {
	const op = "send_message"
	chat, content, release, err := s.begin(ctx, op, chatID, text)
	if err != nil {
		return nil, err
	}
	defer release()

	state := StateIdle
	s.logger.Info("starting chat turn", "chat_id", chatID, "history", len(chat.Messages))

	chat.AppendMessage(domain.RoleUser, content, s.now())
	state = StateUserMessageAppended

	reply := s.model.Generate(ctx, chat.Messages)
	state = StateModelInvoked

	stored, _ := s.assistantContent(chatID, reply)
	chat.AppendMessage(domain.RoleAssistant, stored, s.now())
	chat.Touch(s.now())
	state = StateAssistantMessageAppended

	if err := s.commit(ctx, op, chat, &state); err != nil {
		return nil, err
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CacheTimeout)
	defer cancel()
	if err := s.cache.SetJSON(refreshCtx, cache.ChatKey(chat.ID), chat, s.config.RefreshTTL); err != nil {
		s.logger.Warn("chat cache refresh failed", "chat_id", chat.ID, "error", err)
	}
	state = StateDone

	s.logger.Info("chat turn completed", "chat_id", chatID, "state", state.String(), "messages", len(chat.Messages))
	turn := chat.LastMessages(2)
	return &TurnResult{
		UserMessage: turn[0],
		AIResponse:  turn[1],
		ChatID:      chat.ID,
		Title:       chat.Title,
	}, nil
}

// assistantContent bounds a reply for storage and reports whether it was cut.
func (s *TurnService) assistantContent(chatID, reply string) (string, bool) {
	stored := domain.TruncateContent(reply)
	if len(stored) == len(reply) {
		return reply, false
	}
	s.logger.Warn("assistant reply truncated before persisting",
		"chat_id", chatID,
		"reply_runes", utf8.RuneCountInString(reply),
		"stored_runes", domain.MaxMessageContent,
	)
	return stored, true
}

// commit persists the turn and invalidates the cached views of the chat.
// Both steps ignore caller cancellation.
func (s *TurnService) commit(ctx context.Context, op string, chat *domain.Chat, state *TurnState) error {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.StoreTimeout)
	defer cancel()
	if err := s.repo.Save(storeCtx, chat); err != nil {
		s.logger.Error("chat turn failed", "chat_id", chat.ID, "stage", state.String(), "error", err)
		*state = StateFailed
		return storeError(op, chat.ID, err)
	}
	*state = StatePersisted

	cacheCtx, cancelCache := context.WithTimeout(context.WithoutCancel(ctx), s.config.CacheTimeout)
	defer cancelCache()
	if err := InvalidateChat(cacheCtx, s.cache, chat.ID); err != nil {
		s.logger.Error("chat turn failed", "chat_id", chat.ID, "stage", state.String(), "error", err)
		*state = StateFailed
		return NewCacheError(op, chat.ID, err)
	}
	*state = StateCacheInvalidated
	return nil
}
