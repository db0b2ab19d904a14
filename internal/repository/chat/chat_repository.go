// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KRISH826/gemini-backend/internal/domain"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrInvalidChatID  = errors.New("invalid chat ID")
	ErrContentTooLong = fmt.Errorf("message content exceeds %d characters", domain.MaxMessageContent)
	ErrInvalidRole    = errors.New("invalid message role")
)

type gormChatRepository struct {
	db     *gorm.DB
	logger Logger
	now    func() time.Time
}

func NewChatRepository(db *gorm.DB, logger Logger) ChatRepository {
	return &gormChatRepository{db: db, logger: logger, now: time.Now}
}

// AutoMigrate creates the chat and message tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Chat{}, &domain.Message{})
}

// Create stores a new chat with a fresh id and an empty message list.
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if chat == nil {
		return nil, errors.New("chat cannot be nil")
	}
	if strings.TrimSpace(chat.Title) == "" {
		return nil, errors.New("title is required")
	}

	chat.ID = uuid.NewString()
	chat.Messages = []domain.Message{}
	if chat.LastActivity.IsZero() {
		chat.LastActivity = r.now()
	}

	if err := r.db.WithContext(ctx).Omit("Messages").Create(chat).Error; err != nil {
		r.logger.Error("database error creating chat", "error", err)
		return nil, fmt.Errorf("database error creating chat: %w", err)
	}

	r.logger.Debug("chat created", "chat_id", chat.ID)
	return chat, nil
}

// FindByID loads a chat with its messages in conversation order.
func (r *gormChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, ErrInvalidChatID
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&chat, "id = ?", chatID).Error
	if err != nil {
		return nil, r.handleFindError(err, "FindByID")
	}
	if chat.Messages == nil {
		chat.Messages = []domain.Message{}
	}
	return &chat, nil
}

type messageStats struct {
	ChatID   string
	MsgCount int
	Content  string
}

// FindAllSummaries lists every chat, most recently active first.
func (r *gormChatRepository) FindAllSummaries(ctx context.Context) ([]domain.ChatSummary, error) {
	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Select("id", "title", "last_activity").
		Order("last_activity DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		r.logger.Error("database error listing chats", "error", err)
		return nil, fmt.Errorf("database error listing chats: %w", err)
	}

	var stats []messageStats
	err = r.db.WithContext(ctx).Raw(`
		SELECT m.chat_id AS chat_id, t.cnt AS msg_count, m.content AS content
		FROM messages m
		JOIN (SELECT chat_id, COUNT(*) AS cnt, MAX(seq) AS max_seq FROM messages GROUP BY chat_id) t
		  ON m.chat_id = t.chat_id AND m.seq = t.max_seq`).
		Scan(&stats).Error
	if err != nil {
		r.logger.Error("database error aggregating messages", "error", err)
		return nil, fmt.Errorf("database error aggregating messages: %w", err)
	}

	byChat := make(map[string]messageStats, len(stats))
	for _, s := range stats {
		byChat[s.ChatID] = s
	}

	summaries := make([]domain.ChatSummary, 0, len(chats))
	for _, c := range chats {
		summary := c.Summarize()
		if s, ok := byChat[c.ID]; ok && s.MsgCount > 0 {
			summary.MessageCount = s.MsgCount
			summary.LastMessage = domain.Preview(s.Content)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Append writes a single message to the end of a chat and bumps its activity.
func (r *gormChatRepository) Append(ctx context.Context, chatID string, message domain.Message) (*domain.Message, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Chat{}).Where("id = ?", chatID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrChatNotFound
		}

		var maxSeq sql.NullInt64
		if err := tx.Model(&domain.Message{}).Where("chat_id = ?", chatID).Select("MAX(seq)").Row().Scan(&maxSeq); err != nil {
			return err
		}

		message.ID = uuid.NewString()
		message.ChatID = chatID
		message.Seq = 0
		if maxSeq.Valid {
			message.Seq = int(maxSeq.Int64) + 1
		}
		if message.Timestamp.IsZero() {
			message.Timestamp = r.now()
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Chat{}).Where("id = ?", chatID).Update("last_activity", message.Timestamp).Error
	})
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return nil, err
		}
		r.logger.Error("database error appending message", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("database error appending message: %w", err)
	}
	return &message, nil
}

// Save persists the whole chat document in one transaction: chat fields are
// updated and every message not yet written is inserted. Either all of it
// lands or none of it does.
func (r *gormChatRepository) Save(ctx context.Context, chat *domain.Chat) error {
	if chat == nil || strings.TrimSpace(chat.ID) == "" {
		return ErrInvalidChatID
	}

	pending := make([]domain.Message, 0, 2)
	for i, m := range chat.Messages {
		if m.Persisted() {
			continue
		}
		if err := validateMessage(m); err != nil {
			return err
		}
		m.ID = uuid.NewString()
		m.ChatID = chat.ID
		m.Seq = i
		pending = append(pending, m)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Chat{}).
			Where("id = ?", chat.ID).
			Updates(map[string]interface{}{
				"title":         chat.Title,
				"last_activity": chat.LastActivity,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChatNotFound
		}
		if len(pending) > 0 {
			if err := tx.Create(&pending).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return err
		}
		r.logger.Error("database error saving chat", "chat_id", chat.ID, "error", err)
		return fmt.Errorf("database error saving chat: %w", err)
	}

	// Only mark messages as written once the transaction has committed.
	j := 0
	for i := range chat.Messages {
		if !chat.Messages[i].Persisted() {
			chat.Messages[i] = pending[j]
			j++
		}
	}
	r.logger.Debug("chat saved", "chat_id", chat.ID, "new_messages", len(pending))
	return nil
}

// Delete removes a chat and its messages, returning what was removed.
func (r *gormChatRepository) Delete(ctx context.Context, chatID string) (*domain.Chat, error) {
	chat, err := r.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", chatID).Delete(&domain.Chat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChatNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return nil, err
		}
		r.logger.Error("database error deleting chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("database error deleting chat: %w", err)
	}

	r.logger.Info("chat deleted", "chat_id", chatID)
	return chat, nil
}

func validateMessage(m domain.Message) error {
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	if domain.ContentTooLong(m.Content) {
		return ErrContentTooLong
	}
	return nil
}

// handleFindError maps gorm errors onto repository errors.
func (r *gormChatRepository) handleFindError(err error, operation string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	r.logger.Error("database query failed", "operation", operation, "error", err)
	return fmt.Errorf("database query failed: %w", err)
}
