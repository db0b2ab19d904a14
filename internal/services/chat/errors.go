// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"

	chatrepo "github.com/KRISH826/gemini-backend/internal/repository/chat"
)

type ErrorType string

const (
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeUpstream    ErrorType = "UPSTREAM"
	ErrTypeCache       ErrorType = "CACHE"
	ErrTypePersistence ErrorType = "PERSISTENCE"
	ErrTypeInternal    ErrorType = "INTERNAL"
)

// ChatError is the only error type the chat services return. Message is
// safe to show to API callers.
type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    string
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(operation, chatID string) *ChatError {
	return &ChatError{Type: ErrTypeNotFound, Operation: operation, Message: "Chat not found", ChatID: chatID}
}

func NewUpstreamError(operation, chatID string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypeUpstream,
		Operation: operation,
		Message:   "Failed to generate response",
		ChatID:    chatID,
		Cause:     cause,
	}
}

func NewCacheError(operation, chatID string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypeCache,
		Operation: operation,
		Message:   "Failed to refresh cached chats",
		ChatID:    chatID,
		Cause:     cause,
	}
}

func NewPersistenceError(operation, chatID string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypePersistence,
		Operation: operation,
		Message:   "Failed to save chat",
		ChatID:    chatID,
		Cause:     cause,
	}
}

// NewStoreReadError reports a failed store read.
func NewStoreReadError(operation, chatID string, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypePersistence,
		Operation: operation,
		Message:   "Failed to load chats",
		ChatID:    chatID,
		Cause:     cause,
	}
}

func NewInternalError(operation string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeInternal, Operation: operation, Message: "Internal server error", Cause: cause}
}

// storeError classifies a repository failure.
func storeError(operation, chatID string, err error) *ChatError {
	switch {
	case errors.Is(err, chatrepo.ErrChatNotFound), errors.Is(err, chatrepo.ErrInvalidChatID):
		return NewNotFoundError(operation, chatID)
	case errors.Is(err, chatrepo.ErrContentTooLong):
		return NewValidationError(operation, "Message is too long")
	default:
		return NewPersistenceError(operation, chatID, err)
	}
}

// AsChatError extracts a *ChatError, wrapping anything else as INTERNAL.
func AsChatError(err error) *ChatError {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr
	}
	return NewInternalError("unknown", err)
}
