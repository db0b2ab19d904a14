package chat

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/KRISH826/gemini-backend/internal/cache"
)

// InvalidateChat removes the per-chat entry and the chat list in parallel.
// Both removals are always attempted; their failures are joined.
func InvalidateChat(ctx context.Context, c Cache, chatID string) error {
	var chatErr, listErr error
	var g errgroup.Group
	g.Go(func() error {
		_, chatErr = c.Invalidate(ctx, cache.ChatKey(chatID))
		return nil
	})
	g.Go(func() error {
		_, listErr = c.Invalidate(ctx, cache.ChatListKey)
		return nil
	})
	_ = g.Wait()
	return errors.Join(chatErr, listErr)
}

// InvalidateChatList removes the cached chat list.
func InvalidateChatList(ctx context.Context, c Cache) error {
	_, err := c.Invalidate(ctx, cache.ChatListKey)
	return err
}
