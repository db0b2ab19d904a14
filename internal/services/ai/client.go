// File: internal/services/ai/client.go
package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/KRISH826/gemini-backend/internal/domain"
)

// Client turns chat history into model requests. Generate never fails;
// GenerateStream reports failures after delivering the fallback text.
type Client struct {
	config   *Config
	provider CompletionProvider
	logger   Logger
}

func NewClient(config *Config, provider CompletionProvider, logger Logger) *Client {
	return &Client{config: config, provider: provider, logger: logger}
}

// BuildRequest splits history into context turns and the active prompt.
func (c *Client) BuildRequest(history []domain.Message) (Request, error) {
	if len(history) == 0 {
		return Request{}, NewConfigError("history must contain at least one message")
	}
	last := history[len(history)-1]
	turns := make([]Turn, 0, len(history)-1)
	for _, m := range history[:len(history)-1] {
		turns = append(turns, Turn{Role: ProviderRole(m.Role), Content: m.Content})
	}
	return Request{
		History: turns,
		Prompt:  BuildPrompt(c.config.Instruction, last.Content),
	}, nil
}

func (c *Client) Generate(ctx context.Context, history []domain.Message) string {
	req, err := c.BuildRequest(history)
	if err != nil {
		c.logger.Error("invalid generate request", "error", err)
		return FallbackMessage
	}

	var reply string
	err = c.retryWithTimeout(ctx, func(ctx context.Context) error {
		out, err := c.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		c.logger.Error("model generate failed", "model", c.config.Model, "error", err)
		return FallbackMessage
	}
	return reply
}

func (c *Client) GenerateStream(ctx context.Context, history []domain.Message, onChunk func(string) error) (string, error) {
	req, err := c.BuildRequest(history)
	if err != nil {
		return "", c.fail(onChunk, err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)
	defer cancel()

	stream, err := c.provider.OpenStream(streamCtx, req)
	if err != nil {
		return "", c.fail(onChunk, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), c.fail(onChunk, err)
		}
		if err := onChunk(fragment); err != nil {
			c.logger.Warn("fragment delivery stopped", "delivered", full.Len(), "error", err)
			return full.String(), NewDeliveryError(err)
		}
		full.WriteString(fragment)
	}

	if full.Len() == 0 {
		return "", c.fail(onChunk, &AIError{
			Type:      ErrTypeEmpty,
			Operation: "streaming",
			Model:     c.config.Model,
			Message:   "stream ended without content",
		})
	}
	return full.String(), nil
}

// fail logs the cause, hands the fallback text to the consumer and returns
// the error as an *AIError.
func (c *Client) fail(onChunk func(string) error, cause error) error {
	c.logger.Error("model stream failed", "model", c.config.Model, "error", cause)
	if err := onChunk(FallbackMessage); err != nil {
		c.logger.Warn("fallback delivery failed", "error", err)
	}
	var aiErr *AIError
	if errors.As(cause, &aiErr) {
		if aiErr.Model == "" {
			aiErr.Model = c.config.Model
		}
		return aiErr
	}
	return &AIError{
		Type:      ErrTypeStreaming,
		Operation: "streaming",
		Model:     c.config.Model,
		Message:   "failed to stream response",
		Cause:     cause,
	}
}

func (c *Client) retryWithTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Warn("model call failed", "attempt", attempt, "max_retries", c.config.MaxRetries, "error", err)
		if attempt < c.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.config.RetryDelay):
			}
		}
	}
	return lastErr
}
