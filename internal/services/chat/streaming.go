// File: internal/services/chat/streaming.go
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/KRISH826/gemini-backend/internal/domain"
)

// turnStream wraps a sink so that nothing is sent after the terminal event
// and the sink is closed exactly once.
type turnStream struct {
	sink     EventSink
	logger   Logger
	chatID   string
	mu       sync.Mutex
	terminal bool
	once     sync.Once
}

func (t *turnStream) send(event StreamEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminal {
		return fmt.Errorf("stream for chat %s already finished", t.chatID)
	}
	if event.Done {
		t.terminal = true
	}
	return t.sink.Send(event)
}

func (t *turnStream) fail(msg string) {
	if err := t.send(errorEvent(msg)); err != nil {
		t.logger.Debug("terminal error event not delivered", "chat_id", t.chatID, "error", err)
	}
}

func (t *turnStream) close() {
	t.once.Do(func() {
		if err := t.sink.Close(); err != nil {
			t.logger.Warn("failed to close stream", "chat_id", t.chatID, "error", err)
		}
	})
}

// SendMessageStream runs a turn while forwarding model fragments to the
// transport opened by opener. Errors that occur before the transport is
// open are returned for the caller to report. Once it is open every
// failure is reported in-band as a single terminal error event and is also
// returned for logging.
func (s *TurnService) SendMessageStream(ctx context.Context, chatID, text string, opener StreamOpener) (err error) {
	const op = "send_message_stream"
	chat, content, release, err := s.begin(ctx, op, chatID, text)
	if err != nil {
		return err
	}
	defer release()

	sink, err := opener.Open()
	if err != nil {
		return NewInternalError(op, err)
	}
	stream := &turnStream{sink: sink, logger: s.logger, chatID: chatID}
	state := StateIdle
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during streamed turn", "chat_id", chatID, "stage", state.String(), "panic", r)
			stream.fail("Internal server error")
			err = NewInternalError(op, fmt.Errorf("panic: %v", r))
		}
		stream.close()
	}()

	s.logger.Info("starting streamed chat turn", "chat_id", chatID, "history", len(chat.Messages))

	chat.AppendMessage(domain.RoleUser, content, s.now())
	state = StateUserMessageAppended

	full, genErr := s.model.GenerateStream(ctx, chat.Messages, func(fragment string) error {
		return stream.send(fragmentEvent(chatID, fragment))
	})
	if genErr != nil {
		s.logger.Error("streamed chat turn failed", "chat_id", chatID, "stage", state.String(), "error", genErr)
		state = StateFailed
		upErr := NewUpstreamError(op, chatID, genErr)
		stream.fail(upErr.Message)
		return upErr
	}
	state = StateModelInvoked

	stored, truncated := s.assistantContent(chatID, full)
	chat.AppendMessage(domain.RoleAssistant, stored, s.now())
	chat.Touch(s.now())
	state = StateAssistantMessageAppended

	if err := s.commit(ctx, op, chat, &state); err != nil {
		stream.fail(AsChatError(err).Message)
		return err
	}

	if err := stream.send(doneEvent(chat, full, truncated)); err != nil {
		s.logger.Warn("done event not delivered", "chat_id", chatID, "error", err)
	}
	state = StateDone
	s.logger.Info("streamed chat turn completed", "chat_id", chatID, "state", state.String(), "response_length", len(full))
	return nil
}
