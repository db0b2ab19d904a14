package ai

import "context"

// Turn is one entry of the conversation as the provider sees it.
type Turn struct {
	Role    string
	Content string
}

// Request is a prompt plus the conversation leading up to it.
type Request struct {
	History []Turn
	Prompt  string
}

// FragmentStream is an incremental producer of generated text. Recv returns
// io.EOF once the response is complete.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// CompletionProvider talks to the generative-model endpoint.
type CompletionProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
	OpenStream(ctx context.Context, req Request) (FragmentStream, error)
}

// Logger defines the logging surface used by the AI client.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
