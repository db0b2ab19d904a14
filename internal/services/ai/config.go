// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Instruction is prefixed to every prompt.
	Instruction string

	Timeout       time.Duration
	StreamTimeout time.Duration
	MaxRetries    int
	RetryDelay    time.Duration

	Temperature float32
	TopP        float32
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Timeout <= 0 || c.StreamTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Model:         "gemini-2.5-flash",
		Instruction:   DefaultInstruction,
		Timeout:       60 * time.Second,
		StreamTimeout: 5 * time.Minute,
		MaxRetries:    2,
		RetryDelay:    time.Second,
		Temperature:   0.7,
		TopP:          0.95,
	}
}
