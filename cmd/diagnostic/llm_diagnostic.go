// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/KRISH826/gemini-backend/internal/domain"
	"github.com/KRISH826/gemini-backend/internal/services"
	"github.com/KRISH826/gemini-backend/internal/services/ai"
)

func main() {
	prompt := flag.String("prompt", "What is the answer to life, universe and everything?", "prompt to send")
	envFile := flag.String("env", ".env", "env file to load")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}

	cfg := ai.DefaultConfig()
	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Model = v
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := services.NewZapLogger("diagnostic", "development", "debug")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	provider := ai.NewOpenAIProvider(cfg)
	client := ai.NewClient(cfg, provider, logger)
	ctx := context.Background()

	fmt.Printf("Testing %s at %s\n", cfg.Model, cfg.BaseURL)

	// Raw provider call so failures are visible instead of the fallback text.
	start := time.Now()
	reply, err := provider.Complete(ctx, ai.Request{Prompt: *prompt})
	if err != nil {
		log.Fatalf("completion failed: %v", err)
	}
	fmt.Printf("Completion (%s):\n%s\n\n", time.Since(start), reply)

	history := []domain.Message{{Role: domain.RoleUser, Content: *prompt}}
	start = time.Now()
	fragments := 0
	full, err := client.GenerateStream(ctx, history, func(fragment string) error {
		fragments++
		fmt.Print(fragment)
		return nil
	})
	fmt.Println()
	if err != nil {
		log.Fatalf("stream failed: %v", err)
	}
	fmt.Printf("Stream: %d fragments, %d bytes in %s\n", fragments, len(full), time.Since(start))
}
