// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort     string
	Environment    string
	LogLevel       string
	FrontendOrigin string

	DBDriver         string
	DBDSN            string
	DBConnectTimeout time.Duration

	RedisURL           string
	RedisRetryInterval time.Duration

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	if !strings.EqualFold(os.Getenv("ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("BACKEND_PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FRONTEND_ORIGIN", "http://localhost:5173")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "chat.db")
	v.SetDefault("DB_CONNECT_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_RETRY_INTERVAL", 5*time.Second)
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")

	// older deployments set the frontend origin as FRONTEND_PORT
	_ = v.BindEnv("FRONTEND_ORIGIN", "FRONTEND_ORIGIN", "FRONTEND_PORT")
	_ = v.BindEnv("GEMINI_API_KEY")
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerPort:         v.GetString("BACKEND_PORT"),
		Environment:        v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		FrontendOrigin:     v.GetString("FRONTEND_ORIGIN"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:              v.GetString("DB_DSN"),
		DBConnectTimeout:   v.GetDuration("DB_CONNECT_TIMEOUT"),
		RedisURL:           v.GetString("REDIS_URL"),
		RedisRetryInterval: v.GetDuration("REDIS_RETRY_INTERVAL"),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		GeminiBaseURL:      v.GetString("GEMINI_BASE_URL"),
		GeminiModel:        v.GetString("GEMINI_MODEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive")
	}
	if c.RedisRetryInterval <= 0 {
		return fmt.Errorf("REDIS_RETRY_INTERVAL must be positive")
	}

	// Validation for production environments
	if c.IsProduction() {
		missing := []string{}
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
		if c.DBDSN == "" {
			missing = append(missing, "DB_DSN")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required production environment variables: %v", missing)
		}
	}
	return nil
}
