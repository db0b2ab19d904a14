// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Cache lifetimes
	ReadTTL    time.Duration // list/detail read-through entries
	RefreshTTL time.Duration // per-chat entry written after a completed turn

	// Per-operation bounds
	StoreTimeout time.Duration // persistence of a completed turn
	CacheTimeout time.Duration // invalidation and refresh writes
}

func (c *Config) Validate() error {
	if c.ReadTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive")
	}
	if c.CacheTimeout <= 0 {
		return fmt.Errorf("cache_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		ReadTTL:      100 * time.Second,
		RefreshTTL:   1000 * time.Second,
		StoreTimeout: 10 * time.Second,
		CacheTimeout: 5 * time.Second,
	}
}
