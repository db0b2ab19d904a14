// File: cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KRISH826/gemini-backend/internal/cache"
	"github.com/KRISH826/gemini-backend/internal/config"
	"github.com/KRISH826/gemini-backend/internal/handlers"
	"github.com/KRISH826/gemini-backend/internal/middleware"
	"github.com/KRISH826/gemini-backend/internal/repository/chat"
	"github.com/KRISH826/gemini-backend/internal/services"
	"github.com/KRISH826/gemini-backend/internal/services/ai"
	chatservice "github.com/KRISH826/gemini-backend/internal/services/chat"
)

// Application aggregates the long-lived resources and the HTTP surface.
type Application struct {
	Config      *config.Config
	Logger      *services.ZapLogger
	DB          *gorm.DB
	Redis       *goredis.Client
	Cache       *cache.RedisCache
	ChatService *services.ChatService
	ChatHandler *handlers.ChatHandler
	Router      *mux.Router

	redisReady <-chan struct{}
	stopRedis  context.CancelFunc
}

// openDatabase connects to the configured store, giving up after
// DB_CONNECT_TIMEOUT.
func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	default:
		dialector = sqlite.Open(cfg.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect %s within %s: %w", cfg.DBDriver, cfg.DBConnectTimeout, err)
	}

	if err := chat.AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *services.ZapLogger) (*Application, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	redisCtx, stopRedis := context.WithCancel(context.Background())
	policy := cache.DefaultRetryPolicy()
	policy.Interval = cfg.RedisRetryInterval
	ready := cache.Connect(redisCtx, rdb, policy, logger.With("component", "redis"))
	redisCache := cache.NewRedisCache(rdb, logger.With("component", "cache"))

	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.GeminiAPIKey
	aiConfig.BaseURL = cfg.GeminiBaseURL
	aiConfig.Model = cfg.GeminiModel
	if err := aiConfig.Validate(); err != nil {
		logger.Warn("model client misconfigured, replies will use the fallback message", "error", err)
	}
	modelClient := ai.NewClient(aiConfig, ai.NewOpenAIProvider(aiConfig), logger.With("component", "ai"))

	chatRepo := chat.NewChatRepository(db, logger.With("component", "store"))
	chatService, err := services.NewChatService(chatservice.DefaultConfig(), chatRepo, redisCache, modelClient, logger.With("component", "chat"))
	if err != nil {
		stopRedis()
		_ = rdb.Close()
		closeDB(db)
		return nil, err
	}

	chatHandler, err := handlers.NewChatHandler(chatService, logger)
	if err != nil {
		stopRedis()
		_ = rdb.Close()
		closeDB(db)
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.RecoverPanic(logger))
	handlers.RegisterRoutes(r, chatHandler)

	return &Application{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Redis:       rdb,
		Cache:       redisCache,
		ChatService: chatService,
		ChatHandler: chatHandler,
		Router:      r,
		redisReady:  ready,
		stopRedis:   stopRedis,
	}, nil
}

// Handler wraps the router with the cross-cutting middleware that must
// also see unmatched and preflight requests.
func (a *Application) Handler() http.Handler {
	return middleware.CORS(a.Config.FrontendOrigin)(middleware.SecurityHeaders(a.Router))
}

// Close releases the redis client and the database.
func (a *Application) Close() {
	a.stopRedis()
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn("redis close failed", "error", err)
	}
	closeDB(a.DB)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// waitForRedis reports whether redis came up within d.
func (a *Application) waitForRedis(d time.Duration) bool {
	select {
	case <-a.redisReady:
		return true
	case <-time.After(d):
		return false
	}
}
