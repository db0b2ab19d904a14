package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KRISH826/gemini-backend/internal/cache"
	"github.com/KRISH826/gemini-backend/internal/domain"
	"github.com/KRISH826/gemini-backend/internal/repository/chat"
	chatservice "github.com/KRISH826/gemini-backend/internal/services/chat"
)

type echoModel struct{}

func (echoModel) Generate(_ context.Context, history []domain.Message) string {
	return "echo: " + history[len(history)-1].Content
}

func (echoModel) GenerateStream(_ context.Context, history []domain.Message, onChunk func(string) error) (string, error) {
	reply := "echo: " + history[len(history)-1].Content
	if err := onChunk(reply); err != nil {
		return "", err
	}
	return reply, nil
}

func newTestService(t *testing.T) (*ChatService, *miniredis.Miniredis) {
	t.Helper()
	return newTestServiceWith(t, nil)
}

// newTestServiceWith lets a test wrap the real repository.
func newTestServiceWith(t *testing.T, wrap func(chat.ChatRepository) chat.ChatRepository) (*ChatService, *miniredis.Miniredis) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, chat.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	log := &NoOpLogger{}
	var repo chat.ChatRepository = chat.NewChatRepository(db, log)
	if wrap != nil {
		repo = wrap(repo)
	}
	svc, err := NewChatService(
		chatservice.DefaultConfig(),
		repo,
		cache.NewRedisCache(rdb, log),
		echoModel{},
		log,
	)
	require.NoError(t, err)
	return svc, mr
}

func requireErrorType(t *testing.T, err error, want chatservice.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, chatservice.AsChatError(err).Type)
}

func TestNewChatServiceRequiresDependencies(t *testing.T) {
	_, err := NewChatService(nil, nil, nil, nil, nil)
	requireErrorType(t, err, chatservice.ErrTypeValidation)
}

func TestCreateNewChat(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(cache.ChatListKey, "[]"))

	created, err := svc.CreateNewChat(ctx, "Hello world")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", created.Title)
	assert.NotNil(t, created.Messages)
	assert.Empty(t, created.Messages)
	assert.False(t, mr.Exists(cache.ChatListKey))

	chats, fromCache, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ID, chats[0].ID)
	assert.Equal(t, domain.EmptyChatPreview, chats[0].LastMessage)
}

func TestCreateNewChatLongTitle(t *testing.T) {
	svc, _ := newTestService(t)

	msg := strings.Repeat("abcdefghij", 4)
	created, err := svc.CreateNewChat(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, msg[:34]+"...", created.Title)
}

func TestCreateNewChatRejectsBlank(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(cache.ChatListKey, "[]"))

	_, err := svc.CreateNewChat(ctx, "   ")
	requireErrorType(t, err, chatservice.ErrTypeValidation)
	assert.True(t, mr.Exists(cache.ChatListKey))

	mr.Del(cache.ChatListKey)
	chats, _, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestGetAllChatsReadThrough(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateNewChat(ctx, "first")
	require.NoError(t, err)

	_, fromCache, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 100*time.Second, mr.TTL(cache.ChatListKey))

	chats, fromCache, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, chats, 1)
}

func TestGetChatByIDIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateNewChat(ctx, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, created.ID, "hello")
	require.NoError(t, err)

	a, _, err := svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)
	b, fromCache, err := svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, fromCache)

	assert.Equal(t, a.ID, b.ID)
	require.Len(t, b.Messages, 2)
	for i := range a.Messages {
		assert.Equal(t, a.Messages[i].ID, b.Messages[i].ID)
		assert.Equal(t, a.Messages[i].Content, b.Messages[i].Content)
		assert.Equal(t, a.Messages[i].Role, b.Messages[i].Role)
	}
}

func TestGetChatByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.GetChatByID(context.Background(), uuid.NewString())
	requireErrorType(t, err, chatservice.ErrTypeNotFound)
}

func TestReadsSurviveCacheOutage(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateNewChat(ctx, "first")
	require.NoError(t, err)
	mr.Close()

	chats, fromCache, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, chats, 1)

	got, _, err := svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestWritesSurfaceCacheOutage(t *testing.T) {
	svc, mr := newTestService(t)
	mr.Close()

	_, err := svc.CreateNewChat(context.Background(), "first")
	requireErrorType(t, err, chatservice.ErrTypeCache)
}

func TestMutationsInvalidateCachedReads(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateNewChat(ctx, "first")
	require.NoError(t, err)

	// warm both entries
	_, _, err = svc.GetAllChats(ctx)
	require.NoError(t, err)
	_, _, err = svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, created.ID, "hello")
	require.NoError(t, err)

	chats, fromCache, err := svc.GetAllChats(ctx)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, chats[0].MessageCount)
	assert.Equal(t, "echo: hello...", chats[0].LastMessage)

	got, _, err := svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
}

func TestDeleteChat(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateNewChat(ctx, "first")
	require.NoError(t, err)
	_, _, err = svc.GetChatByID(ctx, created.ID)
	require.NoError(t, err)
	_, _, err = svc.GetAllChats(ctx)
	require.NoError(t, err)

	deleted, err := svc.DeleteChat(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.False(t, mr.Exists(cache.ChatKey(created.ID)))
	assert.False(t, mr.Exists(cache.ChatListKey))

	_, _, err = svc.GetChatByID(ctx, created.ID)
	requireErrorType(t, err, chatservice.ErrTypeNotFound)

	_, err = svc.DeleteChat(ctx, created.ID)
	requireErrorType(t, err, chatservice.ErrTypeNotFound)
}

// gatedRepo holds list reads until released and records the context they ran on.
type gatedRepo struct {
	chat.ChatRepository
	entered chan struct{}
	release chan struct{}
	calls   int
	ctxErr  error
}

func (r *gatedRepo) FindAllSummaries(ctx context.Context) ([]domain.ChatSummary, error) {
	r.calls++
	r.entered <- struct{}{}
	<-r.release
	r.ctxErr = ctx.Err()
	return r.ChatRepository.FindAllSummaries(ctx)
}

// hangupRepo cancels the request context right after a successful write.
type hangupRepo struct {
	chat.ChatRepository
	armed  bool
	hangup context.CancelFunc
}

func (r *hangupRepo) Create(ctx context.Context, c *domain.Chat) (*domain.Chat, error) {
	created, err := r.ChatRepository.Create(ctx, c)
	if r.armed {
		r.hangup()
	}
	return created, err
}

func (r *hangupRepo) Delete(ctx context.Context, chatID string) (*domain.Chat, error) {
	deleted, err := r.ChatRepository.Delete(ctx, chatID)
	if r.armed {
		r.hangup()
	}
	return deleted, err
}

type brokenReadRepo struct {
	chat.ChatRepository
}

func (brokenReadRepo) FindAllSummaries(context.Context) ([]domain.ChatSummary, error) {
	return nil, errors.New("connection reset")
}

func TestSharedReadSurvivesFirstCallerLeaving(t *testing.T) {
	gate := &gatedRepo{entered: make(chan struct{}, 4), release: make(chan struct{})}
	svc, _ := newTestServiceWith(t, func(r chat.ChatRepository) chat.ChatRepository {
		gate.ChatRepository = r
		return gate
	})
	created, err := svc.CreateNewChat(context.Background(), "Hello world")
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := svc.GetAllChats(firstCtx)
		firstErr <- err
	}()
	<-gate.entered

	type result struct {
		chats []domain.ChatSummary
		err   error
	}
	second := make(chan result, 1)
	go func() {
		chats, _, err := svc.GetAllChats(context.Background())
		second <- result{chats, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	requireErrorType(t, <-firstErr, chatservice.ErrTypeInternal)

	close(gate.release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.chats, 1)
	assert.Equal(t, created.ID, res.chats[0].ID)
	assert.NoError(t, gate.ctxErr)
	assert.Equal(t, 1, gate.calls)
}

func TestCreateNewChatInvalidatesAfterClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hang := &hangupRepo{hangup: cancel}
	svc, mr := newTestServiceWith(t, func(r chat.ChatRepository) chat.ChatRepository {
		hang.ChatRepository = r
		return hang
	})

	_, _, err := svc.GetAllChats(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.ChatListKey))

	hang.armed = true
	created, err := svc.CreateNewChat(ctx, "Hello world")
	require.NoError(t, err)
	assert.Error(t, ctx.Err())
	assert.False(t, mr.Exists(cache.ChatListKey))

	chats, fromCache, err := svc.GetAllChats(context.Background())
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ID, chats[0].ID)
}

func TestDeleteChatInvalidatesAfterClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hang := &hangupRepo{hangup: cancel}
	svc, mr := newTestServiceWith(t, func(r chat.ChatRepository) chat.ChatRepository {
		hang.ChatRepository = r
		return hang
	})

	created, err := svc.CreateNewChat(context.Background(), "Hello world")
	require.NoError(t, err)
	_, _, err = svc.GetChatByID(context.Background(), created.ID)
	require.NoError(t, err)
	_, _, err = svc.GetAllChats(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.ChatKey(created.ID)))
	require.True(t, mr.Exists(cache.ChatListKey))

	hang.armed = true
	_, err = svc.DeleteChat(ctx, created.ID)
	require.NoError(t, err)
	assert.Error(t, ctx.Err())
	assert.False(t, mr.Exists(cache.ChatKey(created.ID)))
	assert.False(t, mr.Exists(cache.ChatListKey))

	_, _, err = svc.GetChatByID(context.Background(), created.ID)
	requireErrorType(t, err, chatservice.ErrTypeNotFound)
}

func TestStoreReadFailureIsReportedAsLoad(t *testing.T) {
	svc, _ := newTestServiceWith(t, func(r chat.ChatRepository) chat.ChatRepository {
		return brokenReadRepo{ChatRepository: r}
	})

	_, _, err := svc.GetAllChats(context.Background())
	requireErrorType(t, err, chatservice.ErrTypePersistence)
	chatErr := chatservice.AsChatError(err)
	assert.Equal(t, "Failed to load chats", chatErr.Message)
	assert.Equal(t, "get_all_chats", chatErr.Operation)
}
