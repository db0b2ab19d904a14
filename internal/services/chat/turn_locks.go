package chat

import (
	"context"
	"sync"
)

// turnLocks serializes turns per chat id within this process.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	sem  chan struct{}
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*turnLock)}
}

// acquire blocks until the chat is free or ctx is done.
func (l *turnLocks) acquire(ctx context.Context, chatID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[chatID]
	if !ok {
		lk = &turnLock{sem: make(chan struct{}, 1)}
		l.locks[chatID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(chatID, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.unref(chatID, lk)
		})
	}, nil
}

func (l *turnLocks) unref(chatID string, lk *turnLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, chatID)
	}
}
