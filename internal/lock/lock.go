// Package lock provides the mutual exclusion that keeps one price-check cycle running at a time.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock already held")

// Unlock releases a held lock. It is safe to call after the TTL has expired.
type Unlock func(ctx context.Context) error

// Locker acquires named locks that expire after ttl if never released.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryLocker is a single-process Locker used when Redis is not configured.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrNotAcquired
	}

	token := uuid.NewString()
	l.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
