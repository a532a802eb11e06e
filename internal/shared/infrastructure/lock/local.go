// Package lock provides Locker implementations backed by process memory or Redis.
package lock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/felixgeelhaar/allot/internal/shared/application"
)

// LocalLocker serialises holders of the same keys inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Acquire blocks until every key is held or ctx is done.
// Keys are taken in sorted order so overlapping key sets cannot deadlock.
func (l *LocalLocker) Acquire(ctx context.Context, keys ...string) (application.ReleaseFunc, error) {
	keys = normalizeKeys(keys)

	held := make([]chan struct{}, 0, len(keys))
	release := func(context.Context) error {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
		held = held[:0]
		return nil
	}

	for _, key := range keys {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			_ = release(ctx)
			return nil, fmt.Errorf("%w: %s: %w", application.ErrLockTimeout, key, ctx.Err())
		}
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() { err = release(ctx) })
		return err
	}, nil
}

func normalizeKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
