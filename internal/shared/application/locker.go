package application

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock cannot be acquired before the wait
// budget or the context runs out.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// ReleaseFunc releases a set of locks obtained from a Locker.
type ReleaseFunc func(ctx context.Context) error

// Locker serialises work on named keys across goroutines or processes.
// Acquire takes every key or none of them.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (ReleaseFunc, error)
}
