package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/allot/internal/shared/application"
)

// unlockScript deletes a key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes lock expiry and polling.
type RedisConfig struct {
	Prefix       string
	TTL          time.Duration
	RetryBackoff time.Duration
	MaxWait      time.Duration
}

// DefaultRedisConfig returns a sensible default configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:       "allot:lock:",
		TTL:          30 * time.Second,
		RetryBackoff: 50 * time.Millisecond,
		MaxWait:      10 * time.Second,
	}
}

// RedisLocker implements application.Locker with SET NX PX per key.
type RedisLocker struct {
	client *redis.Client
	config RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a locker on an existing client.
func NewRedisLocker(client *redis.Client, config RedisConfig, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultRedisConfig()
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.MaxWait <= 0 {
		config.MaxWait = defaults.MaxWait
	}
	return &RedisLocker{client: client, config: config, logger: logger}
}

// Acquire takes all keys with a shared random token. On contention it drops
// what it holds and retries until MaxWait elapses.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (application.ReleaseFunc, error) {
	keys = normalizeKeys(keys)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.config.MaxWait)
	defer cancel()

	for attempt := 1; ; attempt++ {
		held, err := l.tryAcquire(waitCtx, keys, token)
		if err != nil {
			return nil, err
		}
		if held {
			return l.releaser(keys, token), nil
		}

		select {
		case <-waitCtx.Done():
			l.logger.Warn("lock wait exhausted", "keys", keys, "attempts", attempt)
			return nil, fmt.Errorf("%w: %v", application.ErrLockTimeout, keys)
		case <-time.After(l.config.RetryBackoff):
		}
	}
}

func (l *RedisLocker) tryAcquire(ctx context.Context, keys []string, token string) (bool, error) {
	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		ok, err := l.client.SetNX(ctx, l.config.Prefix+key, token, l.config.TTL).Result()
		if err != nil {
			l.unlock(context.WithoutCancel(ctx), acquired, token)
			if errors.Is(err, context.DeadlineExceeded) {
				return false, fmt.Errorf("%w: %v", application.ErrLockTimeout, keys)
			}
			return false, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if !ok {
			l.unlock(context.WithoutCancel(ctx), acquired, token)
			return false, nil
		}
		acquired = append(acquired, key)
	}
	return true, nil
}

func (l *RedisLocker) releaser(keys []string, token string) application.ReleaseFunc {
	return func(ctx context.Context) error {
		return l.unlock(ctx, keys, token)
	}
}

func (l *RedisLocker) unlock(ctx context.Context, keys []string, token string) error {
	var errs []error
	for _, key := range keys {
		if err := unlockScript.Run(ctx, l.client, []string{l.config.Prefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release lock", "key", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
