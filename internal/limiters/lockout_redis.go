package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockoutUnavailable indicates the shared lockout backend is
// unreachable.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// RedisLockout shares lockout state across processes. The failure counter
// carries a TTL equal to the lockout duration, set on the first failure,
// so it acts as both the counting window and the lock.
type RedisLockout struct {
	client redis.UniversalClient
	cfg    LockoutConfig
}

// NewRedisLockout creates a Redis-backed lockout policy.
func NewRedisLockout(client redis.UniversalClient, cfg LockoutConfig) *RedisLockout {
	return &RedisLockout{client: client, cfg: cfg}
}

func (l *RedisLockout) key(key string) string {
	return "ak:lo:" + key
}

// Allowed reports whether the key may attempt a sign-in.
func (l *RedisLockout) Allowed(ctx context.Context, key string) (bool, time.Duration, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, 0, nil
		}
		return false, 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if count < int64(l.cfg.Threshold) {
		return true, 0, nil
	}
	ttl, err := l.client.TTL(ctx, l.key(key)).Result()
	if err != nil || ttl < 0 {
		ttl = l.cfg.Duration
	}
	return false, ttl, nil
}

// RecordFailure counts a failed attempt. It returns true when this failure
// reached the threshold.
func (l *RedisLockout) RecordFailure(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, l.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, l.key(key), l.cfg.Duration).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}
	return count >= int64(l.cfg.Threshold), nil
}

// Reset clears the failure counter for key.
func (l *RedisLockout) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

var _ LoginGate = (*RedisLockout)(nil)
