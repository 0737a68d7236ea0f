package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrLimiterUnavailable = errors.New("rate limiter unavailable")
)

type Config struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// Decision describes the state of the caller's window after a hit.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindowLimiter counts hits per identity in Redis. The first hit of a
// window creates the counter and sets its expiry; the window ends when the
// key expires.
type FixedWindowLimiter struct {
	redis redis.UniversalClient
	cfg   Config
}

func NewFixedWindowLimiter(client redis.UniversalClient, cfg Config) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redis: client,
		cfg:   cfg,
	}
}

// Allow records a hit for identity. It returns ErrRateLimited together with
// the time left in the window once the limit is exceeded, and
// ErrLimiterUnavailable when Redis cannot be reached.
func (l *FixedWindowLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	key := l.key(identity)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err = l.redis.PExpire(ctx, key, l.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if count <= int64(l.cfg.Limit) {
		return Decision{Allowed: true, Remaining: l.cfg.Limit - int(count)}, nil
	}

	ttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if ttl < 0 {
		// counter survived without an expiry, start a fresh window for it
		if err = l.redis.PExpire(ctx, key, l.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
		ttl = l.cfg.Window
	}

	return Decision{Allowed: false, RetryAfter: ttl}, ErrRateLimited
}

func (l *FixedWindowLimiter) key(identity string) string {
	return l.cfg.Prefix + identity
}
