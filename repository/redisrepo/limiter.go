package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authtoken"
	"github.com/redis/go-redis/v9"
)

// LimiterConfig bounds login attempts per identifier within a fixed window.
// A successful login resets the count, so in practice it bounds consecutive
// failures.
type LimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultLimiterConfig allows 5 failures per 15 minutes.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute}
}

// Limiter counts login attempts in Redis with fixed-window semantics: INCR,
// plus EXPIRE on the first hit of a window. The throttle decision is taken
// from the INCR result, so concurrent attempts cannot exceed MaxAttempts.
type Limiter struct {
	client redis.UniversalClient
	prefix string
	config LimiterConfig
}

// NewLimiter returns a Limiter storing counters under prefix.
func NewLimiter(client redis.UniversalClient, prefix string, cfg LimiterConfig) (*Limiter, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w: max attempts must be > 0", authtoken.ErrConfiguration)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be > 0", authtoken.ErrConfiguration)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "authtoken"
	}
	return &Limiter{client: client, prefix: prefix, config: cfg}, nil
}

func (l *Limiter) key(identifier string) string {
	return l.prefix + ":login:" + strings.ToLower(strings.TrimSpace(identifier))
}

// Allow reserves one attempt for identifier. Once MaxAttempts attempts have
// been reserved in the current window it returns authtoken.ErrLoginThrottled.
func (l *Limiter) Allow(ctx context.Context, identifier string) error {
	key := l.key(identifier)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return authtoken.ErrLoginThrottled
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the attempts reserved in the current window.
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.client.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

var _ authtoken.LoginLimiter = (*Limiter)(nil)
