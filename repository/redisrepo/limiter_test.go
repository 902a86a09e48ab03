package redisrepo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authtoken"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg LimiterConfig) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	l, err := NewLimiter(rdb, "test", cfg)
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}
	return l, mr
}

func TestLimiterThrottlesAfterMaxAttempts(t *testing.T) {
	l, _ := newTestLimiter(t, LimiterConfig{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "Ada@Example.com"); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
	}

	if err := l.Allow(ctx, "ada@example.com"); !errors.Is(err, authtoken.ErrLoginThrottled) {
		t.Fatalf("expected ErrLoginThrottled, got %v", err)
	}
	if n, _ := l.Attempts(ctx, "ADA@example.com"); n != 4 {
		t.Fatalf("attempts = %d, want 4", n)
	}
}

func TestLimiterConcurrentAttemptsNeverExceedBudget(t *testing.T) {
	const maxAttempts = 3
	l, _ := newTestLimiter(t, LimiterConfig{MaxAttempts: maxAttempts, Window: time.Minute})

	const goroutines = 32
	var (
		wg      sync.WaitGroup
		allowed int64
	)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if err := l.Allow(context.Background(), "ada"); err == nil {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != maxAttempts {
		t.Fatalf("allowed = %d, want %d", allowed, maxAttempts)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, LimiterConfig{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Allow(ctx, "ada"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if ttl := mr.TTL("test:login:ada"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
	if err := l.Allow(ctx, "ada"); !errors.Is(err, authtoken.ErrLoginThrottled) {
		t.Fatalf("expected throttled, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Allow(ctx, "ada"); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(t, LimiterConfig{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	_ = l.Allow(ctx, "ada")
	if err := l.Reset(ctx, "ada"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.Allow(ctx, "ada"); err != nil {
		t.Fatalf("expected reset counter, got %v", err)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, DefaultLimiterConfig())
	mr.Close()

	err := l.Allow(context.Background(), "ada")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestNewLimiterRejectsBadConfig(t *testing.T) {
	if _, err := NewLimiter(nil, "", LimiterConfig{Window: time.Minute}); !errors.Is(err, authtoken.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := NewLimiter(nil, "", LimiterConfig{MaxAttempts: 1}); !errors.Is(err, authtoken.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
