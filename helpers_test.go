package authtoken

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authtoken/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func staticKey(s string) jwt.KeyProvider {
	return jwt.StaticKey([]byte(s))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Signing.SigningKey = staticKey(testSecret)
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return engine
}
