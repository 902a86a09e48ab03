package authtoken

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/authtoken/password"
)

type credRepo struct {
	creds map[string]Credential[testUser]
	err   error
}

func (r *credRepo) FindByIdentifier(_ context.Context, identifier string) (Credential[testUser], error) {
	if r.err != nil {
		return Credential[testUser]{}, r.err
	}
	c, ok := r.creds[strings.ToLower(identifier)]
	if !ok {
		return Credential[testUser]{}, ErrEntityNotFound
	}
	return c, nil
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func newTestAuthenticator(t *testing.T, engine *Engine) (*Authenticator[testUser], *credRepo) {
	t.Helper()
	hasher := newTestHasher(t)
	hash, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	repo := &credRepo{creds: map[string]Credential[testUser]{
		"ada@example.com": {Subject: "u-1", PasswordHash: hash, Entity: testUser{ID: "u-1"}},
	}}
	return NewAuthenticator[testUser](engine, repo, hasher, "user"), repo
}

func TestLoginIssuesTokenForSubject(t *testing.T) {
	engine := newTestEngine(t, func(c *Config) { c.Metrics.Enabled = true })
	auth, _ := newTestAuthenticator(t, engine)

	tok, user, err := auth.Login(context.Background(), "Ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u-1" {
		t.Fatalf("unexpected entity %+v", user)
	}

	verified, err := engine.Verify(tok.Token(), auth.EntityType())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub, _ := verified.Payload().Subject(); sub != "u-1" {
		t.Fatalf("sub = %q, want u-1", sub)
	}
	if got := engine.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login success = %d, want 1", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine := newTestEngine(t, func(c *Config) { c.Metrics.Enabled = true })
	auth, repo := newTestAuthenticator(t, engine)

	if _, _, err := auth.Login(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := auth.Login(context.Background(), "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown identifier: expected ErrInvalidCredentials, got %v", err)
	}

	repo.creds["broken@example.com"] = Credential[testUser]{Subject: "u-2", PasswordHash: "not-a-hash"}
	if _, _, err := auth.Login(context.Background(), "broken@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("broken hash: expected ErrInvalidCredentials, got %v", err)
	}

	if got := engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 3 {
		t.Fatalf("login failure = %d, want 3", got)
	}
}

func TestLoginPropagatesLookupFailure(t *testing.T) {
	engine := newTestEngine(t, nil)
	auth, repo := newTestAuthenticator(t, engine)
	repo.err = errors.New("connection refused")

	_, _, err := auth.Login(context.Background(), "ada@example.com", "correct horse")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestLoginUsesCredentialPayload(t *testing.T) {
	engine := newTestEngine(t, nil)
	auth, repo := newTestAuthenticator(t, engine)

	c := repo.creds["ada@example.com"]
	c.Payload = Claims{"sub": "u-1", "role": "admin"}
	repo.creds["ada@example.com"] = c

	tok, _, err := auth.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := tok.Payload()["role"]; got != "admin" {
		t.Fatalf("role = %v, want admin", got)
	}
}

type memLimiter struct {
	max      int
	attempts map[string]int
	err      error
}

func (l *memLimiter) Allow(_ context.Context, identifier string) error {
	if l.err != nil {
		return l.err
	}
	l.attempts[identifier]++
	if l.attempts[identifier] > l.max {
		return ErrLoginThrottled
	}
	return nil
}

func (l *memLimiter) Reset(_ context.Context, identifier string) error {
	delete(l.attempts, identifier)
	return nil
}

func TestLoginThrottlesRepeatedFailures(t *testing.T) {
	engine := newTestEngine(t, nil)
	auth, _ := newTestAuthenticator(t, engine)
	limiter := &memLimiter{max: 2, attempts: map[string]int{}}
	auth.WithLimiter(limiter)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := auth.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	if _, _, err := auth.Login(ctx, "ada@example.com", "correct horse"); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected ErrLoginThrottled, got %v", err)
	}

	limiter.attempts["ada@example.com"] = 1
	if _, _, err := auth.Login(ctx, "ada@example.com", "correct horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := limiter.attempts["ada@example.com"]; ok {
		t.Fatal("successful login must reset the limiter")
	}
}

func TestLoginLimiterFailureIsNotCredentialError(t *testing.T) {
	engine := newTestEngine(t, nil)
	auth, _ := newTestAuthenticator(t, engine)
	auth.WithLimiter(&memLimiter{err: errors.New("redis down")})

	_, _, err := auth.Login(context.Background(), "ada@example.com", "correct horse")
	if err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected limiter infrastructure error, got %v", err)
	}
}
