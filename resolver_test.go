package authtoken

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type testUser struct {
	ID   string
	Role string
}

type idRepo struct {
	users map[string]testUser
	calls int
}

func (r *idRepo) FindByID(_ context.Context, id string) (testUser, error) {
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return testUser{}, fmt.Errorf("user %s: %w", id, ErrEntityNotFound)
	}
	return u, nil
}

type claimsRepo struct {
	idRepo
	factoryCalls int
}

func (r *claimsRepo) FromTokenPayload(_ context.Context, claims Claims) (testUser, error) {
	r.factoryCalls++
	sub, _ := claims.Subject()
	role, _ := claims["role"].(string)
	return testUser{ID: sub, Role: role}, nil
}

func issueAndVerify(t *testing.T, engine *Engine, payload Claims) *AuthToken {
	t.Helper()
	issued, err := engine.Issue("user", payload)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	verified, err := engine.Verify(issued.Token(), "user")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return verified
}

func TestResolveEntityByID(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &idRepo{users: map[string]testUser{"42": {ID: "42", Role: "member"}}}
	resolver := NewResolver[testUser](repo)
	if resolver.UsesClaims() {
		t.Fatal("plain repository must resolve by id")
	}

	tok := issueAndVerify(t, engine, Claims{"sub": "42"})
	got, err := ResolveEntity(context.Background(), tok, resolver)
	if err != nil {
		t.Fatalf("ResolveEntity: %v", err)
	}
	if got.ID != "42" || repo.calls != 1 {
		t.Fatalf("unexpected entity %+v after %d calls", got, repo.calls)
	}
}

func TestResolveEntityNumericSubject(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &idRepo{users: map[string]testUser{"42": {ID: "42"}}}

	tok := issueAndVerify(t, engine, Claims{"sub": 42})
	if _, err := ResolveEntity(context.Background(), tok, NewResolver[testUser](repo)); err != nil {
		t.Fatalf("expected numeric sub to resolve, got %v", err)
	}
}

func TestResolveEntityPrefersClaimsConstructor(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &claimsRepo{idRepo: idRepo{users: map[string]testUser{}}}
	resolver := NewResolver[testUser](repo)
	if !resolver.UsesClaims() {
		t.Fatal("claims-capable repository must use the claims factory")
	}

	tok := issueAndVerify(t, engine, Claims{"sub": "7", "role": "admin"})
	got, err := ResolveEntity(context.Background(), tok, resolver)
	if err != nil {
		t.Fatalf("ResolveEntity: %v", err)
	}
	if got != (testUser{ID: "7", Role: "admin"}) {
		t.Fatalf("unexpected entity %+v", got)
	}
	if repo.factoryCalls != 1 || repo.calls != 0 {
		t.Fatalf("expected factory only, got factory=%d lookup=%d", repo.factoryCalls, repo.calls)
	}
}

func TestResolveEntityExplicitStrategy(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &claimsRepo{idRepo: idRepo{users: map[string]testUser{"7": {ID: "7", Role: "stored"}}}}

	tok := issueAndVerify(t, engine, Claims{"sub": "7", "role": "admin"})
	got, err := ResolveEntity(context.Background(), tok, LookupByID[testUser](repo))
	if err != nil {
		t.Fatalf("ResolveEntity: %v", err)
	}
	if got.Role != "stored" {
		t.Fatalf("expected lookup by id, got %+v", got)
	}
}

func TestResolveEntityNotFoundPropagates(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &idRepo{users: map[string]testUser{}}

	tok := issueAndVerify(t, engine, Claims{"sub": "missing"})
	_, err := ResolveEntity(context.Background(), tok, NewResolver[testUser](repo))
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestResolveEntityWithoutSubject(t *testing.T) {
	engine := newTestEngine(t, nil)
	repo := &idRepo{users: map[string]testUser{}}

	tok := issueAndVerify(t, engine, Claims{"role": "admin"})
	_, err := ResolveEntity(context.Background(), tok, NewResolver[testUser](repo))
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatal("repository must not be queried without a subject")
	}
}

func TestResolveEntityRejectsNilInputs(t *testing.T) {
	if _, err := ResolveEntity(context.Background(), nil, NewResolver[testUser](&idRepo{})); err == nil {
		t.Fatal("expected error for nil token")
	}

	engine := newTestEngine(t, nil)
	tok := issueAndVerify(t, engine, Claims{"sub": "1"})
	if _, err := ResolveEntity(context.Background(), tok, Resolver[testUser]{}); err == nil {
		t.Fatal("expected error for empty resolver")
	}
}
