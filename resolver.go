package authtoken

import (
	"context"
	"errors"
	"fmt"
)

// IDLookup finds an entity by the token subject. Implementations return an
// error matching ErrEntityNotFound when no entity exists.
type IDLookup[E any] interface {
	FindByID(ctx context.Context, id string) (E, error)
}

// ClaimsConstructor builds an entity from the full token payload, for
// repositories that interpret custom claims themselves.
type ClaimsConstructor[E any] interface {
	FromTokenPayload(ctx context.Context, claims Claims) (E, error)
}

// Resolver turns a verified token into an entity. Which strategy it uses is
// fixed when the Resolver is created.
type Resolver[E any] struct {
	byID       IDLookup[E]
	fromClaims ClaimsConstructor[E]
}

// LookupByID resolves entities with repo.FindByID(payload["sub"]).
func LookupByID[E any](repo IDLookup[E]) Resolver[E] {
	return Resolver[E]{byID: repo}
}

// ConstructFromClaims resolves entities with repo.FromTokenPayload(payload).
func ConstructFromClaims[E any](repo ClaimsConstructor[E]) Resolver[E] {
	return Resolver[E]{fromClaims: repo}
}

// NewResolver picks the strategy for repo once: the claims factory if repo
// implements ClaimsConstructor[E], the id lookup otherwise.
func NewResolver[E any](repo IDLookup[E]) Resolver[E] {
	if ctor, ok := repo.(ClaimsConstructor[E]); ok {
		return ConstructFromClaims[E](ctor)
	}
	return LookupByID[E](repo)
}

// UsesClaims reports whether r hands the payload to a claims factory.
func (r Resolver[E]) UsesClaims() bool {
	return r.fromClaims != nil
}

// ResolveEntity returns the entity tok refers to. Repository errors are
// returned unchanged; a payload without a usable sub claim yields
// ErrEntityNotFound.
func ResolveEntity[E any](ctx context.Context, tok *AuthToken, r Resolver[E]) (E, error) {
	var zero E
	if tok == nil {
		return zero, errors.New("nil token")
	}

	switch {
	case r.fromClaims != nil:
		return r.fromClaims.FromTokenPayload(ctx, tok.Payload())
	case r.byID != nil:
		sub, ok := tok.payload.Subject()
		if !ok {
			return zero, fmt.Errorf("%w: token has no subject", ErrEntityNotFound)
		}
		return r.byID.FindByID(ctx, sub)
	default:
		return zero, errors.New("resolver has no repository")
	}
}
