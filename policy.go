package authtoken

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Policy derives the claims to sign and the checks to verify for an entity
// type. It reads only its configuration and the clock, so one Policy can be
// shared by all requests.
type Policy struct {
	lifetime     Lifetime
	audience     AudienceFunc
	algorithm    string
	issueTokenID bool
	now          func() time.Time
}

// NewPolicy returns the Policy described by cfg.
func NewPolicy(cfg Config) *Policy {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Policy{
		lifetime:     cfg.Lifetime,
		audience:     cfg.Audience,
		algorithm:    cfg.Signing.Algorithm,
		issueTokenID: cfg.IssueTokenID,
		now:          now,
	}
}

// VerifyLifetime reports whether tokens for entityType carry and check exp.
func (p *Policy) VerifyLifetime(entityType EntityType) bool {
	return p.lifetime.Configured(entityType)
}

// VerifyAudience reports whether an audience producer is configured.
func (p *Policy) VerifyAudience() bool {
	return p.audience != nil
}

// Claims returns the claim set to sign: exp and aud when applicable, a jti
// when enabled, then payload merged on top. Keys in payload win.
//
// A configured audience producer that returns "" is a configuration error:
// Verify requires a non-empty expected audience, so such a token could never
// be accepted.
func (p *Policy) Claims(entityType EntityType, payload Claims) (Claims, error) {
	out := make(Claims, len(payload)+3)

	if d, ok := p.lifetime.For(entityType); ok {
		out[ClaimExpiration] = p.now().Add(d).Unix()
	}
	if p.VerifyAudience() {
		aud := p.audience()
		if aud == "" {
			return nil, fmt.Errorf("%w: audience producer returned an empty audience", ErrConfiguration)
		}
		out[ClaimAudience] = aud
	}
	if p.issueTokenID {
		out[ClaimTokenID] = uuid.NewString()
	}

	for k, v := range payload {
		out[k] = v
	}
	return out, nil
}

// VerifyOptions returns the checks for entityType with opts applied on top.
func (p *Policy) VerifyOptions(entityType EntityType, opts ...VerifyOption) VerifyOptions {
	out := VerifyOptions{
		VerifyAudience:   p.VerifyAudience(),
		VerifyExpiration: p.VerifyLifetime(entityType),
		Algorithm:        p.algorithm,
	}
	if out.VerifyAudience {
		out.Audience = p.audience()
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
