package authtoken

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Credential is what a CredentialLookup returns for a login identifier.
type Credential[E any] struct {
	Subject      string
	PasswordHash string
	Entity       E
	// Payload replaces the default {"sub": Subject} token payload when set.
	Payload Claims
}

// CredentialLookup finds login credentials by identifier (email, username).
// It returns an error matching ErrEntityNotFound for unknown identifiers.
type CredentialLookup[E any] interface {
	FindByIdentifier(ctx context.Context, identifier string) (Credential[E], error)
}

// PasswordVerifier checks a password against a stored hash.
// *password.Hasher satisfies it.
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

// LoginLimiter throttles login attempts per identifier.
// *redisrepo.Limiter satisfies it.
type LoginLimiter interface {
	// Allow counts one attempt for identifier and returns ErrLoginThrottled
	// when the budget is exhausted. Counting and deciding must be atomic.
	Allow(ctx context.Context, identifier string) error
	// Reset clears the attempts of identifier after a successful login.
	Reset(ctx context.Context, identifier string) error
}

// Authenticator issues tokens for entities that prove their password.
type Authenticator[E any] struct {
	engine     *Engine
	creds      CredentialLookup[E]
	verifier   PasswordVerifier
	limiter    LoginLimiter
	entityType EntityType
}

// NewAuthenticator returns an Authenticator issuing tokens of entityType.
func NewAuthenticator[E any](engine *Engine, creds CredentialLookup[E], verifier PasswordVerifier, entityType EntityType) *Authenticator[E] {
	return &Authenticator[E]{
		engine:     engine,
		creds:      creds,
		verifier:   verifier,
		entityType: normalizeEntityType(entityType),
	}
}

// WithLimiter throttles failed logins with l. It must be called before the
// Authenticator is shared.
func (a *Authenticator[E]) WithLimiter(l LoginLimiter) *Authenticator[E] {
	a.limiter = l
	return a
}

// EntityType returns the entity type tokens are issued for.
func (a *Authenticator[E]) EntityType() EntityType {
	return a.entityType
}

// Login verifies identifier and password and issues a token for the entity.
// Unknown identifiers and wrong passwords both return ErrInvalidCredentials;
// a throttled identifier returns ErrLoginThrottled.
func (a *Authenticator[E]) Login(ctx context.Context, identifier, password string) (*AuthToken, E, error) {
	var zero E
	log := a.engine.logger.WithField("entity_type", string(a.entityType))

	if a.limiter != nil {
		if err := a.limiter.Allow(ctx, identifier); err != nil {
			a.engine.metrics.Inc(MetricLoginFailure)
			if errors.Is(err, ErrLoginThrottled) {
				log.Debug("authtoken: login throttled")
				return nil, zero, ErrLoginThrottled
			}
			return nil, zero, fmt.Errorf("login limiter: %w", err)
		}
	}

	cred, err := a.creds.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			log.Debug("authtoken: login for unknown identifier")
			return nil, zero, a.rejectLogin()
		}
		a.engine.metrics.Inc(MetricLoginFailure)
		return nil, zero, fmt.Errorf("credential lookup: %w", err)
	}

	ok, err := a.verifier.Verify(password, cred.PasswordHash)
	if err != nil {
		log.WithError(err).Warn("authtoken: stored password hash unusable")
		return nil, zero, a.rejectLogin()
	}
	if !ok {
		log.WithFields(logrus.Fields{"sub": cred.Subject}).Debug("authtoken: login password mismatch")
		return nil, zero, a.rejectLogin()
	}

	payload := cred.Payload
	if payload == nil {
		payload = Claims{ClaimSubject: cred.Subject}
	}

	tok, err := a.engine.Issue(a.entityType, payload)
	if err != nil {
		a.engine.metrics.Inc(MetricLoginFailure)
		return nil, zero, err
	}

	if a.limiter != nil {
		if err := a.limiter.Reset(ctx, identifier); err != nil {
			log.WithError(err).Warn("authtoken: login limiter reset failed")
		}
	}

	a.engine.metrics.Inc(MetricLoginSuccess)
	return tok, cred.Entity, nil
}

func (a *Authenticator[E]) rejectLogin() error {
	a.engine.metrics.Inc(MetricLoginFailure)
	return ErrInvalidCredentials
}
