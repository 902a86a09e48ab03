package authtoken

import (
	"fmt"
	"time"

	"github.com/MrEthical07/authtoken/jwt"
	"github.com/sirupsen/logrus"
)

// Engine issues and verifies tokens for a fixed Config. It holds no mutable
// state besides atomic counters and is safe for concurrent use after Build.
type Engine struct {
	codec   *jwt.Codec
	policy  *Policy
	metrics *Metrics
	logger  logrus.FieldLogger
}

// Issue builds the claims for entityType, merges payload on top and signs
// them. An empty entityType means DefaultEntityType. Signing failures and an
// empty audience from the configured producer are configuration problems and
// wrap ErrConfiguration.
func (e *Engine) Issue(entityType EntityType, payload Claims) (*AuthToken, error) {
	entityType = normalizeEntityType(entityType)
	claims, err := e.policy.Claims(entityType, payload)
	if err != nil {
		e.metrics.Inc(MetricIssueFailure)
		e.logger.WithField("entity_type", string(entityType)).WithError(err).Warn("authtoken: token claims rejected")
		return nil, err
	}

	token, err := e.codec.Encode(claims)
	if err != nil {
		e.metrics.Inc(MetricIssueFailure)
		e.logger.WithField("entity_type", string(entityType)).WithError(err).Warn("authtoken: token signing failed")
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	e.metrics.Inc(MetricTokenIssued)
	return &AuthToken{token: token, payload: claims, entityType: entityType}, nil
}

// Verify decodes token with the checks derived for entityType and opts.
// Any failure is a *TokenError matching ErrTokenInvalid; nothing is retried.
func (e *Engine) Verify(token string, entityType EntityType, opts ...VerifyOption) (*AuthToken, error) {
	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	entityType = normalizeEntityType(entityType)
	vo := e.policy.VerifyOptions(entityType, opts...)

	claims, err := e.codec.Decode(token, jwt.DecodeOptions{
		Algorithm:        vo.Algorithm,
		Audience:         vo.Audience,
		VerifyAudience:   vo.VerifyAudience,
		VerifyExpiration: vo.VerifyExpiration,
	})
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	if err != nil {
		tokErr := newTokenError(err)
		e.recordVerifyFailure(tokErr.Code)
		e.logger.WithFields(logrus.Fields{
			"entity_type": string(entityType),
			"code":        tokErr.Code,
		}).Debug("authtoken: token rejected")
		return nil, tokErr
	}

	e.metrics.Inc(MetricTokenVerified)
	return &AuthToken{token: token, payload: Claims(claims), entityType: entityType}, nil
}

func (e *Engine) recordVerifyFailure(code string) {
	e.metrics.Inc(MetricVerifyFailure)
	switch code {
	case CodeTokenExpired:
		e.metrics.Inc(MetricVerifyExpired)
	case CodeInvalidAudience:
		e.metrics.Inc(MetricVerifyAudienceMismatch)
	case CodeInvalidSignature:
		e.metrics.Inc(MetricVerifySignatureInvalid)
	case CodeTokenMalformed:
		e.metrics.Inc(MetricVerifyMalformed)
	}
}

// Policy returns the claims policy used by the engine.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Algorithm returns the configured signing algorithm.
func (e *Engine) Algorithm() string {
	return e.codec.Algorithm()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Logger returns the logger the engine writes to.
func (e *Engine) Logger() logrus.FieldLogger {
	return e.logger
}
