package authtoken

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authtoken/jwt"
)

// AudienceFunc produces the expected audience. It is invoked on every Issue
// and every Verify and its result is never cached, so it must return the same
// value for a deployment if audience verification is to succeed.
type AudienceFunc func() string

// Config defines the token policy of an Engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Signing  SigningConfig
	Lifetime Lifetime
	Audience AudienceFunc
	Leeway   time.Duration
	// IssueTokenID adds a random jti claim to issued tokens.
	IssueTokenID bool
	Metrics      MetricsConfig
	// Now overrides the clock used for exp and for verification. Nil means time.Now.
	Now func() time.Time
}

/*
====================================
SIGNING CONFIG
====================================
*/

// SigningConfig selects the algorithm and keys.
//
// SigningKey is required to issue tokens. PublicKey, when set, verifies
// tokens instead of the signing key, which allows verify-only deployments of
// asymmetric algorithms.
type SigningConfig struct {
	Algorithm  string
	SigningKey jwt.KeyProvider
	PublicKey  []byte
	KeyID      string
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns HS256 with a one day lifetime for every entity type
// and no audience. A signing key still has to be provided.
func DefaultConfig() Config {
	return Config{
		Signing: SigningConfig{
			Algorithm: "HS256",
		},
		Lifetime: Uniform(24 * time.Hour),
		Leeway:   0,
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Signing.PublicKey = cloneBytes(cfg.Signing.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem, wrapped with ErrConfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Signing.Algorithm) == "" {
		return fmt.Errorf("%w: signing algorithm required", ErrConfiguration)
	}
	if c.Signing.SigningKey == nil && len(c.Signing.PublicKey) == 0 {
		return fmt.Errorf("%w: signing key or public key required", ErrConfiguration)
	}
	if c.Leeway < 0 || c.Leeway > 2*time.Minute {
		return fmt.Errorf("%w: leeway must be within [0, 2m]", ErrConfiguration)
	}
	if err := c.Lifetime.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) codecConfig() jwt.Config {
	return jwt.Config{
		Algorithm:  c.Signing.Algorithm,
		SigningKey: c.Signing.SigningKey,
		PublicKey:  c.Signing.PublicKey,
		KeyID:      c.Signing.KeyID,
		Leeway:     c.Leeway,
		Now:        c.Now,
	}
}
