package authtoken

import (
	"fmt"
	"io"

	"github.com/MrEthical07/authtoken/jwt"
	"github.com/sirupsen/logrus"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	logger logrus.FieldLogger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSigningKey sets the signing key provider.
func (b *Builder) WithSigningKey(provider jwt.KeyProvider) *Builder {
	b.config.Signing.SigningKey = provider
	return b
}

// WithLifetime sets the lifetime policy.
func (b *Builder) WithLifetime(l Lifetime) *Builder {
	b.config.Lifetime = l
	return b
}

// WithAudience sets the audience producer.
func (b *Builder) WithAudience(fn AudienceFunc) *Builder {
	b.config.Audience = fn
	return b
}

// WithLogger sets the logger. Without it the engine logs to io.Discard.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Engine. Configuration
// errors wrap ErrConfiguration.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(cfg.codecConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}

	if !cfg.Lifetime.IsPerType() && !cfg.Lifetime.Configured(DefaultEntityType) {
		logger.Warn("authtoken: no token lifetime configured, issued tokens never expire")
	}
	if cfg.Signing.SigningKey == nil {
		logger.Info("authtoken: no signing key configured, engine is verify-only")
	}

	b.built = true

	return &Engine{
		codec:   codec,
		policy:  NewPolicy(cfg),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
	}, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
