// Package envconfig builds an authtoken.Config from environment variables
// and optional .env files.
//
// Recognised variables (all prefixed with AUTHTOKEN_):
//
//	ALGORITHM          JOSE algorithm, default HS256
//	SECRET             HMAC secret
//	PRIVATE_KEY_FILE   path to a PEM private key (asymmetric algorithms)
//	PUBLIC_KEY_FILE    path to a PEM public key (verify-only deployments)
//	KEY_ID             kid header
//	LIFETIME           uniform lifetime, default 24h; 0 disables expiration
//	LIFETIMES          per-type lifetimes, e.g. "user:1h,admin:0"; a type
//	                   listed with 0, or not listed, issues tokens without exp
//	AUDIENCE           static audience
//	LEEWAY             clock skew allowance, 0..2m
//	ISSUE_TOKEN_ID     add a random jti claim
//	METRICS            enable in-process counters
package envconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/authtoken"
	"github.com/MrEthical07/authtoken/jwt"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "AUTHTOKEN_"

// Env mirrors the recognised environment variables.
type Env struct {
	Algorithm    string            `env:"ALGORITHM" envDefault:"HS256"`
	Secret       string            `env:"SECRET"`
	PrivateKey   string            `env:"PRIVATE_KEY_FILE,file"`
	PublicKey    string            `env:"PUBLIC_KEY_FILE,file"`
	KeyID        string            `env:"KEY_ID"`
	Lifetime     time.Duration     `env:"LIFETIME" envDefault:"24h"`
	Lifetimes    map[string]string `env:"LIFETIMES"`
	Audience     string            `env:"AUDIENCE"`
	Leeway       time.Duration     `env:"LEEWAY"`
	IssueTokenID bool              `env:"ISSUE_TOKEN_ID"`
	Metrics      bool              `env:"METRICS"`
}

// Parse reads Env from environ, or from the process environment when environ
// is nil.
func Parse(environ map[string]string) (Env, error) {
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	var e Env
	if err := env.ParseWithOptions(&e, env.Options{
		Prefix:      Prefix,
		Environment: environ,
	}); err != nil {
		return Env{}, fmt.Errorf("envconfig: %w", err)
	}
	return e, nil
}

// Load reads the given .env files (".env" when none are given and it exists),
// overlays the process environment and returns the resulting Config. Process
// variables win over file values.
func Load(files ...string) (authtoken.Config, error) {
	environ, err := readDotenv(files)
	if err != nil {
		return authtoken.Config{}, err
	}
	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}

	e, err := Parse(environ)
	if err != nil {
		return authtoken.Config{}, err
	}
	return e.Config()
}

func readDotenv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		files = []string{".env"}
	}

	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("envconfig: read dotenv: %w", err)
	}
	return values, nil
}

// Config converts e into an authtoken.Config. The result still goes through
// Config.Validate when the engine is built.
func (e Env) Config() (authtoken.Config, error) {
	cfg := authtoken.DefaultConfig()
	cfg.Signing.Algorithm = strings.TrimSpace(e.Algorithm)
	cfg.Signing.KeyID = e.KeyID
	cfg.Leeway = e.Leeway
	cfg.IssueTokenID = e.IssueTokenID
	cfg.Metrics.Enabled = e.Metrics

	switch {
	case e.PrivateKey != "":
		cfg.Signing.SigningKey = jwt.StaticKey([]byte(e.PrivateKey))
	case e.Secret != "":
		cfg.Signing.SigningKey = jwt.StaticKey([]byte(e.Secret))
	default:
		cfg.Signing.SigningKey = nil
	}
	if e.PublicKey != "" {
		cfg.Signing.PublicKey = []byte(e.PublicKey)
	}

	lifetime, err := e.lifetime()
	if err != nil {
		return authtoken.Config{}, err
	}
	cfg.Lifetime = lifetime

	if aud := strings.TrimSpace(e.Audience); aud != "" {
		cfg.Audience = func() string { return aud }
	}

	return cfg, nil
}

func (e Env) lifetime() (authtoken.Lifetime, error) {
	if len(e.Lifetimes) > 0 {
		m := make(map[authtoken.EntityType]time.Duration, len(e.Lifetimes))
		for k, v := range e.Lifetimes {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return authtoken.Lifetime{}, fmt.Errorf("envconfig: %sLIFETIMES[%s]: %w", Prefix, k, err)
			}
			if d == 0 {
				continue
			}
			m[authtoken.EntityType(strings.TrimSpace(k))] = d
		}
		return authtoken.PerType(m), nil
	}
	if e.Lifetime == 0 {
		return authtoken.NoLifetime(), nil
	}
	return authtoken.Uniform(e.Lifetime), nil
}
