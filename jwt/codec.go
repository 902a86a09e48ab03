package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnsupportedAlgorithm is returned for unknown algorithms and for "none".
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrSigningKeyMissing is returned by Encode when no signing key is available.
	ErrSigningKeyMissing = errors.New("signing key missing")
	// ErrVerifyKeyMissing is returned when neither a public key nor a signing key can verify.
	ErrVerifyKeyMissing = errors.New("verification key missing")
	// ErrInvalidKey is returned when key material cannot be parsed for the algorithm.
	ErrInvalidKey = errors.New("invalid key material")
)

// KeyProvider returns the signing key. It is called on every Encode, so a
// provider backed by a secret manager sees updates without a restart.
type KeyProvider func() ([]byte, error)

// StaticKey wraps a fixed key in a KeyProvider.
func StaticKey(key []byte) KeyProvider {
	out := make([]byte, len(key))
	copy(out, key)
	return func() ([]byte, error) {
		return out, nil
	}
}

// Config describes how tokens are signed and which key verifies them.
//
// Algorithm is a JOSE name ("HS256", "RS256", "ES256", "EdDSA", ...).
// SigningKey is the HMAC secret, or a PEM (or raw ed25519) private key.
// PublicKey, when set, is always used for verification; otherwise the signing
// key (or the public half of it) is used.
type Config struct {
	Algorithm  string
	SigningKey KeyProvider
	PublicKey  []byte
	KeyID      string
	Leeway     time.Duration
	Now        func() time.Time
}

// DecodeOptions selects the checks Decode runs on top of the signature check.
type DecodeOptions struct {
	Algorithm        string
	Audience         string
	VerifyAudience   bool
	VerifyExpiration bool
}

// Codec encodes and decodes compact JWTs. A Codec is immutable after
// NewCodec and safe for concurrent use.
type Codec struct {
	config    Config
	method    jwt.SigningMethod
	publicKey crypto.PublicKey
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	cfg.Algorithm = strings.TrimSpace(cfg.Algorithm)
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	c := &Codec{config: cfg, method: method}

	if len(cfg.PublicKey) > 0 {
		if _, ok := method.(*jwt.SigningMethodHMAC); ok {
			return nil, fmt.Errorf("%w: public key set for symmetric algorithm %s", ErrInvalidKey, method.Alg())
		}
		pub, err := parsePublicKey(method, cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		c.publicKey = pub
	} else if cfg.SigningKey == nil {
		return nil, ErrVerifyKeyMissing
	}

	return c, nil
}

// Algorithm returns the configured JOSE algorithm name.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Encode signs claims with the configured algorithm and signing key.
func (c *Codec) Encode(claims map[string]any) (string, error) {
	key, err := c.signKey()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(c.method, jwt.MapClaims(claims))
	if c.config.KeyID != "" {
		token.Header["kid"] = c.config.KeyID
	}

	return token.SignedString(key)
}

// Decode verifies the signature of tokenStr and then runs the claim checks
// selected by opts. Errors wrap the golang-jwt sentinels (jwt.ErrTokenExpired,
// jwt.ErrTokenInvalidAudience, ...) so callers can classify them.
func (c *Codec) Decode(tokenStr string, opts DecodeOptions) (map[string]any, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = c.method.Alg()
	}
	if strings.EqualFold(alg, "none") {
		return nil, fmt.Errorf("%w: %w", jwt.ErrTokenUnverifiable, ErrUnsupportedAlgorithm)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != alg {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if c.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			if kid != c.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return c.verifyKey()
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	if err := c.validate(claims, opts); err != nil {
		return nil, err
	}

	return claims, nil
}

func (c *Codec) validate(claims jwt.MapClaims, opts DecodeOptions) error {
	view := claims
	if !opts.VerifyExpiration {
		view = withoutClaim(claims, "exp")
	}

	validatorOpts := []jwt.ParserOption{jwt.WithTimeFunc(c.config.Now)}
	if c.config.Leeway > 0 {
		validatorOpts = append(validatorOpts, jwt.WithLeeway(c.config.Leeway))
	}
	if opts.VerifyAudience {
		if opts.Audience == "" {
			return fmt.Errorf("%w: %w: no expected audience", jwt.ErrTokenInvalidClaims, jwt.ErrTokenInvalidAudience)
		}
		validatorOpts = append(validatorOpts, jwt.WithAudience(opts.Audience))
	}

	return jwt.NewValidator(validatorOpts...).Validate(view)
}

func withoutClaim(claims jwt.MapClaims, name string) jwt.MapClaims {
	if _, ok := claims[name]; !ok {
		return claims
	}
	out := make(jwt.MapClaims, len(claims))
	for k, v := range claims {
		if k != name {
			out[k] = v
		}
	}
	return out
}

func (c *Codec) signKey() (interface{}, error) {
	if c.config.SigningKey == nil {
		return nil, ErrSigningKeyMissing
	}
	raw, err := c.config.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningKeyMissing, err)
	}
	if len(raw) == 0 {
		return nil, ErrSigningKeyMissing
	}

	switch c.method.(type) {
	case *jwt.SigningMethodHMAC:
		return raw, nil
	default:
		return parsePrivateKey(c.method, raw)
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	if c.publicKey != nil {
		return c.publicKey, nil
	}
	if c.config.SigningKey == nil {
		return nil, ErrVerifyKeyMissing
	}
	raw, err := c.config.SigningKey()
	if err != nil || len(raw) == 0 {
		return nil, ErrVerifyKeyMissing
	}

	switch c.method.(type) {
	case *jwt.SigningMethodHMAC:
		return raw, nil
	default:
		priv, err := parsePrivateKey(c.method, raw)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	if alg == "" || strings.EqualFold(alg, "none") {
		return nil, ErrUnsupportedAlgorithm
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	switch method.(type) {
	case *jwt.SigningMethodHMAC, *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS,
		*jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
		return method, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

type privateKey interface {
	Public() crypto.PublicKey
}

func parsePrivateKey(method jwt.SigningMethod, key []byte) (privateKey, error) {
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		k, err := jwt.ParseRSAPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("%w: rsa private key", ErrInvalidKey)
		}
		return k, nil
	case *jwt.SigningMethodECDSA:
		k, err := jwt.ParseECPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("%w: ecdsa private key", ErrInvalidKey)
		}
		return k, nil
	case *jwt.SigningMethodEd25519:
		return parseEdPrivateKey(key)
	default:
		return nil, fmt.Errorf("%w: %s has no private key", ErrInvalidKey, method.Alg())
	}
}

func parsePublicKey(method jwt.SigningMethod, key []byte) (crypto.PublicKey, error) {
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		k, err := jwt.ParseRSAPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("%w: rsa public key", ErrInvalidKey)
		}
		return k, nil
	case *jwt.SigningMethodECDSA:
		k, err := jwt.ParseECPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("%w: ecdsa public key", ErrInvalidKey)
		}
		return k, nil
	case *jwt.SigningMethodEd25519:
		return parseEdPublicKey(key)
	default:
		return nil, fmt.Errorf("%w: %s has no public key", ErrInvalidKey, method.Alg())
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: ed25519 private key", ErrInvalidKey)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: ed25519 private key type", ErrInvalidKey)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: ed25519 public key", ErrInvalidKey)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: ed25519 public key type", ErrInvalidKey)
	}
	return edKey, nil
}

var (
	_ privateKey = (*rsa.PrivateKey)(nil)
	_ privateKey = (*ecdsa.PrivateKey)(nil)
	_ privateKey = ed25519.PrivateKey(nil)
)
