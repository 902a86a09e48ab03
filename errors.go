package authtoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is matched (via errors.Is) by every verification failure.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrEntityNotFound is returned when a token subject resolves to no entity.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrConfiguration wraps configuration problems found at build or encode time.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidCredentials is returned by login issuance for an unknown identifier or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginThrottled is returned by login issuance while an identifier is throttled.
	ErrLoginThrottled = errors.New("too many login attempts")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
)

// Verification failure codes carried by TokenError.
const (
	CodeTokenMalformed    = "token_malformed"
	CodeInvalidSignature  = "invalid_signature"
	CodeTokenUnverifiable = "token_unverifiable"
	CodeTokenExpired      = "token_expired"
	CodeTokenNotYetValid  = "token_not_yet_valid"
	CodeInvalidAudience   = "invalid_audience"
	CodeInvalidClaims     = "invalid_claims"
	CodeVerificationError = "verification_error"
)

// TokenError is the concrete error returned by Engine.Verify. It always
// matches ErrTokenInvalid and unwraps to the codec error that caused it.
type TokenError struct {
	Code string
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "token invalid (" + e.Code + "): " + e.Err.Error()
	}
	return "token invalid (" + e.Code + ")"
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTokenInvalid.
func (e *TokenError) Is(target error) bool {
	return target == ErrTokenInvalid
}

func newTokenError(err error) *TokenError {
	return &TokenError{Code: classify(err), Err: err}
}

// classify maps golang-jwt sentinels onto verification codes. Order matters:
// expiry and audience failures are also ErrTokenInvalidClaims.
func classify(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return CodeTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return CodeInvalidSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return CodeTokenUnverifiable
	case errors.Is(err, jwt.ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return CodeTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return CodeInvalidAudience
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return CodeInvalidClaims
	default:
		return CodeVerificationError
	}
}
