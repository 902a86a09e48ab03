package authtoken

// VerifyOptions selects the checks run when a token is verified.
type VerifyOptions struct {
	Audience         string
	VerifyAudience   bool
	VerifyExpiration bool
	Algorithm        string
}

// VerifyOption overrides a computed VerifyOptions field. Options are applied
// in order after the policy defaults, so the last one wins.
type VerifyOption func(*VerifyOptions)

// SkipAudienceCheck disables audience verification.
func SkipAudienceCheck() VerifyOption {
	return func(o *VerifyOptions) {
		o.VerifyAudience = false
	}
}

// RequireAudience enables audience verification against aud.
func RequireAudience(aud string) VerifyOption {
	return func(o *VerifyOptions) {
		o.Audience = aud
		o.VerifyAudience = true
	}
}

// SkipExpirationCheck accepts tokens whose exp is in the past.
func SkipExpirationCheck() VerifyOption {
	return func(o *VerifyOptions) {
		o.VerifyExpiration = false
	}
}

// RequireExpirationCheck rejects expired tokens even for entity types
// without a configured lifetime.
func RequireExpirationCheck() VerifyOption {
	return func(o *VerifyOptions) {
		o.VerifyExpiration = true
	}
}

// WithAlgorithm restricts verification to alg.
func WithAlgorithm(alg string) VerifyOption {
	return func(o *VerifyOptions) {
		o.Algorithm = alg
	}
}
