package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authtoken"
	"github.com/sirupsen/logrus"
)

// ErrTokenMissing is passed to the ErrorHandler when the request carries no
// bearer token.
var ErrTokenMissing = errors.New("bearer token missing")

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler answers 401 for missing or invalid tokens and for
// subjects that resolve to no entity, and 500 otherwise.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTokenMissing),
		errors.Is(err, authtoken.ErrTokenInvalid),
		errors.Is(err, authtoken.ErrEntityNotFound):
		w.Header().Set("WWW-Authenticate", `Bearer`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Option configures a guard.
type Option func(*options)

type options struct {
	errorHandler ErrorHandler
	verifyOpts   []authtoken.VerifyOption
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

// WithVerifyOptions passes opts to every Engine.Verify call.
func WithVerifyOptions(opts ...authtoken.VerifyOption) Option {
	return func(o *options) {
		o.verifyOpts = append(o.verifyOpts, opts...)
	}
}

func buildOptions(opts []Option) options {
	o := options{errorHandler: DefaultErrorHandler}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type tokenContextKey struct{}

type entityContextKey struct{}

// TokenFromContext returns the token verified by a guard.
func TokenFromContext(ctx context.Context) (*authtoken.AuthToken, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(*authtoken.AuthToken)
	return tok, ok
}

// EntityFromContext returns the entity resolved by Authenticate.
func EntityFromContext[E any](ctx context.Context) (E, bool) {
	entity, ok := ctx.Value(entityContextKey{}).(E)
	return entity, ok
}

// RequireToken returns middleware that verifies the bearer token for
// entityType and stores it in the request context.
func RequireToken(engine *authtoken.Engine, entityType authtoken.EntityType, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := verifyRequest(engine, r, entityType, o)
			if err != nil {
				o.errorHandler(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey{}, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate returns middleware that verifies the bearer token for
// entityType, resolves its entity with resolver and stores both in the
// request context.
func Authenticate[E any](engine *authtoken.Engine, entityType authtoken.EntityType, resolver authtoken.Resolver[E], opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := verifyRequest(engine, r, entityType, o)
			if err != nil {
				o.errorHandler(w, r, err)
				return
			}

			entity, err := authtoken.ResolveEntity(r.Context(), tok, resolver)
			if err != nil {
				engine.Logger().WithFields(logrus.Fields{
					"entity_type": string(entityType),
					"path":        r.URL.Path,
				}).WithError(err).Debug("authtoken: entity resolution failed")
				o.errorHandler(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey{}, tok)
			ctx = context.WithValue(ctx, entityContextKey{}, entity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyRequest(engine *authtoken.Engine, r *http.Request, entityType authtoken.EntityType, o options) (*authtoken.AuthToken, error) {
	if engine == nil {
		return nil, authtoken.ErrConfiguration
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, ErrTokenMissing
	}

	return engine.Verify(token, entityType, o.verifyOpts...)
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
