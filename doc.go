// Package authtoken issues and verifies JWTs for typed entities.
//
// An [Engine] is built once from a [Config] through [Builder.Build] and is
// safe for concurrent use afterwards. Every token belongs to an [EntityType]
// ("user", "admin", ...). The engine derives two things per entity type:
//
//   - the claims to add when issuing: exp from the [Lifetime] policy, aud from
//     the configured [AudienceFunc], and optionally a random jti;
//   - the checks to run when verifying, see [VerifyOptions]. Callers can
//     override them per call with [VerifyOption] values.
//
// Caller payload always wins over computed claims on Issue. Every Verify
// failure is a [*TokenError] matching [ErrTokenInvalid].
//
// Verified tokens are turned into application entities with [ResolveEntity]
// and a [Resolver] bound to a repository, and issued from a login with an
// [Authenticator]. [AuthToken] marshals to {"jwt": "<token>"} so handlers can
// return it directly.
//
// # Sub-packages
//
//   - jwt: the signing codec (HMAC, RSA, RSA-PSS, ECDSA, EdDSA).
//   - password: argon2id hashing for Authenticator.
//   - repository/redisrepo: a Redis-backed entity and credential store.
//   - middleware: net/http bearer authentication and a token endpoint.
//   - envconfig: Config loading from the environment.
//   - metrics/export/otel: OpenTelemetry export of engine counters.
package authtoken
