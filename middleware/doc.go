// Package middleware exposes net/http adapters for authtoken.Engine.
//
// # Guards
//
//   - [RequireToken]: verifies the bearer token only, no repository call.
//   - [Authenticate]: verifies the bearer token and resolves the entity it
//     refers to through an authtoken.Resolver.
//
// Both read the Authorization header, call Engine.Verify and inject the result
// into the request context. Rejections go through an [ErrorHandler].
//
// [TokenHandler] is the matching login endpoint: it exchanges an identifier
// and password for a token through an authtoken.Authenticator.
//
// This package translates HTTP semantics into Engine calls. It does not parse
// or sign JWTs itself.
package middleware
