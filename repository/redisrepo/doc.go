// Package redisrepo stores entities and login credentials in Redis for the
// authtoken engine.
//
// Entities are JSON blobs under <prefix>:entity:<id>. Credentials are hashes
// under <prefix>:cred:<identifier> with the fields "sub" and "password_hash".
// A Store implements authtoken.IDLookup and authtoken.CredentialLookup.
//
// Limiter counts login attempts per identifier under <prefix>:login:<identifier>
// and implements authtoken.LoginLimiter. The throttle decision is taken from
// the INCR result, so concurrent attempts cannot exceed the budget.
package redisrepo
