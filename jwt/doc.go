// Package jwt signs and verifies compact JWTs for the authtoken engine.
//
// It owns algorithm selection and key parsing; claim construction and the
// decision of which checks to run belong to the caller, which passes them in
// through [DecodeOptions].
package jwt
