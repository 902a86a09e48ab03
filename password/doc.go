// Package password hashes and verifies login secrets with Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the parameters from the stored hash, so hashes created
// with older parameters keep verifying after the configuration changes.
package password
