package otel

import "github.com/MrEthical07/authtoken"

type counterDef struct {
	id   authtoken.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{id: authtoken.MetricTokenIssued, name: "authtoken_issued_total", help: "Tokens issued."},
	{id: authtoken.MetricIssueFailure, name: "authtoken_issue_failure_total", help: "Issue attempts that failed to sign."},
	{id: authtoken.MetricTokenVerified, name: "authtoken_verified_total", help: "Tokens that passed verification."},
	{id: authtoken.MetricVerifyFailure, name: "authtoken_verify_failure_total", help: "Tokens rejected by verification."},
	{id: authtoken.MetricVerifyExpired, name: "authtoken_verify_expired_total", help: "Tokens rejected as expired."},
	{id: authtoken.MetricVerifyAudienceMismatch, name: "authtoken_verify_audience_mismatch_total", help: "Tokens rejected for audience mismatch."},
	{id: authtoken.MetricVerifySignatureInvalid, name: "authtoken_verify_signature_invalid_total", help: "Tokens rejected for an invalid signature."},
	{id: authtoken.MetricVerifyMalformed, name: "authtoken_verify_malformed_total", help: "Tokens rejected as malformed."},
	{id: authtoken.MetricLoginSuccess, name: "authtoken_login_success_total", help: "Successful credential logins."},
	{id: authtoken.MetricLoginFailure, name: "authtoken_login_failure_total", help: "Failed credential logins."},
}

const latencyName = "authtoken_verify_latency_seconds"

// Upper bounds of the engine latency buckets, in seconds.
var latencyBoundSuffix = [8]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}

func cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(out); i++ {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
