package authtoken

import (
	"encoding/json"
	"math"
	"strconv"
)

// Standard claim names the engine reads or writes.
const (
	ClaimExpiration = "exp"
	ClaimAudience   = "aud"
	ClaimSubject    = "sub"
	ClaimTokenID    = "jti"
)

// Claims is a token payload. Decoded numbers are float64, as produced by
// encoding/json.
type Claims map[string]any

// Subject returns the sub claim as an identifier string. Integral numeric
// subjects are formatted without a fractional part.
func (c Claims) Subject() (string, bool) {
	switch v := c[ClaimSubject].(type) {
	case string:
		return v, v != ""
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func (c Claims) clone() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
