package authtoken

import "encoding/json"

// AuthToken is a signed token together with its claims. It is produced by
// Engine.Issue or Engine.Verify and is immutable.
type AuthToken struct {
	token      string
	payload    Claims
	entityType EntityType
}

// Token returns the compact serialized token.
func (t *AuthToken) Token() string {
	return t.token
}

// Payload returns a copy of the claims.
func (t *AuthToken) Payload() Claims {
	return t.payload.clone()
}

// EntityType returns the entity type the token was issued or verified for.
func (t *AuthToken) EntityType() EntityType {
	return t.entityType
}

type wireToken struct {
	JWT string `json:"jwt"`
}

// MarshalJSON renders {"jwt": "<token>"}. Claims are never serialized.
func (t *AuthToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireToken{JWT: t.token})
}
