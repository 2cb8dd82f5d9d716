package domain

import "time"

// AuthCode represents a single-use OAuth 2.0 authorization code.
type AuthCode struct {
	Code        string    `bson:"code"         json:"code"`         // Unique authorization code
	ClientID    string    `bson:"client_id"    json:"client_id"`    // Client application ID
	UserID      string    `bson:"user_id"      json:"user_id"`      // User who authorized the request
	RedirectURI string    `bson:"redirect_uri" json:"redirect_uri"` // Exact URI the code was issued for
	Scope       string    `bson:"scope"        json:"scope"`        // Authorized scopes
	ExpiresAt   time.Time `bson:"expires_at"   json:"expires_at"`   // Expiration timestamp
	Used        bool      `bson:"used"         json:"used"`         // Whether code has been exchanged
	CreatedAt   time.Time `bson:"created_at"   json:"created_at"`   // Creation timestamp

	CodeChallenge       string `bson:"code_challenge,omitempty"        json:"code_challenge,omitempty"`
	CodeChallengeMethod string `bson:"code_challenge_method,omitempty" json:"code_challenge_method,omitempty"`
}

// Expired reports whether the code is past its lifetime at the given instant.
// Expiry is enforced lazily at lookup time, there is no active cleanup.
func (c *AuthCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
