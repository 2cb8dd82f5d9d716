package domain

import "time"

// TokenTypeBearer is the only token type the server issues.
const TokenTypeBearer = "Bearer"

// Session represents an issued access/refresh token pair.
// Stored in MongoDB, with the session cache holding a short-lived copy
// keyed by access token for quick guard lookups.
type Session struct {
	ID               string    `bson:"_id"                json:"id"`
	UserID           string    `bson:"user_id"            json:"user_id"`
	ClientID         string    `bson:"client_id"          json:"client_id"`
	AccessToken      string    `bson:"access_token"       json:"access_token"`
	RefreshToken     string    `bson:"refresh_token"      json:"refresh_token"`
	TokenType        string    `bson:"token_type"         json:"token_type"`
	Scope            string    `bson:"scope"              json:"scope"`
	ExpiresAt        time.Time `bson:"expires_at"         json:"expires_at"`
	RefreshExpiresAt time.Time `bson:"refresh_expires_at" json:"refresh_expires_at"`
	CreatedAt        time.Time `bson:"created_at"         json:"created_at"`
}

// AccessExpired reports whether the access token is past its lifetime.
func (s *Session) AccessExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RefreshExpired reports whether the refresh token is past its lifetime.
func (s *Session) RefreshExpired(now time.Time) bool {
	return !s.RefreshExpiresAt.After(now)
}
