package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by every repository implementation. Handlers map
// these onto the OAuth error taxonomy; anything else propagates as
// server_error with the underlying message attached.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// AuthCodeRepository persists single-use authorization codes.
type AuthCodeRepository interface {
	// SaveAuthCode inserts a new code. Returns ErrDuplicate when the code
	// value is already present (the unique index is the uniqueness check;
	// generation does not pre-check).
	SaveAuthCode(ctx context.Context, code *AuthCode) error

	// ConsumeAuthCode atomically finds the unused code issued to clientID
	// and marks it used, returning the record as it was before the update.
	// Exactly one of any number of concurrent callers succeeds; the rest
	// get ErrNotFound. Expiry is NOT checked here, callers compare
	// ExpiresAt themselves so an expired code still burns on first touch.
	ConsumeAuthCode(ctx context.Context, code, clientID string) (*AuthCode, error)

	// DeleteExpiredAuthCodes removes codes past their expiry. Storage
	// hygiene only; correctness relies on the lazy expiry checks.
	DeleteExpiredAuthCodes(ctx context.Context) error
}

// SessionRepository persists issued token pairs.
type SessionRepository interface {
	// SaveSession inserts a new session. Returns ErrDuplicate on an
	// access or refresh token collision.
	SaveSession(ctx context.Context, session *Session) error

	// GetSessionByAccessToken looks a session up by its access token.
	GetSessionByAccessToken(ctx context.Context, accessToken string) (*Session, error)

	// GetSessionByRefreshToken looks a session up by refresh token; the
	// clientID filter makes a token valid only for the client it was
	// issued to.
	GetSessionByRefreshToken(ctx context.Context, refreshToken, clientID string) (*Session, error)

	// UpdateAccessToken swaps the access token and its expiry in place.
	// The refresh token is deliberately not rotated. Returns ErrNotFound
	// when the session row is absent.
	UpdateAccessToken(ctx context.Context, sessionID, accessToken string, expiresAt time.Time) error

	// DeleteExpiredSessions removes sessions whose refresh token has
	// expired. Storage hygiene only.
	DeleteExpiredSessions(ctx context.Context) error
}

// SMTPSettingsRepository persists per-user SMTP credentials.
type SMTPSettingsRepository interface {
	// UpsertSettings stores the settings, replacing the user's existing
	// default when settings.IsDefault is set.
	UpsertSettings(ctx context.Context, settings *SMTPSettings) error

	// GetDefaultByUserID returns the user's default settings or ErrNotFound.
	GetDefaultByUserID(ctx context.Context, userID string) (*SMTPSettings, error)
}
