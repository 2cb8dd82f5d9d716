package cache

import (
	"context"

	"go.pilab.hu/smtp-sso/domain"
)

// SessionCache is a read-through cache in front of the session store, keyed
// by access token. The auth guard hits it on every bearer-protected request;
// the store remains the source of truth and the cache is best-effort.
//
//go:generate mockgen -source=$GOFILE -destination=../mocks/mock_$GOPACKAGE/mock_$GOFILE -package=mock_$GOPACKAGE
type SessionCache interface {
	// Set caches a session until its access token expiry.
	Set(ctx context.Context, session *domain.Session) error

	// GetByAccessToken returns the cached session, or false on a miss.
	// Expired entries read as misses.
	GetByAccessToken(ctx context.Context, accessToken string) (*domain.Session, bool)

	// Delete evicts the entry for an access token, used when the token is
	// rotated on refresh.
	Delete(ctx context.Context, accessToken string) error

	// Close releases cache resources.
	Close() error
}
