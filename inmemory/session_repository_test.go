package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/smtp-sso/domain"
)

func newSession(id, access, refresh string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id,
		UserID:           "user-1",
		ClientID:         "client-1",
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        domain.TokenTypeBearer,
		Scope:            "smtp:write",
		ExpiresAt:        now.Add(time.Hour),
		RefreshExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

func TestSessionLookups(t *testing.T) {
	repo := NewSessionRepository()
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, newSession("s1", "access-1", "refresh-1")))

	byAccess, err := repo.GetSessionByAccessToken(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", byAccess.ID)

	byRefresh, err := repo.GetSessionByRefreshToken(ctx, "refresh-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", byRefresh.ID)

	_, err = repo.GetSessionByRefreshToken(ctx, "refresh-1", "other-client")
	assert.ErrorIs(t, err, domain.ErrNotFound, "refresh token is bound to the issuing client")
}

func TestUpdateAccessTokenInPlace(t *testing.T) {
	repo := NewSessionRepository()
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, newSession("s2", "old-access", "refresh-2")))

	newExpiry := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateAccessToken(ctx, "s2", "new-access", newExpiry))

	_, err := repo.GetSessionByAccessToken(ctx, "old-access")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.GetSessionByAccessToken(ctx, "new-access")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", got.RefreshToken, "refresh token is not rotated")

	assert.ErrorIs(t, repo.UpdateAccessToken(ctx, "missing", "x", newExpiry), domain.ErrNotFound)
}
