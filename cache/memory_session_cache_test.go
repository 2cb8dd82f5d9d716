package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/smtp-sso/domain"
)

func TestMemorySessionCacheRoundTrip(t *testing.T) {
	c := NewMemorySessionCache()
	defer c.Close()
	ctx := context.Background()

	session := &domain.Session{
		ID:          "s1",
		UserID:      "user-1",
		AccessToken: "access-token-value",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, c.Set(ctx, session))

	got, ok := c.GetByAccessToken(ctx, "access-token-value")
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID)

	_, ok = c.GetByAccessToken(ctx, "unknown-token")
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "access-token-value"))
	_, ok = c.GetByAccessToken(ctx, "access-token-value")
	assert.False(t, ok)
}

func TestMemorySessionCacheSkipsExpired(t *testing.T) {
	c := NewMemorySessionCache()
	defer c.Close()
	ctx := context.Background()

	session := &domain.Session{
		ID:          "s2",
		AccessToken: "stale-token",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	require.NoError(t, c.Set(ctx, session))

	_, ok := c.GetByAccessToken(ctx, "stale-token")
	assert.False(t, ok, "expired sessions are never cached")
}
