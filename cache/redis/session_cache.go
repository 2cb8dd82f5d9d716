// Package redis provides a Redis backed session cache for deployments where
// multiple server instances share the auth-guard fast path.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go.pilab.hu/smtp-sso/cache"
	"go.pilab.hu/smtp-sso/domain"
)

// SessionCache implements cache.SessionCache using Redis.
type SessionCache struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewSessionCache creates a new [SessionCache] instance.
func NewSessionCache(client *redis.Client, prefix string) *SessionCache {
	return &SessionCache{client: client, prefix: prefix}
}

func (c *SessionCache) redisKey(accessToken string) string {
	return fmt.Sprintf("%s:session:%s", c.prefix, cache.HashToken(accessToken))
}

// Set stores the session as JSON with the access token expiry as the key TTL.
func (c *SessionCache) Set(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, c.redisKey(session.AccessToken), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

// GetByAccessToken retrieves a cached session. Any Redis or decode failure
// reads as a miss so the caller falls through to the store.
func (c *SessionCache) GetByAccessToken(ctx context.Context, accessToken string) (*domain.Session, bool) {
	payload, err := c.client.Get(ctx, c.redisKey(accessToken)).Bytes()
	if err != nil {
		return nil, false
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false
	}
	return &session, true
}

// Delete evicts the cached session for an access token.
func (c *SessionCache) Delete(ctx context.Context, accessToken string) error {
	return c.client.Del(ctx, c.redisKey(accessToken)).Err()
}

// Close closes the underlying Redis client.
func (c *SessionCache) Close() error {
	return c.client.Close()
}
