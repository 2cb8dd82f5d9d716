package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"go.pilab.hu/smtp-sso/domain"
)

// MemorySessionCache implements SessionCache using ttlcache.
type MemorySessionCache struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionCache creates a new in-memory session cache with
// automatic cleanup.
func NewMemorySessionCache() *MemorySessionCache {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)
	go cache.Start()

	return &MemorySessionCache{cache: cache}
}

// Set implements SessionCache.Set.
func (c *MemorySessionCache) Set(_ context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	cp := *session
	c.cache.Set(HashToken(session.AccessToken), &cp, ttl)
	return nil
}

// GetByAccessToken implements SessionCache.GetByAccessToken.
func (c *MemorySessionCache) GetByAccessToken(_ context.Context, accessToken string) (*domain.Session, bool) {
	item := c.cache.Get(HashToken(accessToken))
	if item == nil {
		return nil, false
	}
	cp := *item.Value()
	return &cp, true
}

// Delete implements SessionCache.Delete.
func (c *MemorySessionCache) Delete(_ context.Context, accessToken string) error {
	c.cache.Delete(HashToken(accessToken))
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemorySessionCache) Close() error {
	c.cache.Stop()
	return nil
}
