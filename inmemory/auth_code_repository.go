// Package inmemory provides ttlcache backed repository implementations.
// They back the memory storage mode and the test suite; entries evaporate
// shortly after their records expire, mirroring the lazy-expiry contract.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"go.pilab.hu/smtp-sso/domain"
)

// graceTTL keeps expired records around briefly so lookups still observe
// them as expired rather than absent. Lazy expiry stays the correctness
// mechanism; eviction is hygiene.
const graceTTL = time.Hour

// AuthCodeRepository is an in-memory domain.AuthCodeRepository.
type AuthCodeRepository struct {
	mu    sync.Mutex
	codes *ttlcache.Cache[string, *domain.AuthCode]
}

func NewAuthCodeRepository() *AuthCodeRepository {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.AuthCode](),
	)
	go cache.Start()

	return &AuthCodeRepository{codes: cache}
}

func (r *AuthCodeRepository) SaveAuthCode(_ context.Context, authCode *domain.AuthCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.codes.Has(authCode.Code) {
		return domain.ErrDuplicate
	}
	authCode.CreatedAt = time.Now().UTC()

	cp := *authCode
	r.codes.Set(authCode.Code, &cp, time.Until(authCode.ExpiresAt)+graceTTL)
	return nil
}

// ConsumeAuthCode performs the find-unused-and-mark-used step under a single
// lock, matching the conditional-update semantics of the Mongo repository.
func (r *AuthCodeRepository) ConsumeAuthCode(_ context.Context, code, clientID string) (*domain.AuthCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.codes.Get(code)
	if item == nil {
		return nil, domain.ErrNotFound
	}
	stored := item.Value()
	if stored.ClientID != clientID || stored.Used {
		return nil, domain.ErrNotFound
	}

	before := *stored
	stored.Used = true
	return &before, nil
}

func (r *AuthCodeRepository) DeleteExpiredAuthCodes(_ context.Context) error {
	r.codes.DeleteExpired()
	return nil
}

// Close stops the cache cleanup goroutine.
func (r *AuthCodeRepository) Close() {
	r.codes.Stop()
}
