package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"go.pilab.hu/smtp-sso/domain"
)

// SessionRepository is an in-memory domain.SessionRepository. Sessions are
// cached by id with secondary token indexes maintained under the lock.
type SessionRepository struct {
	mu       sync.Mutex
	sessions *ttlcache.Cache[string, *domain.Session]
	byAccess map[string]string // access token -> session id
	byFresh  map[string]string // refresh token + client id -> session id
}

func NewSessionRepository() *SessionRepository {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)
	go cache.Start()

	return &SessionRepository{
		sessions: cache,
		byAccess: make(map[string]string),
		byFresh:  make(map[string]string),
	}
}

func refreshKey(refreshToken, clientID string) string {
	return refreshToken + "\x00" + clientID
}

func (r *SessionRepository) SaveSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAccess[session.AccessToken]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.byFresh[refreshKey(session.RefreshToken, session.ClientID)]; ok {
		return domain.ErrDuplicate
	}
	session.CreatedAt = time.Now().UTC()

	cp := *session
	r.sessions.Set(session.ID, &cp, time.Until(session.RefreshExpiresAt)+graceTTL)
	r.byAccess[session.AccessToken] = session.ID
	r.byFresh[refreshKey(session.RefreshToken, session.ClientID)] = session.ID
	return nil
}

func (r *SessionRepository) GetSessionByAccessToken(_ context.Context, accessToken string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byAccess[accessToken]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.getLocked(id, func(s *domain.Session) bool { return s.AccessToken == accessToken })
}

func (r *SessionRepository) GetSessionByRefreshToken(_ context.Context, refreshToken, clientID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byFresh[refreshKey(refreshToken, clientID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.getLocked(id, func(s *domain.Session) bool { return s.RefreshToken == refreshToken })
}

// getLocked resolves a session id and re-checks the token match so stale
// index entries left behind by cache eviction read as not-found.
func (r *SessionRepository) getLocked(id string, match func(*domain.Session) bool) (*domain.Session, error) {
	item := r.sessions.Get(id)
	if item == nil || !match(item.Value()) {
		return nil, domain.ErrNotFound
	}
	cp := *item.Value()
	return &cp, nil
}

func (r *SessionRepository) UpdateAccessToken(_ context.Context, sessionID, accessToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.sessions.Get(sessionID)
	if item == nil {
		return domain.ErrNotFound
	}
	session := item.Value()

	delete(r.byAccess, session.AccessToken)
	session.AccessToken = accessToken
	session.ExpiresAt = expiresAt
	r.byAccess[accessToken] = sessionID
	return nil
}

func (r *SessionRepository) DeleteExpiredSessions(_ context.Context) error {
	r.sessions.DeleteExpired()
	return nil
}

// Close stops the cache cleanup goroutine.
func (r *SessionRepository) Close() {
	r.sessions.Stop()
}
