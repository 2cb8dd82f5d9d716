package inmemory

import (
	"context"
	"sync"
	"time"

	"go.pilab.hu/smtp-sso/domain"
)

// SMTPSettingsRepository is an in-memory domain.SMTPSettingsRepository.
// Settings have no expiry, so a plain map is enough here.
type SMTPSettingsRepository struct {
	mu       sync.RWMutex
	settings map[string]*domain.SMTPSettings // keyed by settings id
}

func NewSMTPSettingsRepository() *SMTPSettingsRepository {
	return &SMTPSettingsRepository{settings: make(map[string]*domain.SMTPSettings)}
}

func (r *SMTPSettingsRepository) UpsertSettings(_ context.Context, s *domain.SMTPSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if s.IsDefault {
		for _, existing := range r.settings {
			if existing.UserID == s.UserID {
				existing.IsDefault = false
			}
		}
	}
	cp := *s
	cp.UpdatedAt = now
	if existing, ok := r.settings[s.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	r.settings[s.ID] = &cp
	return nil
}

func (r *SMTPSettingsRepository) GetDefaultByUserID(_ context.Context, userID string) (*domain.SMTPSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.settings {
		if s.UserID == userID && s.IsDefault {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
