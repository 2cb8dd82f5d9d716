package domain

import (
	"context"
	"crypto/subtle"
)

// Client is a registered OAuth client application.
type Client struct {
	ID     string `json:"id"`
	Secret string `json:"-"`
	Name   string `json:"name,omitempty"`
}

// ClientRegistry resolves client applications by id. The server currently
// ships a single static client from configuration; the interface keeps the
// lookup injectable so a persistent registry can be dropped in without
// touching the handlers.
type ClientRegistry interface {
	// ResolveClient returns the client for the given id, or ErrNotFound.
	ResolveClient(ctx context.Context, clientID string) (*Client, error)

	// ValidateSecret checks client credentials. The comparison must not
	// leak timing information about the stored secret.
	ValidateSecret(ctx context.Context, clientID, clientSecret string) (*Client, error)
}

// StaticClientRegistry is a ClientRegistry over a fixed set of clients.
type StaticClientRegistry struct {
	clients map[string]*Client
}

// NewStaticClientRegistry builds a registry from the given clients.
func NewStaticClientRegistry(clients ...*Client) *StaticClientRegistry {
	m := make(map[string]*Client, len(clients))
	for _, c := range clients {
		m[c.ID] = c
	}
	return &StaticClientRegistry{clients: m}
}

func (r *StaticClientRegistry) ResolveClient(_ context.Context, clientID string) (*Client, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (r *StaticClientRegistry) ValidateSecret(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	c, err := r.ResolveClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(c.Secret), []byte(clientSecret)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return c, nil
}
