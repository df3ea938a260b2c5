package supabase

import (
	"fmt"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

// Backend implements backend.Authenticator and backend.ObjectStore on a
// Supabase project.
type Backend struct {
	url        string
	anonKey    string
	serviceKey string
	jwtSecret  []byte
	client     *backend.HTTPClient
}

// NewBackend creates a new Supabase backend.
func NewBackend(cfg config.SupabaseConfig) (*Backend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase url is empty", backend.ErrNotConfigured)
	}
	if cfg.AnonKey == "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: supabase needs an anon key or a jwt secret", backend.ErrNotConfigured)
	}

	b := &Backend{
		url:        strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		client:     backend.NewHTTPClient(backend.ProviderSupabase, cfg.Timeout),
	}
	if cfg.JWTSecret != "" {
		b.jwtSecret = []byte(cfg.JWTSecret)
	}

	return b, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderSupabase
}

// Close cleans up resources. Supabase does not hold any.
func (b *Backend) Close() error {
	return nil
}
