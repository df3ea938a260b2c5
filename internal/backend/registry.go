package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry manages backend instances.
type Registry struct {
	backends map[Provider]Backend
	mu       sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Provider]Backend),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[b.Provider()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, b.Provider())
	}

	r.backends[b.Provider()] = b
	return nil
}

// Get retrieves a backend by provider.
func (r *Registry) Get(provider Provider) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[provider]
	return b, ok
}

// Has reports whether provider is registered.
func (r *Registry) Has(provider Provider) bool {
	_, ok := r.Get(provider)
	return ok
}

// Providers lists registered providers in sorted order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.backends))
	for p := range r.backends {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Generator retrieves a backend that can generate text.
func (r *Registry) Generator(provider Provider) (Generator, error) {
	return capability[Generator](r, provider)
}

// StreamingGenerator retrieves a backend that supports streaming.
func (r *Registry) StreamingGenerator(provider Provider) (StreamingGenerator, error) {
	return capability[StreamingGenerator](r, provider)
}

// FileStore retrieves a backend that holds remote files.
func (r *Registry) FileStore(provider Provider) (FileStore, error) {
	return capability[FileStore](r, provider)
}

// Synthesizer retrieves a text-to-speech backend.
func (r *Registry) Synthesizer(provider Provider) (Synthesizer, error) {
	return capability[Synthesizer](r, provider)
}

// Searcher retrieves a web search backend.
func (r *Registry) Searcher(provider Provider) (Searcher, error) {
	return capability[Searcher](r, provider)
}

// ObjectStore retrieves a storage backend.
func (r *Registry) ObjectStore(provider Provider) (ObjectStore, error) {
	return capability[ObjectStore](r, provider)
}

// Authenticator retrieves an auth backend.
func (r *Registry) Authenticator(provider Provider) (Authenticator, error) {
	return capability[Authenticator](r, provider)
}

func capability[T any](r *Registry, provider Provider) (T, error) {
	var zero T

	b, ok := r.Get(provider)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}

	c, ok := b.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotCapable, provider)
	}

	return c, nil
}

// Close closes all registered backends and returns every error encountered.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Provider(), err))
		}
	}

	return errors.Join(errs...)
}
