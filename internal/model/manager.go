package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

// Manager keeps the service routing table in sync with the configuration.
type Manager struct {
	backends *backend.Registry
	registry *Registry
	mu       sync.RWMutex // Use RWMutex for better read concurrency
}

// NewManager creates a new Manager that routes to the given backends.
func NewManager(backends *backend.Registry) *Manager {
	return &Manager{
		backends: backends,
		registry: NewRegistry(),
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// Resolve returns the model currently routed for service.
func (m *Manager) Resolve(service config.Service) (*ModelInstance, error) {
	return m.Registry().Resolve(service)
}

// LoadModelsFromConfig builds a new routing table from config and swaps it
// in. On error the previous table stays active.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error {
	registry := NewRegistry()

	for _, service := range config.AllServices() {
		for _, modelID := range cfg.Services.Assignment(service).Models {
			if err := ctx.Err(); err != nil {
				return err
			}

			modelConfig, ok := cfg.Models[modelID]
			if !ok {
				slog.Warn("Model not found in config", "model_id", modelID, "service", service)
				continue
			}

			if _, exists := registry.Get(modelID); !exists {
				instance, err := m.newInstance(modelID, modelConfig)
				if err != nil {
					return err
				}
				registry.Set(instance)
			}

			registry.Assign(service, modelID)
		}
	}

	m.mu.Lock()
	m.registry = registry
	m.mu.Unlock()

	for _, instance := range registry.List() {
		slog.Info("Model loaded into registry",
			"model_id", instance.ID,
			"provider", instance.Provider,
			"name", instance.Name(),
			"status", instance.Status,
		)
	}

	return nil
}

func (m *Manager) newInstance(id string, cfg config.ModelConfig) (*ModelInstance, error) {
	instance := NewModelInstance(&cfg, id)

	switch instance.Provider {
	case backend.ProviderGemini, backend.ProviderYarnGPT, backend.ProviderTavily, backend.ProviderSupabase:
	default:
		return nil, fmt.Errorf("%w: model %s uses %q", ErrUnknownProvider, id, cfg.Provider)
	}

	if m.backends == nil || !m.backends.Has(instance.Provider) {
		instance.SetError(fmt.Errorf("%w: %s", backend.ErrNotFound, instance.Provider))
		instance.SetStatus(ModelStatusUnavailable)
		slog.Warn("Model backend is not configured", "model_id", id, "provider", instance.Provider)
		return instance, nil
	}

	instance.SetStatus(ModelStatusReady)
	return instance, nil
}

// Providers lists the backends requests can be routed to.
func (m *Manager) Providers() []backend.Provider {
	if m.backends == nil {
		return nil
	}
	return m.backends.Providers()
}

// Routes maps every service to the model currently serving it. Services
// without a ready model are omitted.
func (m *Manager) Routes() map[string]string {
	registry := m.Registry()

	routes := make(map[string]string)
	for _, service := range config.AllServices() {
		if instance, err := registry.Resolve(service); err == nil {
			routes[string(service)] = instance.ID
		}
	}
	return routes
}
