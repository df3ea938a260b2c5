package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ekisa-team/toolguide/internal/config"
)

// Registry stores routable model instances and their service assignments.
type Registry struct {
	models      map[string]*ModelInstance
	assignments map[config.Service][]string
	mu          sync.RWMutex
}

// NewRegistry creates a new model registry.
func NewRegistry() *Registry {
	return &Registry{
		models:      make(map[string]*ModelInstance),
		assignments: make(map[config.Service][]string),
	}
}

// Set adds a model instance to the registry.
func (r *Registry) Set(instance *ModelInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[instance.ID] = instance
}

// Get returns the model instance with the given ID.
func (r *Registry) Get(id string) (*ModelInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.models[id]
	return instance, ok
}

// List returns all model instances sorted by ID.
func (r *Registry) List() []*ModelInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*ModelInstance, 0, len(r.models))
	for _, instance := range r.models {
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })

	return instances
}

// Delete deletes the model instance with the given ID.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.models, id)
}

// Assign routes service to the model with the given ID.
func (r *Registry) Assign(service config.Service, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.assignments[service] {
		if existing == id {
			return
		}
	}
	r.assignments[service] = append(r.assignments[service], id)
}

// Resolve returns the ready model assigned to service with the lowest order.
func (r *Registry) Resolve(service config.Service) (*ModelInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *ModelInstance
	for _, id := range r.assignments[service] {
		instance, ok := r.models[id]
		if !ok || instance.Status != ModelStatusReady {
			continue
		}

		if best == nil ||
			instance.Config.Order < best.Config.Order ||
			(instance.Config.Order == best.Config.Order && instance.ID < best.ID) {
			best = instance
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no ready model for service %s", ErrNotFound, service)
	}

	return best, nil
}
