package service

import (
	"fmt"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/model"
)

// Router picks the model that serves a request pipeline.
type Router interface {
	Resolve(service config.Service) (*model.ModelInstance, error)
}

func resolveGenerator(backends *backend.Registry, router Router, svc config.Service) (backend.Generator, *model.ModelInstance, error) {
	m, err := router.Resolve(svc)
	if err != nil {
		return nil, nil, err
	}

	g, err := backends.Generator(m.Provider)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", m.ID, err)
	}

	return g, m, nil
}
