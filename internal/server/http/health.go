package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type (
	HealthResponseDTO struct {
		Status    string            `json:"status"`
		Version   string            `json:"version"`
		Providers []string          `json:"providers"`
		Routes    map[string]string `json:"routes"`
	}

	HealthOutput struct {
		Body HealthResponseDTO
	}
)

// HealthHandler reports liveness and routing.
type HealthHandler struct {
	reporter HealthReporter
	version  string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(api huma.API, reporter HealthReporter, version string) *HealthHandler {
	h := &HealthHandler{reporter: reporter, version: version}

	huma.Register(api, huma.Operation{
		OperationID:   "healthz",
		Method:        http.MethodGet,
		Path:          "/healthz",
		Summary:       "Liveness and routing status",
		Tags:          []string{"system"},
		DefaultStatus: http.StatusOK,
	}, h.handleHealth)

	return h
}

func (h *HealthHandler) handleHealth(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{
		Body: HealthResponseDTO{
			Status:    "ok",
			Version:   h.version,
			Providers: []string{},
			Routes:    map[string]string{},
		},
	}

	if h.reporter == nil {
		return out, nil
	}

	for _, p := range h.reporter.Providers() {
		out.Body.Providers = append(out.Body.Providers, string(p))
	}
	out.Body.Routes = h.reporter.Routes()

	return out, nil
}
