package model

import (
	"time"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

// ModelType is the type of a model.
type ModelType string

const (
	// ModelTypeLLM is the type of a large language model.
	ModelTypeLLM ModelType = "llm"

	// ModelTypeVision is the type of a vision model.
	ModelTypeVision ModelType = "vision"

	// ModelTypeSTT is the type of a speech-to-text model.
	ModelTypeSTT ModelType = "stt"

	// ModelTypeTTS is the type of a text-to-speech model.
	ModelTypeTTS ModelType = "tts"

	// ModelTypeSearch is the type of a web search engine.
	ModelTypeSearch ModelType = "search"
)

// ModelStatus is the current routing status of a model.
type ModelStatus string

const (
	// ModelStatusReady indicates that the model's backend is registered.
	ModelStatusReady ModelStatus = "ready"

	// ModelStatusUnavailable indicates that the model's backend is not
	// configured, so requests are never routed to it.
	ModelStatusUnavailable ModelStatus = "unavailable"
)

// ModelInstance represents a routable vendor model.
type ModelInstance struct {
	Config   *config.ModelConfig `json:"config"`
	LoadedAt *time.Time          `json:"loaded_at,omitempty"`
	ID       string              `json:"id"`
	Provider backend.Provider    `json:"provider"`
	Status   ModelStatus         `json:"status"`
	Error    string              `json:"error,omitempty"`
}

// NewModelInstance creates a new model instance.
func NewModelInstance(cfg *config.ModelConfig, id string) *ModelInstance {
	return &ModelInstance{
		ID:       id,
		Config:   cfg,
		Provider: backend.Provider(cfg.Provider),
		Status:   ModelStatusUnavailable,
	}
}

// Name returns the vendor-side model name.
func (mi *ModelInstance) Name() string {
	return mi.Config.Name
}

// SetStatus sets the status of the model instance.
func (mi *ModelInstance) SetStatus(status ModelStatus) {
	mi.Status = status
	if status == ModelStatusReady {
		now := time.Now()
		mi.LoadedAt = &now
	}
}

// SetError sets the error associated with the model instance.
func (mi *ModelInstance) SetError(err error) {
	mi.Error = err.Error()
}
