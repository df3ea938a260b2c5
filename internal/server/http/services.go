package http

import (
	"context"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/service"
)

// ChatService answers chat messages.
type ChatService interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
	ChatStream(ctx context.Context, in service.ChatInput) (<-chan backend.StreamChunk, error)
}

// VisionService recognizes tools in photos.
type VisionService interface {
	IdentifyTool(ctx context.Context, image []byte, mimeType, language string) (*service.ToolIdentification, error)
}

// ResearchService searches the web.
type ResearchService interface {
	ToolResearch(ctx context.Context, req service.ToolResearchRequest) (*service.ToolResearchResponse, error)
	Research(ctx context.Context, req service.ResearchRequest) (*service.ResearchResponse, error)
}

// TTSService turns text into stored audio.
type TTSService interface {
	Generate(ctx context.Context, text, toolName, userID string) (*service.SpeechResult, error)
}

// STTService transcribes audio.
type STTService interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// HealthReporter describes which vendors and models are wired.
type HealthReporter interface {
	Providers() []backend.Provider
	Routes() map[string]string
}
