package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ttsToolName tags audio generated for assistant replies.
const ttsToolName = "chat_message"

type (
	TTSResponseDTO struct {
		URL             string   `json:"url"`
		DurationSeconds *float64 `json:"duration_seconds"`
	}
)

type (
	// TTSInput carries a "text" field and an optional "language".
	TTSInput struct {
		body formBody
	}

	TTSOutput struct {
		Body TTSResponseDTO
	}
)

// TTSHandler handles HTTP requests for speech synthesis.
type TTSHandler struct {
	service TTSService
}

// NewTTSHandler creates a new TTSHandler instance.
func NewTTSHandler(api huma.API, service TTSService) *TTSHandler {
	h := &TTSHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "generate-tts",
		Method:        http.MethodPost,
		Path:          "/api/generate-tts",
		Summary:       "Synthesize speech and return a public audio URL",
		Tags:          []string{"audio"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusOK,
		RequestBody:   formRequestBody(map[string]*huma.Schema{
			"text":     textField("Text to speak"),
			"language": textField("Language of the text"),
		}, "text"),
	}, h.handleGenerate)

	return h
}

// Resolve reads the form body.
func (i *TTSInput) Resolve(ctx huma.Context) []error {
	i.body.parse(ctx)
	return nil
}

func (h *TTSHandler) handleGenerate(ctx context.Context, input *TTSInput) (*TTSOutput, error) {
	defer input.body.cleanup()

	form, err := input.body.get()
	if err != nil {
		return nil, err
	}

	text, err := requireValue(form, "text")
	if err != nil {
		return nil, err
	}

	var userID string
	if user, ok := UserFromContext(ctx); ok {
		userID = user.ID
	}

	res, err := h.service.Generate(ctx, text, ttsToolName, userID)
	if err != nil {
		return nil, toHTTPError("TTS generation", err)
	}

	return &TTSOutput{Body: TTSResponseDTO{URL: res.URL, DurationSeconds: res.DurationSeconds}}, nil
}
