package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type (
	TranscriptionResponseDTO struct {
		Text      string    `json:"text"`
		Timestamp time.Time `json:"timestamp"`
	}
)

type (
	TranscribeInput struct {
		RawBody huma.MultipartFormFiles[struct {
			File huma.FormFile `form:"file" contentType:"audio/*,application/octet-stream" required:"true"`
		}]
	}

	TranscribeOutput struct {
		Body TranscriptionResponseDTO
	}
)

// STTHandler handles HTTP requests for speech-to-text.
type STTHandler struct {
	service STTService
	now     func() time.Time
}

// NewSTTHandler creates a new STTHandler instance.
func NewSTTHandler(api huma.API, service STTService, maxBody int64) *STTHandler {
	h := &STTHandler{service: service, now: time.Now}

	huma.Register(api, huma.Operation{
		OperationID:   "transcribe",
		Method:        http.MethodPost,
		Path:          "/api/transcribe",
		Summary:       "Transcribe an audio recording",
		Tags:          []string{"audio"},
		Security:      bearerAuth,
		MaxBodyBytes:  maxBody,
		DefaultStatus: http.StatusOK,
	}, h.handleTranscribe)

	return h
}

func (h *STTHandler) handleTranscribe(ctx context.Context, input *TranscribeInput) (*TranscribeOutput, error) {
	file := input.RawBody.Data().File

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read uploaded file", err)
	}

	text, err := h.service.Transcribe(ctx, audio, file.ContentType)
	if err != nil {
		return nil, toHTTPError("Transcription", err)
	}

	return &TranscribeOutput{Body: TranscriptionResponseDTO{Text: text, Timestamp: h.now().UTC()}}, nil
}
