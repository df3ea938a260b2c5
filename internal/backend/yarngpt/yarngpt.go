package yarngpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const (
	defaultBaseURL = "https://yarngpt.ai"
	defaultVoice   = "Idera"

	// chunkSize is the read size used while draining the audio stream.
	chunkSize = 8 << 10
)

// ErrEmptyAudio is returned when the vendor answers 200 with no audio.
var ErrEmptyAudio = errors.New("yarngpt returned empty audio")

// Backend implements backend.Synthesizer on the YarnGPT TTS API.
type Backend struct {
	apiKey  string
	baseURL string
	voice   string
	client  *backend.HTTPClient
}

// NewBackend creates a new YarnGPT backend.
func NewBackend(cfg config.YarnGPTConfig) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: yarngpt api key is empty", backend.ErrNotConfigured)
	}

	b := &Backend{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		voice:   cfg.Voice,
		client:  backend.NewHTTPClient(backend.ProviderYarnGPT, cfg.Timeout),
	}
	if b.baseURL == "" {
		b.baseURL = defaultBaseURL
	}
	if b.voice == "" {
		b.voice = defaultVoice
	}

	return b, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderYarnGPT
}

type ttsRequest struct {
	Text           string `json:"text"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Synthesize sends text to the TTS endpoint and buffers the streamed audio.
func (b *Backend) Synthesize(ctx context.Context, req *backend.SpeechRequest) (*backend.SpeechResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("yarngpt: text is empty")
	}

	voice := req.Voice
	if voice == "" {
		voice = b.voice
	}

	payload, err := json.Marshal(ttsRequest{Text: req.Text, Voice: voice, ResponseFormat: req.Format})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/v1/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create tts request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq, "yarngpt.tts")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var audio bytes.Buffer
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(&audio, resp.Body, buf); err != nil {
		return nil, fmt.Errorf("failed to read tts stream: %w", err)
	}

	if audio.Len() == 0 {
		return nil, ErrEmptyAudio
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = "audio/mpeg"
	}

	return &backend.SpeechResponse{
		Audio:       audio.Bytes(),
		ContentType: contentType,
	}, nil
}

// Close cleans up resources. YarnGPT does not hold any.
func (b *Backend) Close() error {
	return nil
}
