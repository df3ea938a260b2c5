package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	apiVersion     = "v1beta"
)

// ErrNoCandidates is returned when the model answers without any content.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// Backend talks to the Gemini REST API for generation and file storage.
type Backend struct {
	apiKey  string
	baseURL string
	client  *backend.HTTPClient
}

// NewBackend creates a new Gemini backend.
func NewBackend(cfg config.GeminiConfig) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", backend.ErrNotConfigured)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Backend{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  backend.NewHTTPClient(backend.ProviderGemini, cfg.Timeout),
	}, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderGemini
}

// Generate runs a single generateContent call.
func (b *Backend) Generate(ctx context.Context, req *backend.GenerateRequest) (*backend.GenerateResponse, error) {
	payload, err := toRequest(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var out generateResponse
	endpoint := b.modelURL(req.Model, "generateContent", nil)
	if err := b.client.DoJSON(ctx, http.MethodPost, endpoint, nil, payload, &out, "gemini.generate"); err != nil {
		return nil, err
	}

	text, err := out.text()
	if err != nil {
		return nil, err
	}

	return &backend.GenerateResponse{
		Text:  text,
		Usage: out.usage(),
		Metadata: &backend.ResponseMetadata{
			Provider:        b.Provider(),
			Model:           req.Model,
			Timestamp:       time.Now(),
			DurationSeconds: time.Since(start).Seconds(),
			BackendSpecific: map[string]any{
				"finish_reason": out.finishReason(),
			},
		},
	}, nil
}

// GenerateStream runs streamGenerateContent and forwards text deltas.
func (b *Backend) GenerateStream(ctx context.Context, req *backend.GenerateRequest) (<-chan backend.StreamChunk, error) {
	payload, err := toRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	endpoint := b.modelURL(req.Model, "streamGenerateContent", url.Values{"alt": {"sse"}})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := b.client.Do(httpReq, "gemini.stream")
	if err != nil {
		return nil, err
	}

	ch := make(chan backend.StreamChunk)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		send := func(chunk backend.StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}

			var event generateResponse
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				send(backend.StreamChunk{Error: fmt.Errorf("failed to decode gemini stream event: %w", err), Done: true})
				return
			}

			if delta := event.joinedText(); delta != "" {
				if !send(backend.StreamChunk{Text: delta}) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			send(backend.StreamChunk{Error: fmt.Errorf("failed to read gemini stream: %w", err), Done: true})
			return
		}

		send(backend.StreamChunk{Done: true})
	}()

	return ch, nil
}

// Close cleans up resources. Gemini does not hold any.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) modelURL(model, method string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", b.apiKey)

	model = strings.TrimPrefix(model, "models/")
	return fmt.Sprintf("%s/%s/models/%s:%s?%s", b.baseURL, apiVersion, url.PathEscape(model), method, query.Encode())
}

func toRequest(req *backend.GenerateRequest) (*generateRequest, error) {
	if req == nil || req.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	parts := make([]part, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch {
		case p.FileURI != "":
			parts = append(parts, part{FileData: &fileData{MIMEType: p.MIMEType, FileURI: p.FileURI}})
		case len(p.Data) > 0:
			parts = append(parts, part{InlineData: &inlineData{MIMEType: p.MIMEType, Data: p.Data}})
		case p.Text != "":
			parts = append(parts, part{Text: p.Text})
		}
	}

	if len(parts) == 0 {
		return nil, errors.New("gemini: request has no content")
	}

	out := &generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}

	if req.System != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}

	if req.ResponseSchema != nil || req.Temperature != nil {
		out.GenerationConfig = &generationConfig{Temperature: req.Temperature}
		if req.ResponseSchema != nil {
			out.GenerationConfig.ResponseMIMEType = "application/json"
			out.GenerationConfig.ResponseSchema = req.ResponseSchema
		}
	}

	return out, nil
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gemini response: %w", err)
	}
	return nil
}
