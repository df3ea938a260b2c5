package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const describePrompt = "Describe this image in two or three sentences. " +
	"If it shows a tool, name the tool and mention its visible features."

const identifyPrompt = "Identify the hand or power tool shown in this image. " +
	"Reply with the tool's common name, a one-paragraph description of what it is used for, " +
	"and your confidence between 0 and 1. If no tool is visible, return an empty tool_name. " +
	"Write the description in %s."

var identifySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tool_name":   map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"confidence":  map[string]any{"type": "number"},
	},
	"required": []string{"tool_name", "description", "confidence"},
}

// ToolIdentification is what the vision model recognized in a photo.
type ToolIdentification struct {
	ToolName    string  `json:"tool_name"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Language    string  `json:"language"`
}

// Vision is a service abstraction for image understanding.
type Vision struct {
	backends *backend.Registry
	router   Router
}

// NewVision creates a new Vision service.
func NewVision(backends *backend.Registry, router Router) *Vision {
	return &Vision{
		backends: backends,
		router:   router,
	}
}

// DescribeImage returns a short description of an image.
func (s *Vision) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: image", ErrEmptyInput)
	}

	g, m, err := resolveGenerator(s.backends, s.router, config.ServiceVision)
	if err != nil {
		return "", err
	}

	resp, err := g.Generate(ctx, &backend.GenerateRequest{
		Model: m.Name(),
		Parts: []backend.Part{
			backend.TextPart(describePrompt),
			backend.InlinePart(image, mimeType),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// IdentifyTool names the tool in an image.
func (s *Vision) IdentifyTool(ctx context.Context, image []byte, mimeType, language string) (*ToolIdentification, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image", ErrEmptyInput)
	}

	language = NormalizeLanguage(language)

	g, m, err := resolveGenerator(s.backends, s.router, config.ServiceVision)
	if err != nil {
		return nil, err
	}

	resp, err := g.Generate(ctx, &backend.GenerateRequest{
		Model: m.Name(),
		Parts: []backend.Part{
			backend.TextPart(fmt.Sprintf(identifyPrompt, languageNames[language])),
			backend.InlinePart(image, mimeType),
		},
		ResponseSchema: identifySchema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to identify tool: %w", err)
	}

	var out ToolIdentification
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &out); err != nil {
		return nil, fmt.Errorf("failed to decode tool identification: %w", err)
	}

	out.ToolName = strings.TrimSpace(out.ToolName)
	if out.ToolName == "" {
		return nil, ErrToolNotRecognized
	}
	out.Language = language

	return &out, nil
}

// stripCodeFence removes a ```json fence some models wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
