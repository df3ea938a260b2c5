package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

// Supported reply languages.
const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"
	LanguagePidgin  = "pdg"
)

var languageNames = map[string]string{
	LanguageEnglish: "English",
	LanguageFrench:  "French",
	LanguagePidgin:  "Nigerian Pidgin",
}

// NormalizeLanguage maps a language code to a supported one, defaulting to English.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := languageNames[code]; ok {
		return code
	}
	return LanguageEnglish
}

const chatSystemPrompt = `You are ToolGuide, an assistant that helps people identify hand and power tools and use them safely.
Give practical, step-by-step answers and always mention the relevant safety precautions.
Reply in the language the user writes in. You support English (en), French (fr) and Nigerian Pidgin (pdg).`

const chatJSONInstruction = `Return your answer as JSON with the fields "response" (your reply) and "language" (one of "en", "fr", "pdg").`

var chatSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"response": map[string]any{"type": "string"},
		"language": map[string]any{"type": "string", "enum": []string{LanguageEnglish, LanguageFrench, LanguagePidgin}},
	},
	"required": []string{"response", "language"},
}

// ChatInput is a single-turn chat message with an optional image.
type ChatInput struct {
	Message   string
	Image     []byte
	ImageMIME string
}

// ChatResult is the assistant's reply.
type ChatResult struct {
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is a service abstraction for the tool assistant conversation.
type Chat struct {
	backends *backend.Registry
	router   Router
	vision   *Vision
	now      func() time.Time
}

// NewChat creates a new Chat service.
func NewChat(backends *backend.Registry, router Router, vision *Vision) *Chat {
	return &Chat{
		backends: backends,
		router:   router,
		vision:   vision,
		now:      time.Now,
	}
}

// Chat answers a message, describing an attached image first.
func (s *Chat) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	message, err := s.prepareMessage(ctx, in)
	if err != nil {
		return nil, err
	}

	g, m, err := resolveGenerator(s.backends, s.router, config.ServiceChat)
	if err != nil {
		return nil, err
	}

	resp, err := g.Generate(ctx, &backend.GenerateRequest{
		Model:          m.Name(),
		System:         chatSystemPrompt + "\n" + chatJSONInstruction,
		Parts:          []backend.Part{backend.TextPart(message)},
		ResponseSchema: chatSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate chat reply: %w", err)
	}

	content, language := parseStructuredReply(resp.Text)

	return &ChatResult{
		Content:   content,
		Language:  language,
		Timestamp: s.now(),
	}, nil
}

// ChatStream answers a message as a stream of plain-text chunks.
func (s *Chat) ChatStream(ctx context.Context, in ChatInput) (<-chan backend.StreamChunk, error) {
	message, err := s.prepareMessage(ctx, in)
	if err != nil {
		return nil, err
	}

	m, err := s.router.Resolve(config.ServiceChat)
	if err != nil {
		return nil, err
	}

	g, err := s.backends.StreamingGenerator(m.Provider)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}

	return g.GenerateStream(ctx, &backend.GenerateRequest{
		Model:  m.Name(),
		System: chatSystemPrompt,
		Parts:  []backend.Part{backend.TextPart(message)},
	})
}

func (s *Chat) prepareMessage(ctx context.Context, in ChatInput) (string, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return "", fmt.Errorf("%w: message", ErrEmptyInput)
	}

	if len(in.Image) == 0 || s.vision == nil {
		return message, nil
	}

	description, err := s.vision.DescribeImage(ctx, in.Image, in.ImageMIME)
	if err != nil {
		return "", err
	}

	if description == "" {
		slog.Debug("Image description is empty, sending message alone")
		return message, nil
	}

	return fmt.Sprintf(
		"The user has uploaded an image with the following description: '%s'.\nThe user's message is: '%s'",
		description, message,
	), nil
}

type structuredReply struct {
	Response string `json:"response"`
	Language string `json:"language"`
}

// parseStructuredReply falls back to the raw text in English when the model
// did not honor JSON mode.
func parseStructuredReply(text string) (string, string) {
	var reply structuredReply
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &reply); err != nil || reply.Response == "" {
		return strings.TrimSpace(text), LanguageEnglish
	}

	return reply.Response, NormalizeLanguage(reply.Language)
}
