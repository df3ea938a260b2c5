package gemini

import (
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
)

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type fileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type generationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (g *generateResponse) joinedText() string {
	if len(g.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range g.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (g *generateResponse) text() (string, error) {
	if len(g.Candidates) == 0 {
		if g.PromptFeedback != nil && g.PromptFeedback.BlockReason != "" {
			return "", &blockedError{reason: g.PromptFeedback.BlockReason}
		}
		return "", ErrNoCandidates
	}
	return g.joinedText(), nil
}

func (g *generateResponse) finishReason() string {
	if len(g.Candidates) == 0 {
		return ""
	}
	return g.Candidates[0].FinishReason
}

func (g *generateResponse) usage() backend.Usage {
	return backend.Usage{
		PromptTokens:     g.UsageMetadata.PromptTokenCount,
		CompletionTokens: g.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      g.UsageMetadata.TotalTokenCount,
	}
}

type blockedError struct {
	reason string
}

func (e *blockedError) Error() string {
	return "gemini blocked the prompt: " + e.reason
}

func (e *blockedError) Unwrap() error {
	return ErrNoCandidates
}

// file mirrors the Files API resource.
type file struct {
	Name      string `json:"name"`
	URI       string `json:"uri"`
	MIMEType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes,string,omitempty"`
	State     string `json:"state"`
}

func (f *file) toRemote() *backend.RemoteFile {
	state := backend.FileState(f.State)
	if state == "" {
		state = backend.FileStateUnspecified
	}

	return &backend.RemoteFile{
		Name:      f.Name,
		URI:       f.URI,
		MIMEType:  f.MIMEType,
		State:     state,
		SizeBytes: f.SizeBytes,
	}
}
