package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/toolguide/internal/service"
)

type (
	IdentifyResponseDTO struct {
		Identification *service.ToolIdentification   `json:"identification"`
		Research       *service.ToolResearchResponse `json:"research,omitempty"`
	}
)

type (
	// IdentifyInput carries an image "file" plus optional "language" and
	// "max_results" fields.
	IdentifyInput struct {
		body formBody
	}

	IdentifyOutput struct {
		Body IdentifyResponseDTO
	}

	ToolResearchInput struct {
		Body service.ToolResearchRequest
	}

	ToolResearchOutput struct {
		Body *service.ToolResearchResponse
	}
)

// ToolsHandler handles tool identification and tool research.
type ToolsHandler struct {
	vision   VisionService
	research ResearchService
}

// NewToolsHandler creates a new ToolsHandler instance.
func NewToolsHandler(api huma.API, vision VisionService, research ResearchService, maxBody int64) *ToolsHandler {
	h := &ToolsHandler{vision: vision, research: research}

	huma.Register(api, huma.Operation{
		OperationID:   "identify-tool",
		Method:        http.MethodPost,
		Path:          "/api/tools/identify",
		Summary:       "Identify a tool from a photo and research how to use it",
		Tags:          []string{"tools"},
		Security:      bearerAuth,
		MaxBodyBytes:  maxBody,
		DefaultStatus: http.StatusOK,
		RequestBody:   formRequestBody(map[string]*huma.Schema{
			"file":        fileField("Photo of the tool"),
			"language":    textField("Reply language: en, fr or pdg"),
			"max_results": textField("Number of search results, 1 to 20"),
		}, "file"),
	}, h.handleIdentify)

	huma.Register(api, huma.Operation{
		OperationID:   "tool-research",
		Method:        http.MethodPost,
		Path:          "/api/tools/research",
		Summary:       "Find guides and tutorial videos for a tool",
		Tags:          []string{"tools"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusOK,
	}, h.handleToolResearch)

	return h
}

// Resolve reads the form body.
func (i *IdentifyInput) Resolve(ctx huma.Context) []error {
	i.body.parse(ctx)
	return nil
}

func (h *ToolsHandler) handleIdentify(ctx context.Context, input *IdentifyInput) (*IdentifyOutput, error) {
	defer input.body.cleanup()

	form, err := input.body.get()
	if err != nil {
		return nil, err
	}

	fh := formFile(form, "file")
	if fh == nil {
		return nil, huma.Error400BadRequest("file is required")
	}

	image, mimeType, err := readImage(fh)
	if err != nil {
		return nil, err
	}

	maxResults, err := parseMaxResults(formValue(form, "max_results"))
	if err != nil {
		return nil, err
	}

	id, err := h.vision.IdentifyTool(ctx, image, mimeType, formValue(form, "language"))
	if err != nil {
		return nil, toHTTPError("Tool identification", err)
	}

	out := &IdentifyOutput{Body: IdentifyResponseDTO{Identification: id}}

	research, err := h.research.ToolResearch(ctx, service.ToolResearchRequest{
		ToolName:        id.ToolName,
		ToolDescription: id.Description,
		Language:        id.Language,
		MaxResults:      maxResults,
	})
	if err != nil {
		slog.Warn("Tool research failed after identification", "tool_name", id.ToolName, "error", err)
		return out, nil
	}
	out.Body.Research = research

	return out, nil
}

func (h *ToolsHandler) handleToolResearch(ctx context.Context, input *ToolResearchInput) (*ToolResearchOutput, error) {
	res, err := h.research.ToolResearch(ctx, input.Body)
	if err != nil {
		return nil, toHTTPError("Tool research", err)
	}

	return &ToolResearchOutput{Body: res}, nil
}
