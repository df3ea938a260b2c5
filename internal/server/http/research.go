package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/toolguide/internal/service"
)

type (
	ResearchInput struct {
		Body service.ResearchRequest
	}

	ResearchOutput struct {
		Body *service.ResearchResponse
	}
)

// ResearchHandler handles free-form web research.
type ResearchHandler struct {
	service ResearchService
}

// NewResearchHandler creates a new ResearchHandler instance.
func NewResearchHandler(api huma.API, service ResearchService) *ResearchHandler {
	h := &ResearchHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "research",
		Method:        http.MethodPost,
		Path:          "/api/research",
		Summary:       "Search the web and summarize the answer",
		Tags:          []string{"research"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusOK,
	}, h.handleResearch)

	return h
}

func (h *ResearchHandler) handleResearch(ctx context.Context, input *ResearchInput) (*ResearchOutput, error) {
	res, err := h.service.Research(ctx, input.Body)
	if err != nil {
		return nil, toHTTPError("Research", err)
	}

	return &ResearchOutput{Body: res}, nil
}
