package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type (
	MeResponseDTO struct {
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}

	MeOutput struct {
		Body MeResponseDTO
	}
)

// AuthHandler exposes the authenticated caller.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(api huma.API) *AuthHandler {
	h := &AuthHandler{}

	huma.Register(api, huma.Operation{
		OperationID:   "get-me",
		Method:        http.MethodGet,
		Path:          "/api/me",
		Summary:       "Verify the access token and return the caller",
		Tags:          []string{"auth"},
		Security:      bearerAuth,
		DefaultStatus: http.StatusOK,
	}, h.handleMe)

	return h
}

func (h *AuthHandler) handleMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("not authenticated")
	}

	return &MeOutput{
		Body: MeResponseDTO{
			UserID:  user.ID,
			Email:   user.Email,
			Message: "Backend authentication successful",
		},
	}, nil
}
