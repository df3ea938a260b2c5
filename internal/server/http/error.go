package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/model"
	"github.com/ekisa-team/toolguide/internal/service"
)

// errImageRequired is the message returned for non-image uploads.
const errImageRequired = "File uploaded is not an image."

// toHTTPError maps a service error onto a problem response. Vendor failures
// become 500 with "<operation> error: <cause>" as detail.
func toHTTPError(operation string, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrToolNotRecognized):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, backend.ErrUnauthorized):
		return huma.Error401Unauthorized(err.Error())
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, backend.ErrNotFound),
		errors.Is(err, backend.ErrNotCapable):
		slog.Warn("Service is not routable", "operation", operation, "error", err)
		return huma.Error503ServiceUnavailable(fmt.Sprintf("%s is not available", operation))
	case errors.Is(err, context.Canceled):
		return huma.Error500InternalServerError(fmt.Sprintf("%s error: request cancelled", operation))
	default:
		slog.Error("Request failed", "operation", operation, "error", err)
		return huma.Error500InternalServerError(fmt.Sprintf("%s error: %v", operation, err))
	}
}
