package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error definitions for the backend package.
var (
	ErrNotFound          = errors.New("backend not found in registry")
	ErrAlreadyRegistered = errors.New("backend is already registered in the registry")
	ErrNotCapable        = errors.New("backend does not support the requested capability")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotConfigured     = errors.New("backend is not configured")
)

// APIError is a non-2xx answer from a vendor.
type APIError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API failed with status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// IsRetryable reports whether err is worth another attempt. Vendor 4xx
// answers and authorization failures are final, anything else (transport
// errors, 5xx, malformed bodies) is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotConfigured) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	return true
}
