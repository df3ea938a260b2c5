package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ekisa-team/toolguide/internal/telemetry"
)

// maxErrorBody caps how much of a failed response is kept in an APIError.
const maxErrorBody = 4 << 10

// HTTPClient wraps an http.Client with vendor instrumentation and
// status-code handling shared by every REST backend.
type HTTPClient struct {
	provider Provider
	client   *http.Client
}

// NewHTTPClient creates a client for provider. A zero timeout means none.
func NewHTTPClient(provider Provider, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying transport client, mostly for tests.
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.client = hc
	return c
}

// Do sends req and turns non-2xx answers into *APIError. On success the
// caller owns the response body.
func (c *HTTPClient) Do(req *http.Request, operation string) (*http.Response, error) {
	ctx, span := telemetry.StartSpan(req.Context(), "vendor."+operation,
		attribute.String("vendor.provider", string(c.provider)),
		attribute.String("http.method", req.Method),
	)

	start := time.Now()
	resp, err := c.client.Do(req.WithContext(ctx))
	if err == nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		err = c.apiError(resp)
		resp = nil
	}

	telemetry.RecordVendorCall(string(c.provider), operation, err, time.Since(start).Seconds())
	telemetry.EndSpan(span, err)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DoJSON sends in as a JSON body (when non-nil) and decodes the answer
// into out (when non-nil).
func (c *HTTPClient) DoJSON(ctx context.Context, method, url string, headers map[string]string, in, out any, operation string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req, operation)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	return nil
}

func (c *HTTPClient) apiError(resp *http.Response) error {
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(data)),
	}
}
