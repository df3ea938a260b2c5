package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestRecordVendorCall(t *testing.T) {
	before := testutil.ToFloat64(vendorCalls.WithLabelValues("tavily", "search", "error"))

	RecordVendorCall("tavily", "search", errors.New("boom"), 0.2)
	RecordVendorCall("tavily", "search", nil, 0.1)

	assert.Equal(t, before+1, testutil.ToFloat64(vendorCalls.WithLabelValues("tavily", "search", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(vendorCalls.WithLabelValues("tavily", "search", "success")), 1.0)
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/chat", "200"))
	RecordHTTPRequest("POST", "/api/chat", "200", 0.05)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/chat", "200")))
}

func TestRecordRetry(t *testing.T) {
	before := testutil.ToFloat64(vendorRetries.WithLabelValues("gemini.get_file"))
	RecordRetry("gemini.get_file")
	assert.Equal(t, before+1, testutil.ToFloat64(vendorRetries.WithLabelValues("gemini.get_file")))
}

func TestStartSpan_NoProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "vendor.call", attribute.String("provider", "gemini"))
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("failed"))
}
