package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "toolguide"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	vendorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_calls_total",
		Help:      "Calls made to vendor APIs, by provider, operation and outcome.",
	}, []string{"provider", "operation", "outcome"})

	vendorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vendor_call_duration_seconds",
		Help:      "Vendor API call latency.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"provider", "operation"})

	vendorRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_retries_total",
		Help:      "Retried vendor calls.",
	}, []string{"operation"})

	transcriptionWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transcription_file_wait_seconds",
		Help:      "Time spent waiting for an uploaded audio file to become active.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 30, 45, 60},
	})
)

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordVendorCall records one vendor round trip.
func RecordVendorCall(provider, operation string, err error, seconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	vendorCalls.WithLabelValues(provider, operation, outcome).Inc()
	vendorDuration.WithLabelValues(provider, operation).Observe(seconds)
}

// RecordRetry counts a retried attempt of operation.
func RecordRetry(operation string) {
	vendorRetries.WithLabelValues(operation).Inc()
}

// RecordTranscriptionWait records how long an upload took to become usable.
func RecordTranscriptionWait(seconds float64) {
	transcriptionWait.Observe(seconds)
}
