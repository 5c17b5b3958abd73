package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records HTTP server metrics. Route labels must be normalized
// (no raw identifiers) to bound cardinality.
type HTTPMetrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
	RecordRequestBodyTooLarge(ctx context.Context)
}

// httpMetrics implements HTTPMetrics.
type httpMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	bodyTooLarge    metric.Int64Counter
}

// NewHTTPMetrics creates HTTPMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewHTTPMetrics(meter metric.Meter) (HTTPMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameHTTPRequests,
		metric.WithDescription("Total HTTP requests by method, route and status class"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		MetricNameHTTPRequestDuration,
		metric.WithDescription("HTTP request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http request duration histogram: %w", err)
	}

	bodyTooLarge, err := meter.Int64Counter(
		MetricNameHTTPBodyTooLarge,
		metric.WithDescription("Total requests rejected for exceeding the body size limit"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http body too large counter: %w", err)
	}

	return &httpMetrics{
		requests:        requests,
		requestDuration: requestDuration,
		bodyTooLarge:    bodyTooLarge,
	}, nil
}

func (h *httpMetrics) RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
		attribute.String(AttrStatusClass, statusClass),
	)
	h.requests.Add(ctx, 1, attrs)
	h.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (h *httpMetrics) RecordRequestBodyTooLarge(ctx context.Context) {
	h.bodyTooLarge.Add(ctx, 1)
}
