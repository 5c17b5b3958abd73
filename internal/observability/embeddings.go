package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding pipeline metrics (queue, worker pool).
// Methods accept ctx for future exemplar support.
type EmbeddingMetrics interface {
	RecordEnqueued(ctx context.Context, count int64)
	RecordDropped(ctx context.Context, reason string)
	RecordOutcome(ctx context.Context, status string)
	RecordDuration(ctx context.Context, duration time.Duration, status string)
}

// embeddingMetrics implements EmbeddingMetrics.
type embeddingMetrics struct {
	enqueued metric.Int64Counter
	dropped  metric.Int64Counter
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	enqueued, err := meter.Int64Counter(
		MetricNameEmbeddingsEnqueued,
		metric.WithDescription("Total movies enqueued for embedding"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embeddings enqueued counter: %w", err)
	}

	dropped, err := meter.Int64Counter(
		MetricNameEmbeddingsDropped,
		metric.WithDescription("Total movies dropped from the embedding pipeline by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embeddings dropped counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		MetricNameEmbeddingOutcomes,
		metric.WithDescription("Total embedding attempt outcomes by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Embedding attempt duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	return &embeddingMetrics{
		enqueued: enqueued,
		dropped:  dropped,
		outcomes: outcomes,
		duration: duration,
	}, nil
}

func (e *embeddingMetrics) RecordEnqueued(ctx context.Context, count int64) {
	e.enqueued.Add(ctx, count)
}

func (e *embeddingMetrics) RecordDropped(ctx context.Context, reason string) {
	reason = NormalizeStatus(reason, AllowedEmbeddingDropReasons)
	e.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (e *embeddingMetrics) RecordOutcome(ctx context.Context, status string) {
	status = NormalizeStatus(status, AllowedEmbeddingOutcomeStatus)
	e.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (e *embeddingMetrics) RecordDuration(ctx context.Context, duration time.Duration, status string) {
	status = NormalizeStatus(status, AllowedEmbeddingOutcomeStatus)
	e.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}
