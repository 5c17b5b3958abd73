package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecommendationMetrics records retrieval and ranking metrics.
// Methods accept ctx for future exemplar support.
type RecommendationMetrics interface {
	RecordRequest(ctx context.Context, status string)
	RecordRequestDuration(ctx context.Context, duration time.Duration, status string)
	RecordCandidateCount(ctx context.Context, count int64)
	RecordSimilarityScore(ctx context.Context, score float64)
}

// recommendationMetrics implements RecommendationMetrics.
type recommendationMetrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	candidateCount  metric.Int64Histogram
	similarityScore metric.Float64Histogram
}

// NewRecommendationMetrics creates RecommendationMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRecommendationMetrics(meter metric.Meter) (RecommendationMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameRecommendationCount,
		metric.WithDescription("Total recommendation requests by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendation requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		MetricNameRecommendationLatency,
		metric.WithDescription("Recommendation request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendation duration histogram: %w", err)
	}

	candidateCount, err := meter.Int64Histogram(
		MetricNameCandidateCount,
		metric.WithDescription("Candidates returned by vector retrieval per request"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidate count histogram: %w", err)
	}

	similarityScore, err := meter.Float64Histogram(
		MetricNameSimilarityScore,
		metric.WithDescription("Similarity scores of retrieved candidates"),
	)
	if err != nil {
		return nil, fmt.Errorf("create similarity score histogram: %w", err)
	}

	return &recommendationMetrics{
		requests:        requests,
		requestDuration: requestDuration,
		candidateCount:  candidateCount,
		similarityScore: similarityScore,
	}, nil
}

func (r *recommendationMetrics) RecordRequest(ctx context.Context, status string) {
	status = NormalizeStatus(status, AllowedRecommendationStatus)
	r.requests.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (r *recommendationMetrics) RecordRequestDuration(ctx context.Context, duration time.Duration, status string) {
	status = NormalizeStatus(status, AllowedRecommendationStatus)
	r.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (r *recommendationMetrics) RecordCandidateCount(ctx context.Context, count int64) {
	r.candidateCount.Record(ctx, count)
}

func (r *recommendationMetrics) RecordSimilarityScore(ctx context.Context, score float64) {
	r.similarityScore.Record(ctx, score)
}
