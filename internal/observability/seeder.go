package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SeederMetrics records catalog ingestion metrics.
// Methods accept ctx for future exemplar support.
type SeederMetrics interface {
	RecordRun(ctx context.Context, status string)
	RecordMoviesFetched(ctx context.Context, count int64)
	RecordMoviesSkipped(ctx context.Context, count int64)
	RecordRunDuration(ctx context.Context, duration time.Duration, status string)
}

// seederMetrics implements SeederMetrics.
type seederMetrics struct {
	runs          metric.Int64Counter
	moviesFetched metric.Int64Counter
	moviesSkipped metric.Int64Counter
	runDuration   metric.Float64Histogram
}

// NewSeederMetrics creates SeederMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewSeederMetrics(meter metric.Meter) (SeederMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	runs, err := meter.Int64Counter(
		MetricNameSeederRuns,
		metric.WithDescription("Total seeder runs by terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create seeder runs counter: %w", err)
	}

	moviesFetched, err := meter.Int64Counter(
		MetricNameSeederMoviesFetched,
		metric.WithDescription("Total movies fetched and written by the seeder"),
	)
	if err != nil {
		return nil, fmt.Errorf("create seeder movies fetched counter: %w", err)
	}

	moviesSkipped, err := meter.Int64Counter(
		MetricNameSeederMoviesSkipped,
		metric.WithDescription("Total movies skipped by the seeder (quality gate, dedup, failures)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create seeder movies skipped counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		MetricNameSeederRunDuration,
		metric.WithDescription("Seeder run duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create seeder run duration histogram: %w", err)
	}

	return &seederMetrics{
		runs:          runs,
		moviesFetched: moviesFetched,
		moviesSkipped: moviesSkipped,
		runDuration:   runDuration,
	}, nil
}

func (s *seederMetrics) RecordRun(ctx context.Context, status string) {
	status = NormalizeStatus(status, AllowedSeederRunStatus)
	s.runs.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (s *seederMetrics) RecordMoviesFetched(ctx context.Context, count int64) {
	s.moviesFetched.Add(ctx, count)
}

func (s *seederMetrics) RecordMoviesSkipped(ctx context.Context, count int64) {
	s.moviesSkipped.Add(ctx, count)
}

func (s *seederMetrics) RecordRunDuration(ctx context.Context, duration time.Duration, status string) {
	status = NormalizeStatus(status, AllowedSeederRunStatus)
	s.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}
