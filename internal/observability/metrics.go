package observability

import (
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles all recorder interfaces for the engine.
type Metrics struct {
	Seeder          SeederMetrics
	Embeddings      EmbeddingMetrics
	Recommendations RecommendationMetrics
	HTTP            HTTPMetrics
}

// NewMetrics creates all recorders from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	seeder, err := NewSeederMetrics(meter)
	if err != nil {
		return nil, err
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, err
	}

	recommendations, err := NewRecommendationMetrics(meter)
	if err != nil {
		return nil, err
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Seeder:          seeder,
		Embeddings:      embeddings,
		Recommendations: recommendations,
		HTTP:            httpMetrics,
	}, nil
}
