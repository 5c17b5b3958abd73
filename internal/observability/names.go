// Package observability provides OpenTelemetry metrics for the recommendation engine.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameSeederRuns            = "engine_seeder_runs_total"
	MetricNameSeederMoviesFetched   = "engine_seeder_movies_fetched_total"
	MetricNameSeederMoviesSkipped   = "engine_seeder_movies_skipped_total"
	MetricNameSeederRunDuration     = "engine_seeder_run_duration_seconds"
	MetricNameEmbeddingsEnqueued    = "engine_embeddings_enqueued_total"
	MetricNameEmbeddingsDropped     = "engine_embeddings_dropped_total"
	MetricNameEmbeddingOutcomes     = "engine_embedding_outcomes_total"
	MetricNameEmbeddingDuration     = "engine_embedding_duration_seconds"
	MetricNameRecommendationCount   = "engine_recommendation_requests_total"
	MetricNameRecommendationLatency = "engine_recommendation_duration_seconds"
	MetricNameCandidateCount        = "engine_retrieval_candidates"
	MetricNameSimilarityScore       = "engine_retrieval_similarity_score"
	MetricNameHTTPRequests          = "engine_http_requests_total"
	MetricNameHTTPRequestDuration   = "engine_http_request_duration_seconds"
	MetricNameHTTPBodyTooLarge      = "engine_http_body_too_large_total"
)

// Attribute keys.
const (
	AttrReason      = "reason"
	AttrStatus      = "status"
	AttrMethod      = "method"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
)

// Status and reason attribute values.
const (
	SeederStatusCompleted = "completed"
	SeederStatusRejected  = "rejected"
	SeederStatusCancelled = "cancelled"

	EmbeddingStatusSuccess = "success"
	EmbeddingStatusRetry   = "retry"
	EmbeddingStatusFailed  = "failed"

	DropReasonQueueFull      = "queue_full"
	DropReasonRetryExhausted = "retry_exhausted"

	RecommendationStatusSuccess = "success"
	RecommendationStatusEmpty   = "empty"
	RecommendationStatusFailed  = "failed"
)

// AllowedSeederRunStatus for engine_seeder_runs_total and engine_seeder_run_duration_seconds.
var AllowedSeederRunStatus = map[string]bool{
	SeederStatusCompleted: true,
	SeederStatusRejected:  true,
	SeederStatusCancelled: true,
}

// AllowedEmbeddingOutcomeStatus for engine_embedding_outcomes_total and engine_embedding_duration_seconds.
var AllowedEmbeddingOutcomeStatus = map[string]bool{
	EmbeddingStatusSuccess: true,
	EmbeddingStatusRetry:   true,
	EmbeddingStatusFailed:  true,
}

// AllowedEmbeddingDropReasons for engine_embeddings_dropped_total.
var AllowedEmbeddingDropReasons = map[string]bool{
	DropReasonQueueFull:      true,
	DropReasonRetryExhausted: true,
}

// AllowedRecommendationStatus for engine_recommendation_requests_total.
var AllowedRecommendationStatus = map[string]bool{
	RecommendationStatusSuccess: true,
	RecommendationStatusEmpty:   true,
	RecommendationStatusFailed:  true,
}

// NormalizeStatus returns status if in allowed, otherwise "other".
func NormalizeStatus(status string, allowed map[string]bool) string {
	if allowed[status] {
		return status
	}

	return "other"
}
