package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/observability"
)

const defaultMaxRecommendations = 5

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Resolver           *Resolver
	Retriever          *Retriever
	Explainer          *Explainer
	ImageBaseURL       string
	MaxRecommendations int // default cap when the request does not set one
	Metrics            observability.RecommendationMetrics
	Logger             *slog.Logger
}

// Service runs the full recommendation flow: resolve reference titles,
// retrieve diverse candidates, attach explanations, rank by quality.
type Service struct {
	resolver     *Resolver
	retriever    *Retriever
	explainer    *Explainer
	imageBaseURL string
	maxDefault   int
	metrics      observability.RecommendationMetrics
	logger       *slog.Logger
}

// NewService creates a recommendation service.
func NewService(params ServiceParams) *Service {
	maxDefault := params.MaxRecommendations
	if maxDefault <= 0 {
		maxDefault = defaultMaxRecommendations
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		resolver:     params.Resolver,
		retriever:    params.Retriever,
		explainer:    params.Explainer,
		imageBaseURL: params.ImageBaseURL,
		maxDefault:   maxDefault,
		metrics:      params.Metrics,
		logger:       logger,
	}
}

// Recommend returns up to MaxRecommendations movies similar to the request's
// selected titles. Empty reference or candidate sets produce an empty
// response with an explanatory reasoning string, not an error; the only
// request-level failure is a reference title that cannot be resolved at all.
func (s *Service) Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	start := time.Now()

	maxRecommendations := req.MaxRecommendations
	if maxRecommendations <= 0 {
		maxRecommendations = s.maxDefault
	}

	s.logger.Info("processing recommendation request", "selected_movies", len(req.SelectedMovies))

	refs, err := s.resolver.ResolveAll(ctx, req.SelectedMovies)
	if err != nil {
		s.recordRequest(ctx, observability.RecommendationStatusFailed, start)

		return nil, err
	}

	if len(refs) == 0 {
		s.logger.Warn("no reference movies resolved")
		s.recordRequest(ctx, observability.RecommendationStatusEmpty, start)

		return s.emptyResponse("No movies found for recommendations", start), nil
	}

	// Oversample so the quality pass ranks a real shortlist, not a single page.
	candidates, err := s.retriever.Retrieve(ctx, refs, maxRecommendations*3)
	if err != nil {
		s.recordRequest(ctx, observability.RecommendationStatusFailed, start)

		return nil, err
	}

	s.logger.Info("found candidate movies from vector search", "candidates", len(candidates))

	if len(candidates) == 0 {
		s.recordRequest(ctx, observability.RecommendationStatusEmpty, start)

		return s.emptyResponse("No suitable recommendations found", start), nil
	}

	if len(candidates) > maxRecommendations {
		candidates = candidates[:maxRecommendations]
	}

	explanations := s.explainer.ExplainAll(ctx, refs, candidates)

	recommendations := make([]models.RecommendedMovie, 0, len(candidates))
	for i := range candidates {
		recommendations = append(recommendations, models.RecommendedMovie{
			Title:          candidates[i].Title,
			Overview:       candidates[i].Overview,
			Genres:         candidates[i].Genres,
			Rating:         candidates[i].Rating,
			PosterURL:      candidates[i].FullPosterURL(s.imageBaseURL),
			TrailerURL:     candidates[i].YouTubeEmbedURL(),
			WhyRecommended: explanations[i],
		})
	}

	ranked := RankByQuality(recommendations, refs)

	elapsed := time.Since(start)
	s.logger.Info("recommendation generation completed",
		"candidates", len(candidates),
		"recommendations", len(ranked),
		"latency_ms", elapsed.Milliseconds(),
	)

	s.recordRequest(ctx, observability.RecommendationStatusSuccess, start)

	return &models.RecommendationResponse{
		Recommendations:  ranked,
		Reasoning:        "Based on your taste in " + joinTitles(refs),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

func (s *Service) emptyResponse(reasoning string, start time.Time) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		Recommendations:  []models.RecommendedMovie{},
		Reasoning:        reasoning,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

func (s *Service) recordRequest(ctx context.Context, status string, start time.Time) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordRequest(ctx, status)
	s.metrics.RecordRequestDuration(ctx, time.Since(start), status)
}

func joinTitles(refs []models.Movie) string {
	titles := make([]string, 0, len(refs))
	for i := range refs {
		titles = append(titles, refs[i].Title)
	}

	return strings.Join(titles, ", ")
}
