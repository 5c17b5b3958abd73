// Package recommend implements the query path of the engine: reference-title
// resolution, vector candidate retrieval with diversity re-ranking, LLM
// explanation, and multi-factor quality scoring.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/observability"
	"github.com/nextwatch/engine/internal/repository"
)

const (
	// diversitySampleCap bounds how many neighbors are pulled for re-ranking.
	diversitySampleCap = 50
	// oversampleFactor gives the diversity step more material than the caller asked for.
	oversampleFactor = 3

	mmrSimilarityWeight = 0.7
	mmrDiversityWeight  = 0.3
)

// QueryEmbedder embeds free-form query text.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns the nearest stored movie vectors to a query embedding.
type VectorIndex interface {
	NearestByEmbedding(ctx context.Context, model string, queryEmbedding []float32, limit int) ([]repository.MovieNeighbor, error)
}

// MovieGetter loads full movie rows for neighbor hits.
type MovieGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Movie, error)
}

// Retriever turns a reference set into a diverse list of similar movies.
// Similarity scores attached to candidates are rank-derived rather than raw
// vector distances: only relative order feeds the MMR trade-off, and rank
// keeps the scoring stable across vector-store implementations.
type Retriever struct {
	embedder QueryEmbedder
	index    VectorIndex
	movies   MovieGetter
	model    string
	metrics  observability.RecommendationMetrics
	logger   *slog.Logger
}

// NewRetriever creates a retriever querying vectors stored under model.
func NewRetriever(
	embedder QueryEmbedder,
	index VectorIndex,
	movies MovieGetter,
	model string,
	metrics observability.RecommendationMetrics,
	logger *slog.Logger,
) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}

	return &Retriever{
		embedder: embedder,
		index:    index,
		movies:   movies,
		model:    model,
		metrics:  metrics,
		logger:   logger,
	}
}

// Retrieve returns up to limit movies similar to the reference set, never
// including a reference movie itself. An empty reference set yields an empty
// result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, refs []models.Movie, limit int) ([]models.Movie, error) {
	if len(refs) == 0 || limit <= 0 {
		return nil, nil
	}

	r.logger.Info("finding similar movies", "limit", limit, "references", len(refs))

	query := buildCombinedQuery(refs)

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	topK := limit * oversampleFactor
	if topK > diversitySampleCap {
		topK = diversitySampleCap
	}

	neighbors, err := r.index.NearestByEmbedding(ctx, r.model, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := r.resolveCandidates(ctx, neighbors, refs)

	if r.metrics != nil {
		r.metrics.RecordCandidateCount(ctx, int64(len(candidates)))

		for _, c := range candidates {
			r.metrics.RecordSimilarityScore(ctx, c.Score)
		}
	}

	return applyMMR(candidates, limit), nil
}

// resolveCandidates maps neighbor hits back to catalog rows, dropping hits
// that cannot be resolved and members of the reference set. The similarity
// score decreases with acceptance rank.
func (r *Retriever) resolveCandidates(
	ctx context.Context, neighbors []repository.MovieNeighbor, refs []models.Movie,
) []models.MovieWithScore {
	refIDs := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		refIDs[ref.ID] = struct{}{}
	}

	candidates := make([]models.MovieWithScore, 0, len(neighbors))

	for _, neighbor := range neighbors {
		if _, isRef := refIDs[neighbor.MovieID]; isRef {
			continue
		}

		movie, err := r.movies.GetByID(ctx, neighbor.MovieID)
		if err != nil {
			r.logger.Warn("dropping unresolvable neighbor", "movie_id", neighbor.MovieID, "error", err)

			continue
		}

		candidates = append(candidates, models.MovieWithScore{
			Movie: *movie,
			Score: 1.0 - float64(len(candidates))*0.01,
		})
	}

	return candidates
}

// buildCombinedQuery concatenates the reference movies' descriptive text,
// repeating each by a position-derived weight so earlier selections bias the
// query more heavily.
func buildCombinedQuery(refs []models.Movie) string {
	var query strings.Builder

	weight := len(refs)
	for _, ref := range refs {
		text := movieQueryText(&ref)
		for i := 0; i < weight; i++ {
			query.WriteString(text)
			query.WriteString(" ")
		}

		if weight > 1 {
			weight--
		}
	}

	return query.String()
}

func movieQueryText(movie *models.Movie) string {
	parts := make([]string, 0, 3)

	if movie.Title != "" {
		parts = append(parts, movie.Title)
	}

	if movie.Genres != "" {
		parts = append(parts, movie.Genres)
	}

	if movie.Overview != nil && *movie.Overview != "" {
		parts = append(parts, *movie.Overview)
	}

	return strings.Join(parts, " ")
}

// applyMMR selects up to limit candidates balancing similarity against
// diversity (Maximal Marginal Relevance). With limit or fewer candidates the
// pool is returned as-is. Ties keep retrieval order: a later candidate must
// strictly beat the incumbent.
func applyMMR(candidates []models.MovieWithScore, limit int) []models.Movie {
	if len(candidates) <= limit {
		out := make([]models.Movie, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, c.Movie)
		}

		return out
	}

	selected := make([]models.Movie, 0, limit)
	remaining := make([]models.MovieWithScore, len(candidates))
	copy(remaining, candidates)

	// Seed with the highest-similarity candidate.
	selected = append(selected, remaining[0].Movie)
	remaining = remaining[1:]

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i, candidate := range remaining {
			diversity := 1.0 - avgGenreSimilarity(&candidate.Movie, selected)
			mmrScore := mmrSimilarityWeight*candidate.Score + mmrDiversityWeight*diversity

			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}

		selected = append(selected, remaining[bestIdx].Movie)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// avgGenreSimilarity averages the genre Jaccard index between a candidate and
// every already-selected movie.
func avgGenreSimilarity(candidate *models.Movie, selected []models.Movie) float64 {
	if len(selected) == 0 {
		return 0.0
	}

	var total float64
	for i := range selected {
		total += genreJaccard(candidate, &selected[i])
	}

	return total / float64(len(selected))
}

// genreJaccard computes |A ∩ B| / |A ∪ B| over the two movies' genre sets.
// A movie without genre data has similarity 0 to everything.
func genreJaccard(a, b *models.Movie) float64 {
	setA := a.GenreSet()
	setB := b.GenreSet()

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for genre := range setA {
		if _, ok := setB[genre]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
