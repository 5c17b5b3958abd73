package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/repository"
	"github.com/nextwatch/engine/pkg/tmdb"
)

// serviceFixture wires a Service onto an in-memory catalog: every catalog
// movie is a vector neighbor, titles resolve through the catalog, the LLM is
// absent.
func serviceFixture(t *testing.T, catalog map[int64]*models.Movie) *Service {
	t.Helper()

	finder := &mockMovieFinder{
		getByTitleFunc: func(_ context.Context, title string) (*models.Movie, error) {
			for _, movie := range catalog {
				if movie.Title == title {
					return movie, nil
				}
			}

			return nil, huberrors.NewNotFoundError("movie", "movie not found: "+title)
		},
	}

	search := &mockSearchClient{
		searchFunc: func(context.Context, string) ([]tmdb.MovieStub, error) { return nil, nil },
	}

	resolver, err := NewResolver(finder, search, &mockDetailSaver{}, nil)
	require.NoError(t, err)

	neighbors := make([]repository.MovieNeighbor, 0, len(catalog))
	for id := int64(1); id <= int64(len(catalog)); id++ {
		neighbors = append(neighbors, repository.MovieNeighbor{MovieID: id, Title: catalog[id].Title})
	}

	retriever := NewRetriever(
		&mockQueryEmbedder{},
		&mockVectorIndex{neighbors: neighbors},
		&mapMovieGetter{movies: catalog},
		"m",
		nil,
		nil,
	)

	return NewService(ServiceParams{
		Resolver:     resolver,
		Retriever:    retriever,
		Explainer:    NewExplainer(nil, nil),
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
	})
}

func TestServiceRecommend(t *testing.T) {
	catalog := map[int64]*models.Movie{
		1:  {ID: 1, Title: "Inception", Genres: "Sci-Fi, Thriller", Rating: floatPtr(8.8)},
		2:  {ID: 2, Title: "The Prestige", Genres: "Drama, Mystery", Rating: floatPtr(8.5)},
		3:  {ID: 3, Title: "Interstellar", Genres: "Sci-Fi, Drama", Rating: floatPtr(8.6)},
		4:  {ID: 4, Title: "Memento", Genres: "Thriller, Mystery", Rating: floatPtr(8.4)},
		5:  {ID: 5, Title: "Shutter Island", Genres: "Thriller", Rating: floatPtr(8.2)},
		6:  {ID: 6, Title: "The Matrix", Genres: "Sci-Fi, Action", Rating: floatPtr(8.7)},
		7:  {ID: 7, Title: "Arrival", Genres: "Sci-Fi, Drama", Rating: floatPtr(7.9)},
		8:  {ID: 8, Title: "Se7en", Genres: "Crime, Thriller", Rating: floatPtr(8.6)},
		9:  {ID: 9, Title: "Coherence", Genres: "Sci-Fi", Rating: floatPtr(7.2)},
		10: {ID: 10, Title: "Primer", Genres: "Sci-Fi", Rating: floatPtr(6.9)},
		11: {ID: 11, Title: "Moon", Genres: "Sci-Fi, Drama", Rating: floatPtr(7.8)},
		12: {ID: 12, Title: "Looper", Genres: "Sci-Fi, Thriller", Rating: floatPtr(7.4)},
	}

	t.Run("returns ranked recommendations excluding the inputs", func(t *testing.T) {
		svc := serviceFixture(t, catalog)

		resp, err := svc.Recommend(context.Background(), &models.RecommendationRequest{
			SelectedMovies:     []string{"Inception", "The Prestige"},
			MaxRecommendations: 3,
		})
		require.NoError(t, err)

		require.Len(t, resp.Recommendations, 3)

		for _, rec := range resp.Recommendations {
			assert.NotEqual(t, "Inception", rec.Title)
			assert.NotEqual(t, "The Prestige", rec.Title)
			assert.NotEmpty(t, rec.WhyRecommended)
			assert.Greater(t, rec.QualityScore, 0.0)
		}

		for i := 1; i < len(resp.Recommendations); i++ {
			assert.GreaterOrEqual(t,
				resp.Recommendations[i-1].QualityScore,
				resp.Recommendations[i].QualityScore,
			)
		}

		assert.Equal(t, "Based on your taste in Inception, The Prestige", resp.Reasoning)
		assert.GreaterOrEqual(t, resp.ProcessingTimeMs, int64(0))
	})

	t.Run("empty selection yields an empty response, not an error", func(t *testing.T) {
		svc := serviceFixture(t, catalog)

		resp, err := svc.Recommend(context.Background(), &models.RecommendationRequest{})
		require.NoError(t, err)

		assert.Empty(t, resp.Recommendations)
		assert.Equal(t, "No movies found for recommendations", resp.Reasoning)
	})

	t.Run("no candidates yields an empty response with reasoning", func(t *testing.T) {
		tiny := map[int64]*models.Movie{
			1: {ID: 1, Title: "Inception", Genres: "Sci-Fi", Rating: floatPtr(8.8)},
		}

		svc := serviceFixture(t, tiny)

		resp, err := svc.Recommend(context.Background(), &models.RecommendationRequest{
			SelectedMovies: []string{"Inception"},
		})
		require.NoError(t, err)

		assert.Empty(t, resp.Recommendations)
		assert.Equal(t, "No suitable recommendations found", resp.Reasoning)
	})

	t.Run("unresolvable reference title fails the request", func(t *testing.T) {
		svc := serviceFixture(t, catalog)

		_, err := svc.Recommend(context.Background(), &models.RecommendationRequest{
			SelectedMovies: []string{"Not A Real Movie"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, huberrors.ErrNotFound)
	})
}
