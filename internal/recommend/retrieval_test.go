package recommend

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/repository"
)

type mockQueryEmbedder struct {
	lastQuery string
}

func (m *mockQueryEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	m.lastQuery = text

	return []float32{1, 0, 0}, nil
}

type mockVectorIndex struct {
	lastLimit int
	neighbors []repository.MovieNeighbor
}

func (m *mockVectorIndex) NearestByEmbedding(
	_ context.Context, _ string, _ []float32, limit int,
) ([]repository.MovieNeighbor, error) {
	m.lastLimit = limit

	return m.neighbors, nil
}

type mapMovieGetter struct {
	movies map[int64]*models.Movie
}

func (m *mapMovieGetter) GetByID(_ context.Context, id int64) (*models.Movie, error) {
	if movie, ok := m.movies[id]; ok {
		return movie, nil
	}

	return nil, huberrors.NewNotFoundError("movie", "")
}

func catalogMovie(id int64, title, genres string) *models.Movie {
	return &models.Movie{ID: id, TMDbID: int(id), Title: title, Genres: genres}
}

func floatPtr(f float64) *float64 { return &f }

func TestBuildCombinedQuery(t *testing.T) {
	overview := "dream heist"
	refs := []models.Movie{
		{Title: "Inception", Genres: "Sci-Fi", Overview: &overview},
		{Title: "Heat", Genres: "Crime"},
	}

	query := buildCombinedQuery(refs)

	// First movie carries weight 2, second weight 1.
	assert.Equal(t, 2, strings.Count(query, "Inception Sci-Fi dream heist"))
	assert.Equal(t, 1, strings.Count(query, "Heat Crime"))
}

func TestRetrieverRetrieve(t *testing.T) {
	t.Run("excludes reference movies and caps at limit", func(t *testing.T) {
		movies := map[int64]*models.Movie{}
		neighbors := make([]repository.MovieNeighbor, 0, 10)

		for id := int64(1); id <= 10; id++ {
			movies[id] = catalogMovie(id, "movie", "Drama")
			neighbors = append(neighbors, repository.MovieNeighbor{MovieID: id})
		}

		refs := []models.Movie{*movies[1], *movies[2]}

		index := &mockVectorIndex{neighbors: neighbors}
		retriever := NewRetriever(&mockQueryEmbedder{}, index, &mapMovieGetter{movies: movies}, "m", nil, nil)

		results, err := retriever.Retrieve(context.Background(), refs, 3)
		require.NoError(t, err)

		assert.Len(t, results, 3)
		for _, movie := range results {
			assert.NotEqual(t, int64(1), movie.ID)
			assert.NotEqual(t, int64(2), movie.ID)
		}
	})

	t.Run("oversamples by three capped at the sample limit", func(t *testing.T) {
		index := &mockVectorIndex{}
		retriever := NewRetriever(&mockQueryEmbedder{}, index, &mapMovieGetter{}, "m", nil, nil)

		_, err := retriever.Retrieve(context.Background(), []models.Movie{{ID: 1, Title: "x"}}, 5)
		require.NoError(t, err)
		assert.Equal(t, 15, index.lastLimit)

		_, err = retriever.Retrieve(context.Background(), []models.Movie{{ID: 1, Title: "x"}}, 30)
		require.NoError(t, err)
		assert.Equal(t, diversitySampleCap, index.lastLimit)
	})

	t.Run("drops unresolvable neighbors", func(t *testing.T) {
		movies := map[int64]*models.Movie{
			2: catalogMovie(2, "known", "Drama"),
		}

		index := &mockVectorIndex{neighbors: []repository.MovieNeighbor{
			{MovieID: 99}, // no catalog row
			{MovieID: 2},
		}}

		retriever := NewRetriever(&mockQueryEmbedder{}, index, &mapMovieGetter{movies: movies}, "m", nil, nil)

		results, err := retriever.Retrieve(context.Background(), []models.Movie{{ID: 1, Title: "x"}}, 5)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, int64(2), results[0].ID)
	})

	t.Run("empty reference set returns empty", func(t *testing.T) {
		retriever := NewRetriever(&mockQueryEmbedder{}, &mockVectorIndex{}, &mapMovieGetter{}, "m", nil, nil)

		results, err := retriever.Retrieve(context.Background(), nil, 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestApplyMMR(t *testing.T) {
	scored := func(id int64, genres string, score float64) models.MovieWithScore {
		return models.MovieWithScore{Movie: *catalogMovie(id, "movie", genres), Score: score}
	}

	t.Run("pool at or under limit is returned unchanged", func(t *testing.T) {
		candidates := []models.MovieWithScore{
			scored(1, "Drama", 1.0),
			scored(2, "Action", 0.99),
		}

		result := applyMMR(candidates, 5)

		require.Len(t, result, 2)
		assert.Equal(t, int64(1), result[0].ID)
		assert.Equal(t, int64(2), result[1].ID)
	})

	t.Run("never returns more than limit or duplicates", func(t *testing.T) {
		candidates := make([]models.MovieWithScore, 0, 10)
		for id := int64(1); id <= 10; id++ {
			candidates = append(candidates, scored(id, "Drama, Action", 1.0-float64(id-1)*0.01))
		}

		result := applyMMR(candidates, 4)

		require.Len(t, result, 4)

		seen := map[int64]bool{}
		for _, movie := range result {
			assert.False(t, seen[movie.ID])
			seen[movie.ID] = true
		}
	})

	t.Run("a genre-disjoint candidate wins a slot over near-duplicates", func(t *testing.T) {
		// Five near-identical thrillers and one documentary with close
		// similarity scores. Diversity must pull the documentary in.
		candidates := []models.MovieWithScore{
			scored(1, "Thriller, Crime", 1.00),
			scored(2, "Thriller, Crime", 0.99),
			scored(3, "Thriller, Crime", 0.98),
			scored(4, "Thriller, Crime", 0.97),
			scored(5, "Thriller, Crime", 0.96),
			scored(6, "Documentary", 0.95),
		}

		result := applyMMR(candidates, 3)

		require.Len(t, result, 3)

		ids := make([]int64, 0, 3)
		for _, movie := range result {
			ids = append(ids, movie.ID)
		}

		assert.Contains(t, ids, int64(6))
	})

	t.Run("ties keep retrieval order", func(t *testing.T) {
		// Identical genres and scores: the earlier-ranked candidate must win.
		candidates := []models.MovieWithScore{
			scored(1, "Drama", 0.9),
			scored(2, "Drama", 0.9),
			scored(3, "Drama", 0.9),
		}

		result := applyMMR(candidates, 2)

		require.Len(t, result, 2)
		assert.Equal(t, int64(1), result[0].ID)
		assert.Equal(t, int64(2), result[1].ID)
	})
}

func TestGenreJaccard(t *testing.T) {
	t.Run("identical sets score 1", func(t *testing.T) {
		a := catalogMovie(1, "a", "Drama, Crime")
		b := catalogMovie(2, "b", "Crime, Drama")

		assert.InDelta(t, 1.0, genreJaccard(a, b), 1e-9)
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := catalogMovie(1, "a", "Drama, Crime")
		b := catalogMovie(2, "b", "Drama, Comedy")

		// Intersection 1, union 3.
		assert.InDelta(t, 1.0/3.0, genreJaccard(a, b), 1e-9)
	})

	t.Run("missing genre data scores 0", func(t *testing.T) {
		a := catalogMovie(1, "a", "")
		b := catalogMovie(2, "b", "Drama")

		assert.Zero(t, genreJaccard(a, b))
	})
}
