package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextwatch/engine/internal/models"
)

func recommendation(title, genres string, rating *float64, why string) models.RecommendedMovie {
	return models.RecommendedMovie{Title: title, Genres: genres, Rating: rating, WhyRecommended: why}
}

func TestRatingAffinity(t *testing.T) {
	t.Run("exact match scores 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, ratingAffinity(floatPtr(8.0), 8.0), 1e-9)
	})

	t.Run("score falls with distance", func(t *testing.T) {
		assert.InDelta(t, 0.8, ratingAffinity(floatPtr(6.0), 8.0), 1e-9)
	})

	t.Run("unrated movie is neutral", func(t *testing.T) {
		assert.InDelta(t, neutralRatingScore, ratingAffinity(nil, 8.0), 1e-9)
		assert.InDelta(t, neutralRatingScore, ratingAffinity(floatPtr(0), 8.0), 1e-9)
	})
}

func TestGenreNovelty(t *testing.T) {
	prefs := map[string]float64{"Sci-Fi": 2, "Thriller": 1}

	t.Run("unseen genres score high", func(t *testing.T) {
		assert.InDelta(t, 1.0, genreNovelty("Documentary", prefs), 1e-9)
	})

	t.Run("over-represented genres score low", func(t *testing.T) {
		// avg preference (2+1)/2 = 1.5 => 1 - 1.5/5 = 0.7
		assert.InDelta(t, 0.7, genreNovelty("Sci-Fi, Thriller", prefs), 1e-9)
	})

	t.Run("no genre data is neutral", func(t *testing.T) {
		assert.InDelta(t, neutralGenreScore, genreNovelty("", prefs), 1e-9)
		assert.InDelta(t, neutralGenreScore, genreNovelty("Drama", nil), 1e-9)
	})
}

func TestPopularityBalance(t *testing.T) {
	overview := "a film"

	t.Run("franchise markers score lower", func(t *testing.T) {
		rec := recommendation("The Skywalker Saga", "", nil, "")
		rec.Overview = &overview
		assert.InDelta(t, 0.6, popularityBalance(&rec), 1e-9)
	})

	t.Run("missing overview scores medium", func(t *testing.T) {
		rec := recommendation("Obscure Film", "", nil, "")
		assert.InDelta(t, 0.5, popularityBalance(&rec), 1e-9)
	})

	t.Run("regular movie scores high", func(t *testing.T) {
		rec := recommendation("Heat", "", nil, "")
		rec.Overview = &overview
		assert.InDelta(t, 0.8, popularityBalance(&rec), 1e-9)
	})
}

func TestAnnotateTier(t *testing.T) {
	t.Run("tier follows score thresholds", func(t *testing.T) {
		assert.Equal(t, "x (Excellent Match)", annotateTier("x", 0.86))
		assert.Equal(t, "x (Very Good Match)", annotateTier("x", 0.75))
		assert.Equal(t, "x (Good Match)", annotateTier("x", 0.55))
		assert.Equal(t, "x (Interesting Discovery)", annotateTier("x", 0.40))
	})

	t.Run("annotation is idempotent", func(t *testing.T) {
		once := annotateTier("great pick", 0.9)
		assert.Equal(t, once, annotateTier(once, 0.9))

		discovery := annotateTier("odd pick", 0.3)
		assert.Equal(t, discovery, annotateTier(discovery, 0.3))
	})
}

func TestRankByQuality(t *testing.T) {
	refs := []models.Movie{
		{Title: "Inception", Genres: "Sci-Fi, Thriller", Rating: floatPtr(8.8)},
		{Title: "The Prestige", Genres: "Drama, Mystery", Rating: floatPtr(8.5)},
	}

	t.Run("scores are non-increasing and every result gets a tier", func(t *testing.T) {
		longWhy := "This one matches the cerebral tone of your selections."

		recs := []models.RecommendedMovie{
			recommendation("Interstellar", "Sci-Fi, Drama", floatPtr(8.6), longWhy),
			recommendation("Shutter Island", "Thriller, Mystery", floatPtr(8.2), "ok"),
			recommendation("Memento", "Thriller", floatPtr(8.4), longWhy),
		}

		ranked := RankByQuality(recs, refs)

		require.Len(t, ranked, 3)

		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].QualityScore, ranked[i].QualityScore)
		}

		for _, rec := range ranked {
			assert.NotEqual(t, "", rec.WhyRecommended)
			assert.Regexp(t, `\((Excellent Match|Very Good Match|Good Match|Interesting Discovery)\)$`, rec.WhyRecommended)
		}
	})

	t.Run("ties preserve incoming order", func(t *testing.T) {
		why := "Recommended for the same reasons as the rest."

		recs := []models.RecommendedMovie{
			recommendation("First", "Documentary", floatPtr(8.0), why),
			recommendation("Second", "Documentary", floatPtr(8.0), why),
		}

		ranked := RankByQuality(recs, refs)

		require.Len(t, ranked, 2)
		assert.Equal(t, "First", ranked[0].Title)
		assert.Equal(t, "Second", ranked[1].Title)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		assert.Empty(t, RankByQuality(nil, refs))
	})
}
