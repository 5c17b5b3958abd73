package recommend

import (
	"sort"
	"strings"

	"github.com/nextwatch/engine/internal/models"
)

// Composite score weights. They sum to 1.0.
const (
	weightRatingAffinity     = 0.40
	weightGenreNovelty       = 0.30
	weightPopularityBalance  = 0.20
	weightExplanationQuality = 0.10
)

// Neutral factor values when a signal is absent.
const (
	neutralRatingScore = 0.7
	neutralGenreScore  = 0.5
)

// RankByQuality scores each recommendation against the user's reference
// movies and returns them sorted by composite score, best first. The sort is
// stable: ties keep their incoming (retrieval) order. Each result's
// explanation is annotated with a quality tier.
func RankByQuality(recommendations []models.RecommendedMovie, refs []models.Movie) []models.RecommendedMovie {
	if len(recommendations) == 0 {
		return recommendations
	}

	genrePrefs := genreFrequencies(refs)
	avgRating := averageRating(refs)

	ranked := make([]models.RecommendedMovie, len(recommendations))
	copy(ranked, recommendations)

	for i := range ranked {
		ranked[i].QualityScore = compositeScore(&ranked[i], genrePrefs, avgRating)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore > ranked[j].QualityScore
	})

	for i := range ranked {
		ranked[i].WhyRecommended = annotateTier(ranked[i].WhyRecommended, ranked[i].QualityScore)
	}

	return ranked
}

// compositeScore is the weighted sum of the four quality factors.
func compositeScore(rec *models.RecommendedMovie, genrePrefs map[string]float64, avgRating float64) float64 {
	score := ratingAffinity(rec.Rating, avgRating) * weightRatingAffinity
	score += genreNovelty(rec.Genres, genrePrefs) * weightGenreNovelty
	score += popularityBalance(rec) * weightPopularityBalance
	score += explanationQuality(rec.WhyRecommended) * weightExplanationQuality

	return score
}

// ratingAffinity rewards ratings close to the user's average. An unrated
// movie scores neutral rather than zero.
func ratingAffinity(rating *float64, avgUserRating float64) float64 {
	if rating == nil || *rating == 0 {
		return neutralRatingScore
	}

	difference := *rating - avgUserRating
	if difference < 0 {
		difference = -difference
	}

	score := 1.0 - difference/10.0
	if score < 0 {
		return 0
	}

	return score
}

// genreNovelty rewards genres under-represented in the user's own picks.
func genreNovelty(genres string, genrePrefs map[string]float64) float64 {
	if genres == "" || len(genrePrefs) == 0 {
		return neutralGenreScore
	}

	names := strings.Split(genres, ",")

	var sum float64
	for _, name := range names {
		sum += genrePrefs[strings.TrimSpace(name)]
	}

	avgPreference := sum / float64(len(names))

	score := 1.0 - avgPreference/5.0
	if score < 0 {
		return 0
	}

	return score
}

// popularityBalance steers the top slots away from both obvious franchise
// blockbusters and zero-signal items. Purely title/overview based; actual
// popularity numbers are deliberately not consulted here.
func popularityBalance(rec *models.RecommendedMovie) float64 {
	title := strings.ToLower(rec.Title)

	if strings.Contains(title, "avengers") || strings.Contains(title, "saga") || strings.Contains(title, "trilogy") {
		return 0.6
	}

	if rec.Overview == nil || *rec.Overview == "" {
		return 0.5
	}

	return 0.8
}

// explanationQuality rewards explanations with enough substance to show the user.
func explanationQuality(explanation string) float64 {
	if len(explanation) > 20 {
		return 1.0
	}

	return 0.5
}

// annotateTier appends a human-readable tier label to the explanation.
// Idempotent: an explanation already carrying a tier is left alone.
func annotateTier(explanation string, score float64) string {
	if strings.Contains(explanation, "Match") || strings.Contains(explanation, "Interesting Discovery") {
		return explanation
	}

	var tier string

	switch {
	case score > 0.85:
		tier = "Excellent Match"
	case score > 0.70:
		tier = "Very Good Match"
	case score > 0.50:
		tier = "Good Match"
	default:
		tier = "Interesting Discovery"
	}

	return explanation + " (" + tier + ")"
}

// genreFrequencies builds the reference set's genre histogram.
func genreFrequencies(refs []models.Movie) map[string]float64 {
	frequencies := make(map[string]float64)

	for i := range refs {
		for genre := range refs[i].GenreSet() {
			frequencies[genre]++
		}
	}

	return frequencies
}

// averageRating averages the reference movies' ratings, counting missing
// ratings as zero. An empty reference set falls back to 7.0.
func averageRating(refs []models.Movie) float64 {
	if len(refs) == 0 {
		return 7.0
	}

	var sum float64
	for i := range refs {
		if refs[i].Rating != nil {
			sum += *refs[i].Rating
		}
	}

	return sum / float64(len(refs))
}
