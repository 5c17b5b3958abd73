package models

// RecommendationRequest is a request for movie recommendations based on a
// user's selected reference titles. Order matters: earlier titles weigh more
// heavily in the similarity query.
type RecommendationRequest struct {
	SelectedMovies     []string `json:"selected_movies"      validate:"required,min=1,max=20,dive,required,max=500,no_null_bytes"`
	MaxRecommendations int      `json:"max_recommendations,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// RecommendedMovie is one recommendation with its explanation and quality score.
type RecommendedMovie struct {
	Title          string   `json:"title"`
	Overview       *string  `json:"overview,omitempty"`
	Genres         string   `json:"genres,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
	TrailerURL     string   `json:"trailer_url,omitempty"`
	WhyRecommended string   `json:"why_recommended"`
	QualityScore   float64  `json:"quality_score"`
}

// RecommendationResponse is the full response for a recommendation request.
type RecommendationResponse struct {
	Recommendations  []RecommendedMovie `json:"recommendations"`
	Reasoning        string             `json:"reasoning"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}
