package tmdb

// MovieStub is a movie as it appears in TMDb list and search results.
type MovieStub struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
}

// SearchResponse represents the API response for search and list endpoints.
type SearchResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []MovieStub `json:"results"`
}

// Genre is a TMDb genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full metadata for a single movie.
type MovieDetails struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	ReleaseDate string   `json:"release_date"`
	Genres      []Genre  `json:"genres"`
	VoteAverage *float64 `json:"vote_average"`
	Popularity  *float64 `json:"popularity"`
	PosterPath  string   `json:"poster_path"`
}

// Video is one entry in a movie's videos list.
type Video struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// VideosResponse represents the API response for the movie videos endpoint.
type VideosResponse struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}
