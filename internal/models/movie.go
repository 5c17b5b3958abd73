// Package models contains domain types shared across services, repositories, and handlers.
package models

import (
	"strings"
	"time"
)

// Movie is the durable catalog representation of a film.
// TMDbID carries a uniqueness constraint in the database; the catalog writer
// relies on it to make ingestion idempotent under concurrent duplicate writes.
type Movie struct {
	ID          int64      `json:"id"`
	TMDbID      int        `json:"tmdb_id"`
	Title       string     `json:"title"`
	Overview    *string    `json:"overview,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Genres      string     `json:"genres,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Popularity  *float64   `json:"popularity,omitempty"`
	PosterPath  *string    `json:"poster_path,omitempty"`
	YouTubeKey  *string    `json:"youtube_key,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GenreSet returns the movie's genres as a set of trimmed names.
// Genres are stored as a comma-delimited string; empty entries are dropped.
func (m *Movie) GenreSet() map[string]struct{} {
	set := make(map[string]struct{})

	for _, g := range strings.Split(m.Genres, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			set[g] = struct{}{}
		}
	}

	return set
}

// FullPosterURL returns the absolute poster URL, or "" when the movie has no poster.
func (m *Movie) FullPosterURL(imageBaseURL string) string {
	if m.PosterPath == nil || *m.PosterPath == "" {
		return ""
	}

	return imageBaseURL + *m.PosterPath
}

// YouTubeEmbedURL returns the embeddable trailer URL, or "" when no trailer is known.
func (m *Movie) YouTubeEmbedURL() string {
	if m.YouTubeKey == nil || *m.YouTubeKey == "" {
		return ""
	}

	return "https://youtube.com/embed/" + *m.YouTubeKey
}

// CreateMovieRequest is the persisted-shape input for the movies repository.
type CreateMovieRequest struct {
	TMDbID      int
	Title       string
	Overview    *string
	ReleaseDate *time.Time
	Genres      string
	Rating      *float64
	Popularity  *float64
	PosterPath  *string
	YouTubeKey  *string
}

// MovieWithScore pairs a movie with its retrieval similarity score (0..1).
type MovieWithScore struct {
	Movie Movie   `json:"movie"`
	Score float64 `json:"score"`
}
