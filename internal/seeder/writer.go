package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/repository"
	"github.com/nextwatch/engine/pkg/tmdb"
)

// WriteStatus describes what the catalog writer did with one movie.
type WriteStatus string

const (
	// StatusSaved means a new catalog row was created.
	StatusSaved WriteStatus = "saved"
	// StatusSkippedExists means the movie was already in the catalog.
	StatusSkippedExists WriteStatus = "skipped_exists"
	// StatusSkippedBelowQuality means the movie failed the rating gate.
	StatusSkippedBelowQuality WriteStatus = "skipped_below_quality"
)

// WriteResult is the outcome of writing one movie to the catalog. Movie is
// set for StatusSaved and StatusSkippedExists, nil otherwise.
type WriteResult struct {
	Status WriteStatus
	Movie  *models.Movie
}

// MovieStore is the subset of the movies repository the writer needs.
type MovieStore interface {
	Create(ctx context.Context, req *models.CreateMovieRequest) (*models.Movie, error)
	GetByTMDbID(ctx context.Context, tmdbID int) (*models.Movie, error)
}

// TrailerClient fetches a movie's trailer key from the external catalog API.
type TrailerClient interface {
	MovieTrailer(ctx context.Context, tmdbID int) (string, error)
}

// CatalogWriter applies the quality gate and persists fetched movie details.
// It owns the details-to-catalog-row conversion, including trailer enrichment,
// so both bulk ingestion and on-demand title resolution save movies the same way.
type CatalogWriter struct {
	movies    MovieStore
	trailers  TrailerClient
	minRating float64
	logger    *slog.Logger
}

// NewCatalogWriter creates a catalog writer. minRating is the lowest vote
// average accepted into the catalog.
func NewCatalogWriter(movies MovieStore, trailers TrailerClient, minRating float64, logger *slog.Logger) *CatalogWriter {
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogWriter{movies: movies, trailers: trailers, minRating: minRating, logger: logger}
}

// Write runs one movie through the quality gate and deduplication, saving it
// when it passes both. A movie without a vote average is treated as below
// quality, not as an error.
func (w *CatalogWriter) Write(ctx context.Context, details *tmdb.MovieDetails) (WriteResult, error) {
	if details.VoteAverage == nil || *details.VoteAverage < w.minRating {
		return WriteResult{Status: StatusSkippedBelowQuality}, nil
	}

	existing, err := w.movies.GetByTMDbID(ctx, details.ID)
	if err == nil {
		return WriteResult{Status: StatusSkippedExists, Movie: existing}, nil
	}

	if !errors.Is(err, huberrors.ErrNotFound) {
		return WriteResult{}, fmt.Errorf("check existing movie %d: %w", details.ID, err)
	}

	saved, err := w.SaveDetails(ctx, details)
	if err != nil {
		return WriteResult{}, err
	}

	return WriteResult{Status: StatusSaved, Movie: saved}, nil
}

// SaveDetails converts details into a catalog row, enriches it with a trailer
// key, and creates it. When a concurrent writer wins the unique-constraint
// race on tmdb_id, the existing row is re-read and returned instead of an error.
func (w *CatalogWriter) SaveDetails(ctx context.Context, details *tmdb.MovieDetails) (*models.Movie, error) {
	req := w.buildCreateRequest(ctx, details)

	movie, err := w.movies.Create(ctx, req)
	if errors.Is(err, repository.ErrDuplicateTMDbID) {
		return w.movies.GetByTMDbID(ctx, details.ID)
	}

	if err != nil {
		return nil, fmt.Errorf("save movie %q: %w", details.Title, err)
	}

	return movie, nil
}

// buildCreateRequest maps API details onto a create request. Trailer lookup
// failures degrade to a movie without a trailer.
func (w *CatalogWriter) buildCreateRequest(ctx context.Context, details *tmdb.MovieDetails) *models.CreateMovieRequest {
	names := make([]string, 0, len(details.Genres))
	for _, genre := range details.Genres {
		names = append(names, genre.Name)
	}

	req := &models.CreateMovieRequest{
		TMDbID:     details.ID,
		Title:      details.Title,
		Genres:     strings.Join(names, ", "),
		Rating:     details.VoteAverage,
		Popularity: details.Popularity,
	}

	if details.Overview != "" {
		req.Overview = &details.Overview
	}

	if details.PosterPath != "" {
		req.PosterPath = &details.PosterPath
	}

	if details.ReleaseDate != "" {
		if release, err := time.Parse("2006-01-02", details.ReleaseDate); err == nil {
			req.ReleaseDate = &release
		} else {
			w.logger.Warn("failed to parse release date", "tmdb_id", details.ID, "release_date", details.ReleaseDate)
		}
	}

	trailerKey, err := w.trailers.MovieTrailer(ctx, details.ID)
	if err != nil {
		w.logger.Warn("failed to fetch trailer", "tmdb_id", details.ID, "error", err)
	} else if trailerKey != "" {
		req.YouTubeKey = &trailerKey
	}

	return req
}
