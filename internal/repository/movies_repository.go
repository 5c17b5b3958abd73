// Package repository provides data access for the movie catalog and its embeddings.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
)

// ErrDuplicateTMDbID is returned by Create when a movie with the same tmdb_id
// already exists. Callers resolve the race by re-reading with GetByTMDbID.
var ErrDuplicateTMDbID = errors.New("movie with this tmdb_id already exists")

const movieColumns = `id, tmdb_id, title, overview, release_date, genres,
		rating, popularity, poster_path, youtube_key, created_at, updated_at`

// MoviesRepository handles data access for the movies table.
type MoviesRepository struct {
	db *pgxpool.Pool
}

// NewMoviesRepository creates a new movies repository.
func NewMoviesRepository(db *pgxpool.Pool) *MoviesRepository {
	return &MoviesRepository{db: db}
}

// Create inserts a new movie. Returns ErrDuplicateTMDbID when the tmdb_id
// uniqueness constraint is violated.
func (r *MoviesRepository) Create(ctx context.Context, req *models.CreateMovieRequest) (*models.Movie, error) {
	query := `
		INSERT INTO movies (tmdb_id, title, overview, release_date, genres,
			rating, popularity, poster_path, youtube_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING ` + movieColumns

	var movie models.Movie

	err := r.db.QueryRow(ctx, query,
		req.TMDbID, req.Title, req.Overview, req.ReleaseDate, req.Genres,
		req.Rating, req.Popularity, req.PosterPath, req.YouTubeKey,
	).Scan(
		&movie.ID, &movie.TMDbID, &movie.Title, &movie.Overview, &movie.ReleaseDate, &movie.Genres,
		&movie.Rating, &movie.Popularity, &movie.PosterPath, &movie.YouTubeKey,
		&movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return nil, ErrDuplicateTMDbID
		}

		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	return &movie, nil
}

// GetByID retrieves a single movie by its internal ID.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id)
}

// GetByTMDbID retrieves a single movie by its TMDb ID.
func (r *MoviesRepository) GetByTMDbID(ctx context.Context, tmdbID int) (*models.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = $1`, tmdbID)
}

// GetByTitle retrieves a single movie by exact title, case-insensitively.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (*models.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE lower(title) = lower($1)`, title)
}

// Update refreshes a movie's metadata in place (re-ingestion refresh).
func (r *MoviesRepository) Update(ctx context.Context, id int64, req *models.CreateMovieRequest) (*models.Movie, error) {
	query := `
		UPDATE movies
		SET title = $2, overview = $3, release_date = $4, genres = $5,
			rating = $6, popularity = $7, poster_path = $8, youtube_key = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + movieColumns

	var movie models.Movie

	err := r.db.QueryRow(ctx, query,
		id, req.Title, req.Overview, req.ReleaseDate, req.Genres,
		req.Rating, req.Popularity, req.PosterPath, req.YouTubeKey,
	).Scan(
		&movie.ID, &movie.TMDbID, &movie.Title, &movie.Overview, &movie.ReleaseDate, &movie.Genres,
		&movie.Rating, &movie.Popularity, &movie.PosterPath, &movie.YouTubeKey,
		&movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("movie", "movie not found")
		}

		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	return &movie, nil
}

// ListMissingEmbeddings returns movies that have no stored embedding for the
// given model, oldest first. Used by the backfill tool.
func (r *MoviesRepository) ListMissingEmbeddings(ctx context.Context, model string, limit int) ([]*models.Movie, error) {
	query := `
		SELECT ` + movieColumns + `
		FROM movies m
		WHERE NOT EXISTS (
			SELECT 1 FROM movie_embeddings e
			WHERE e.movie_id = m.id AND e.model = $1
		)
		ORDER BY m.created_at
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, model, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies missing embeddings: %w", err)
	}
	defer rows.Close()

	var movies []*models.Movie

	for rows.Next() {
		var movie models.Movie
		if err := rows.Scan(
			&movie.ID, &movie.TMDbID, &movie.Title, &movie.Overview, &movie.ReleaseDate, &movie.Genres,
			&movie.Rating, &movie.Popularity, &movie.PosterPath, &movie.YouTubeKey,
			&movie.CreatedAt, &movie.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, &movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read movie rows: %w", err)
	}

	return movies, nil
}

// Count returns the number of movies in the catalog.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}

	return count, nil
}

func (r *MoviesRepository) getOne(ctx context.Context, query string, arg any) (*models.Movie, error) {
	var movie models.Movie

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&movie.ID, &movie.TMDbID, &movie.Title, &movie.Overview, &movie.ReleaseDate, &movie.Genres,
		&movie.Rating, &movie.Popularity, &movie.PosterPath, &movie.YouTubeKey,
		&movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("movie", "movie not found")
		}

		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return &movie, nil
}
