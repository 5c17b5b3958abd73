package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrMovieEmbeddingNotFound is returned when no embedding row exists for the given movie and model.
var ErrMovieEmbeddingNotFound = errors.New("embedding not found for movie and model")

// MovieNeighbor is one nearest-neighbor hit: the movie's metadata mirror plus
// its cosine similarity score (0..1).
type MovieNeighbor struct {
	MovieID int64
	TMDbID  int
	Title   string
	Score   float64
}

// MovieEmbeddingsRepository handles data access for the movie_embeddings table.
// It is the process-local face of the vector store: embeddings in, nearest
// neighbors out.
type MovieEmbeddingsRepository struct {
	db *pgxpool.Pool
}

// NewMovieEmbeddingsRepository creates a new movie embeddings repository.
func NewMovieEmbeddingsRepository(db *pgxpool.Pool) *MovieEmbeddingsRepository {
	return &MovieEmbeddingsRepository{db: db}
}

// Upsert inserts or updates the embedding for (movie_id, model). The tmdb_id
// and title columns mirror the movie row so neighbor hits resolve without a join.
func (r *MovieEmbeddingsRepository) Upsert(
	ctx context.Context, movieID int64, tmdbID int, title, model string, embedding []float32,
) error {
	vec := pgvector.NewVector(embedding)
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO movie_embeddings (movie_id, tmdb_id, title, embedding, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (movie_id, model)
		DO UPDATE SET embedding = EXCLUDED.embedding, title = EXCLUDED.title, updated_at = $6`,
		movieID, tmdbID, title, vec, model, now,
	)
	if err != nil {
		return fmt.Errorf("movie embeddings upsert: %w", err)
	}

	return nil
}

// GetByMovieAndModel returns the stored embedding for the given movie and model.
// Returns ErrMovieEmbeddingNotFound when no row exists (movie not embedded yet).
func (r *MovieEmbeddingsRepository) GetByMovieAndModel(
	ctx context.Context, movieID int64, model string,
) ([]float32, error) {
	var vec pgvector.Vector

	err := r.db.QueryRow(ctx,
		`SELECT embedding FROM movie_embeddings WHERE movie_id = $1 AND model = $2`,
		movieID, model,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovieEmbeddingNotFound
		}

		return nil, fmt.Errorf("get movie embedding: %w", err)
	}

	return vec.Slice(), nil
}

// NearestByEmbedding returns the movies whose embeddings are nearest to
// queryEmbedding for the given model, best first. Uses cosine distance (<=>);
// score = 1 - distance.
func (r *MovieEmbeddingsRepository) NearestByEmbedding(
	ctx context.Context, model string, queryEmbedding []float32, limit int,
) ([]MovieNeighbor, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	rows, err := r.db.Query(ctx, `
		SELECT movie_id, tmdb_id, title, (1 - (embedding <=> $1)) AS score
		FROM movie_embeddings
		WHERE model = $2
		ORDER BY embedding <=> $1
		LIMIT $3`, queryVec, model, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest movies: %w", err)
	}

	defer rows.Close()

	var results []MovieNeighbor

	for rows.Next() {
		var n MovieNeighbor
		if err := rows.Scan(&n.MovieID, &n.TMDbID, &n.Title, &n.Score); err != nil {
			return nil, fmt.Errorf("scan movie neighbor: %w", err)
		}

		results = append(results, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest: %w", err)
	}

	return results, nil
}

// CountByModel returns the number of embedded movies for the given model.
func (r *MovieEmbeddingsRepository) CountByModel(ctx context.Context, model string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM movie_embeddings WHERE model = $1`, model,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movie embeddings: %w", err)
	}

	return count, nil
}
