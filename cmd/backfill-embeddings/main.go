// backfill-embeddings embeds catalog movies that have no stored vector for the
// configured model. Run this when rows were ingested while the embedding
// provider was down, or after switching models.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/nextwatch/engine/internal/embeddings"
	"github.com/nextwatch/engine/internal/openai"
	"github.com/nextwatch/engine/internal/repository"
	"github.com/nextwatch/engine/pkg/database"
)

const (
	defaultBatchLimit = 5000
	exitSuccess       = 0
	exitFailure       = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env for consistency with the main API server (godotenv.Load() there).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	limit := getEnvAsInt("BACKFILL_LIMIT", defaultBatchLimit)
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	rps := getEnvAsInt("EMBEDDING_RATE_LIMIT", 0)

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	var client embeddings.Client
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		client = openai.NewClient(apiKey)
	} else {
		client = embeddings.NewMockClient()
		slog.Warn("OPENAI_API_KEY not set, using deterministic mock embeddings")
	}

	moviesRepo := repository.NewMoviesRepository(db)
	embeddingsRepo := repository.NewMovieEmbeddingsRepository(db)

	service := embeddings.NewService(embeddings.ServiceParams{
		Client:            client,
		Store:             embeddingsRepo,
		RequestsPerSecond: float64(rps),
	})

	movies, err := moviesRepo.ListMissingEmbeddings(ctx, service.Model(), limit)
	if err != nil {
		slog.Error("Failed to list movies missing embeddings", "error", err)

		return exitFailure
	}

	var embedded, failed int

	for _, movie := range movies {
		if err := service.EmbedMovie(ctx, movie); err != nil {
			slog.Error("Failed to embed movie", "movie_id", movie.ID, "title", movie.Title, "error", err)
			failed++

			continue
		}
		embedded++
	}

	slog.Info("Backfill complete", "embedded", embedded, "failed", failed, "model", service.Model())

	fmt.Printf("Embedded %d movie(s), %d failed.\n", embedded, failed)

	if failed > 0 && embedded == 0 {
		return exitFailure
	}

	return exitSuccess
}

func getEnvAsInt(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}

	return n
}
