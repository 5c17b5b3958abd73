package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is a versioned schema change applied exactly once.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrations is the ordered list of schema changes for the engine.
// The embedding column width must match the embedding client's dimension.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_movies",
		SQL: `
			CREATE TABLE IF NOT EXISTS movies (
				id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				tmdb_id      INTEGER NOT NULL UNIQUE,
				title        TEXT NOT NULL,
				overview     TEXT,
				release_date DATE,
				genres       TEXT NOT NULL DEFAULT '',
				rating       DOUBLE PRECISION,
				popularity   DOUBLE PRECISION,
				poster_path  TEXT,
				youtube_key  TEXT,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS idx_movies_title_lower ON movies (lower(title));`,
	},
	{
		Version: 2,
		Name:    "create_movie_embeddings",
		SQL: `
			CREATE EXTENSION IF NOT EXISTS vector;
			CREATE TABLE IF NOT EXISTS movie_embeddings (
				id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				movie_id   BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
				tmdb_id    INTEGER NOT NULL,
				title      TEXT NOT NULL,
				embedding  vector(1536) NOT NULL,
				model      TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (movie_id, model)
			);
			CREATE INDEX IF NOT EXISTS idx_movie_embeddings_model ON movie_embeddings (model);`,
	},
}

// Migrate applies pending migrations in version order. Each migration runs in
// its own transaction together with its schema_migrations record.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range Migrations {
		var applied bool
		err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}

		if applied {
			continue
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)

			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
		); err != nil {
			_ = tx.Rollback(ctx)

			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "name", m.Name)
	}

	return nil
}
