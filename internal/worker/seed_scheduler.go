// Package worker provides background workers for the recommendation engine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nextwatch/engine/internal/seeder"
)

// SeedRunner defines the interface for triggering catalog seeding runs.
type SeedRunner interface {
	SeedPopularMovies(ctx context.Context, maxMovies int) (seeder.Stats, error)
}

// SeedScheduler is a background worker that builds the catalog once shortly
// after startup and then refreshes it on a fixed weekly cadence. Runs that
// collide with an already-active seeding are skipped, not queued.
type SeedScheduler struct {
	runner          SeedRunner
	startupDelay    time.Duration
	refreshInterval time.Duration
	initialMovies   int
	refreshMovies   int
	seedOnStartup   bool
}

// NewSeedScheduler creates a seed scheduler.
func NewSeedScheduler(
	runner SeedRunner, seedOnStartup bool, initialMovies, refreshMovies int,
) *SeedScheduler {
	if initialMovies <= 0 {
		initialMovies = 2000
	}

	if refreshMovies <= 0 {
		refreshMovies = 500
	}

	return &SeedScheduler{
		runner:          runner,
		startupDelay:    30 * time.Second,
		refreshInterval: 7 * 24 * time.Hour,
		initialMovies:   initialMovies,
		refreshMovies:   refreshMovies,
		seedOnStartup:   seedOnStartup,
	}
}

// Start begins the scheduler loop. It runs until the context is cancelled.
func (w *SeedScheduler) Start(ctx context.Context) {
	slog.Info("seed scheduler started",
		"seed_on_startup", w.seedOnStartup,
		"initial_movies", w.initialMovies,
		"refresh_movies", w.refreshMovies,
		"refresh_interval", w.refreshInterval,
	)

	if w.seedOnStartup {
		// Give the database and downstream providers time to come up.
		select {
		case <-ctx.Done():
			slog.Info("seed scheduler stopped")

			return
		case <-time.After(w.startupDelay):
		}

		w.runOnce(ctx, w.initialMovies, "initial catalog seed")
	}

	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("seed scheduler stopped")

			return
		case <-ticker.C:
			w.runOnce(ctx, w.refreshMovies, "weekly catalog refresh")
		}
	}
}

// runOnce executes a single seeding run.
func (w *SeedScheduler) runOnce(ctx context.Context, maxMovies int, reason string) {
	slog.Info("starting scheduled seeding run", "reason", reason, "target", maxMovies)

	stats, err := w.runner.SeedPopularMovies(ctx, maxMovies)
	if err != nil {
		if errors.Is(err, seeder.ErrSeedingInProgress) {
			slog.Warn("skipping scheduled seeding run, one is already active", "reason", reason)

			return
		}

		slog.Error("scheduled seeding run failed", "reason", reason, "error", err)

		return
	}

	slog.Info("scheduled seeding run completed",
		"reason", reason,
		"fetched", stats.Fetched,
		"skipped", stats.Skipped,
		"embedded", stats.Embedded,
		"duration", stats.Duration,
	)
}
