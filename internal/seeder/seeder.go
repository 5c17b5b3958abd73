// Package seeder implements bulk catalog ingestion: paginated discovery from
// the external movie API, parallel detail fetching, quality-gated catalog
// writes, and asynchronous embedding behind a bounded queue.
package seeder

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/observability"
	"github.com/nextwatch/engine/pkg/tmdb"
)

// ErrSeedingInProgress is returned when a run is requested while another is active.
var ErrSeedingInProgress = huberrors.NewConflictError("seeding already in progress")

// Per-page stub count of the discovery endpoint; used to account a failed
// page as skipped movies.
const pageSize = 20

// PageLister returns one page of popular movie stubs.
type PageLister interface {
	PopularMovies(ctx context.Context, page int) ([]tmdb.MovieStub, error)
}

// Stats summarizes one completed seeding run.
type Stats struct {
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Embedded  int64         `json:"embedded"`
	Failed    int64         `json:"failed"`
	Dropped   int64         `json:"dropped"`
	PagesRead int           `json:"pages_read"`
	Duration  time.Duration `json:"-"`
}

// Params holds configuration for NewSeeder. Zero values fall back to
// defaults matching a full catalog build.
type Params struct {
	Pages        PageLister
	Fetcher      *DetailFetcher
	Writer       *CatalogWriter
	PoolParams   EmbedPoolParams
	PageLimit    int           // maximum pages walked per run (default 100)
	TargetMovies int           // default target when the caller passes 0 (default 2000)
	PageDelay    time.Duration // pacing between page requests (default 500ms)
	Metrics      observability.SeederMetrics
	Logger       *slog.Logger
}

// Seeder orchestrates a full ingestion run. At most one run is active per
// process; concurrent requests are rejected, not queued.
type Seeder struct {
	pages      PageLister
	fetcher    *DetailFetcher
	writer     *CatalogWriter
	poolParams EmbedPoolParams
	params     Params
	metrics    observability.SeederMetrics
	logger     *slog.Logger

	running atomic.Bool
}

// NewSeeder creates a seeder.
func NewSeeder(params Params) *Seeder {
	if params.PageLimit <= 0 {
		params.PageLimit = 100
	}

	if params.TargetMovies <= 0 {
		params.TargetMovies = 2000
	}

	if params.PageDelay <= 0 {
		params.PageDelay = 500 * time.Millisecond
	}

	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	return &Seeder{
		pages:      params.Pages,
		fetcher:    params.Fetcher,
		writer:     params.Writer,
		poolParams: params.PoolParams,
		params:     params,
		metrics:    params.Metrics,
		logger:     params.Logger,
	}
}

// Running reports whether a seeding run is currently active.
func (s *Seeder) Running() bool {
	return s.running.Load()
}

// SeedPopularMovies walks the popularity-ordered catalog until maxMovies are
// saved or the page limit is reached, then drains pending embeddings. Passing
// maxMovies <= 0 uses the configured default target. Returns
// ErrSeedingInProgress when another run holds the slot.
func (s *Seeder) SeedPopularMovies(ctx context.Context, maxMovies int) (Stats, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("seeding already in progress")

		if s.metrics != nil {
			s.metrics.RecordRun(ctx, observability.SeederStatusRejected)
		}

		return Stats{}, ErrSeedingInProgress
	}
	defer s.running.Store(false)

	if maxMovies <= 0 {
		maxMovies = s.params.TargetMovies
	}

	return s.run(ctx, maxMovies)
}

func (s *Seeder) run(ctx context.Context, maxMovies int) (Stats, error) {
	s.logger.Info("starting movie seeding process", "target", maxMovies, "page_limit", s.params.PageLimit)

	start := time.Now()
	stats := Stats{}

	pool := NewEmbedPool(s.poolParams)
	pool.Start(ctx)

	// Drain always runs so saved movies get their embeddings even when the
	// page loop stops early.
	defer func() {
		pool.Drain()

		stats.Embedded = pool.Embedded()
		stats.Failed = pool.Failed()
		stats.Dropped = pool.Dropped()
		stats.Duration = time.Since(start)

		s.logStatistics(stats)
		s.recordRunMetrics(ctx, stats)
	}()

	pacer := rate.NewLimiter(rate.Every(s.params.PageDelay), 1)

	for page := 1; page <= s.params.PageLimit; page++ {
		if stats.Fetched >= maxMovies {
			s.logger.Info("reached target movie count", "target", maxMovies)

			break
		}

		if ctx.Err() != nil {
			s.logger.Warn("seeding cancelled", "page", page)

			break
		}

		s.logger.Info("fetching page", "page", page, "page_limit", s.params.PageLimit)

		stubs, err := s.pages.PopularMovies(ctx, page)
		if err != nil {
			// One bad page costs its movies, never the run.
			s.logger.Error("error processing page", "page", page, "error", err)
			stats.Skipped += pageSize

			continue
		}

		stats.PagesRead++

		if len(stubs) == 0 {
			s.logger.Warn("no movies returned for page", "page", page)

			continue
		}

		s.processPage(ctx, pool, stubs, &stats)

		if stats.Fetched > 0 && stats.Fetched%100 == 0 {
			s.logger.Info("seeding progress", "fetched", stats.Fetched, "target", maxMovies)
		}

		if err := pacer.Wait(ctx); err != nil {
			s.logger.Warn("seeding interrupted during page delay")

			break
		}
	}

	return stats, nil
}

// processPage fetches details for a page of stubs and writes the survivors
// to the catalog, queueing each saved movie for embedding.
func (s *Seeder) processPage(ctx context.Context, pool *EmbedPool, stubs []tmdb.MovieStub, stats *Stats) {
	detailsList := s.fetcher.FetchAll(ctx, stubs)

	// Details that never came back still count as skipped.
	stats.Skipped += len(stubs) - len(detailsList)

	for _, details := range detailsList {
		result, err := s.writer.Write(ctx, details)
		if err != nil {
			s.logger.Warn("failed to save movie", "title", details.Title, "error", err)
			stats.Skipped++

			continue
		}

		switch result.Status {
		case StatusSaved:
			stats.Fetched++
			pool.Enqueue(ctx, result.Movie)
		case StatusSkippedExists, StatusSkippedBelowQuality:
			stats.Skipped++
		}
	}
}

func (s *Seeder) logStatistics(stats Stats) {
	s.logger.Info("seeding complete",
		"movies_added", stats.Fetched,
		"movies_skipped", stats.Skipped,
		"embedded", stats.Embedded,
		"embed_failed", stats.Failed,
		"embed_dropped", stats.Dropped,
		"pages_read", stats.PagesRead,
		"duration_seconds", int(stats.Duration.Seconds()),
	)

	if stats.Fetched > 0 && stats.Duration > 0 {
		s.logger.Info("seeding rate", "movies_per_second", float64(stats.Fetched)/stats.Duration.Seconds())
	}
}

func (s *Seeder) recordRunMetrics(ctx context.Context, stats Stats) {
	if s.metrics == nil {
		return
	}

	status := observability.SeederStatusCompleted
	if ctx.Err() != nil {
		status = observability.SeederStatusCancelled
	}

	s.metrics.RecordRun(ctx, status)
	s.metrics.RecordMoviesFetched(ctx, int64(stats.Fetched))
	s.metrics.RecordMoviesSkipped(ctx, int64(stats.Skipped))
	s.metrics.RecordRunDuration(ctx, stats.Duration, status)
}
