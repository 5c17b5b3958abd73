package seeder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextwatch/engine/pkg/tmdb"
)

// DetailClient fetches full movie details from the external catalog API.
type DetailClient interface {
	MovieDetails(ctx context.Context, tmdbID int) (*tmdb.MovieDetails, error)
}

// DetailFetcher resolves a page of movie stubs into full details using a
// bounded worker pool. Individual failures and timeouts drop that movie and
// log; they never fail the page.
type DetailFetcher struct {
	client  DetailClient
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewDetailFetcher creates a detail fetcher with the given parallelism and
// per-movie timeout.
func NewDetailFetcher(client DetailClient, workers int, timeout time.Duration, logger *slog.Logger) *DetailFetcher {
	if workers <= 0 {
		workers = 10
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DetailFetcher{client: client, workers: workers, timeout: timeout, logger: logger}
}

// FetchAll fetches details for every stub in parallel and returns the ones
// that succeeded, in completion order. A cancelled context stops scheduling
// new fetches; results gathered so far are still returned.
func (f *DetailFetcher) FetchAll(ctx context.Context, stubs []tmdb.MovieStub) []*tmdb.MovieDetails {
	var (
		mu      sync.Mutex
		results []*tmdb.MovieDetails
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for _, stub := range stubs {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, f.timeout)
			defer cancel()

			details, err := f.client.MovieDetails(fetchCtx, stub.ID)
			if err != nil {
				f.logger.Warn("failed to fetch movie details", "tmdb_id", stub.ID, "error", err)

				return nil
			}

			mu.Lock()
			results = append(results, details)
			mu.Unlock()

			return nil
		})
	}

	// Workers never return errors; Wait is for completion only.
	_ = g.Wait()

	return results
}
