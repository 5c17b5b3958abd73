package seeder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextwatch/engine/pkg/tmdb"
)

type mockDetailClient struct {
	detailsFunc func(ctx context.Context, tmdbID int) (*tmdb.MovieDetails, error)
}

func (m *mockDetailClient) MovieDetails(ctx context.Context, tmdbID int) (*tmdb.MovieDetails, error) {
	return m.detailsFunc(ctx, tmdbID)
}

func TestDetailFetcherFetchAll(t *testing.T) {
	t.Run("fetches all stubs in parallel", func(t *testing.T) {
		client := &mockDetailClient{
			detailsFunc: func(_ context.Context, tmdbID int) (*tmdb.MovieDetails, error) {
				return &tmdb.MovieDetails{ID: tmdbID, Title: "movie"}, nil
			},
		}

		fetcher := NewDetailFetcher(client, 4, time.Second, nil)

		stubs := []tmdb.MovieStub{{ID: 1}, {ID: 2}, {ID: 3}}
		results := fetcher.FetchAll(context.Background(), stubs)

		require.Len(t, results, 3)

		seen := map[int]bool{}
		for _, details := range results {
			seen[details.ID] = true
		}

		assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
	})

	t.Run("drops failed fetches without failing the page", func(t *testing.T) {
		client := &mockDetailClient{
			detailsFunc: func(_ context.Context, tmdbID int) (*tmdb.MovieDetails, error) {
				if tmdbID == 2 {
					return nil, errors.New("upstream 500")
				}

				return &tmdb.MovieDetails{ID: tmdbID}, nil
			},
		}

		fetcher := NewDetailFetcher(client, 2, time.Second, nil)

		results := fetcher.FetchAll(context.Background(), []tmdb.MovieStub{{ID: 1}, {ID: 2}, {ID: 3}})

		require.Len(t, results, 2)
		for _, details := range results {
			assert.NotEqual(t, 2, details.ID)
		}
	})

	t.Run("respects worker limit", func(t *testing.T) {
		var (
			mu      sync.Mutex
			active  int
			maxSeen int
		)

		client := &mockDetailClient{
			detailsFunc: func(_ context.Context, tmdbID int) (*tmdb.MovieDetails, error) {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()

				return &tmdb.MovieDetails{ID: tmdbID}, nil
			},
		}

		fetcher := NewDetailFetcher(client, 2, time.Second, nil)

		stubs := make([]tmdb.MovieStub, 8)
		for i := range stubs {
			stubs[i] = tmdb.MovieStub{ID: i + 1}
		}

		results := fetcher.FetchAll(context.Background(), stubs)

		assert.Len(t, results, 8)
		assert.LessOrEqual(t, maxSeen, 2)
	})
}
