package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/pkg/cache"
	"github.com/nextwatch/engine/pkg/tmdb"
)

const resolverCacheSize = 512

// MovieFinder is the subset of the movies repository the resolver needs.
type MovieFinder interface {
	GetByTitle(ctx context.Context, title string) (*models.Movie, error)
	GetByTMDbID(ctx context.Context, tmdbID int) (*models.Movie, error)
}

// SearchClient looks up movies on the external catalog API by title.
type SearchClient interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.MovieStub, error)
	MovieDetails(ctx context.Context, tmdbID int) (*tmdb.MovieDetails, error)
}

// DetailSaver persists fetched details as a catalog row, tolerating duplicate
// races. Implemented by the ingestion pipeline's catalog writer.
type DetailSaver interface {
	SaveDetails(ctx context.Context, details *tmdb.MovieDetails) (*models.Movie, error)
}

// Resolver turns user-supplied titles into catalog rows, fetching unknown
// titles from the external API on demand. Resolved titles are cached;
// concurrent lookups for the same title are coalesced so one burst of
// identical requests costs one external search.
//
// Resolution does not create embeddings: user-selected movies are reference
// points for the similarity query, and only seeded movies are recommendable.
type Resolver struct {
	movies MovieFinder
	search SearchClient
	saver  DetailSaver
	cache  *cache.LoaderCache[string, *models.Movie]
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(movies MovieFinder, search SearchClient, saver DetailSaver, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	titleCache, err := cache.NewLoaderCache[string, *models.Movie](resolverCacheSize, strings.ToLower)
	if err != nil {
		return nil, fmt.Errorf("create resolver cache: %w", err)
	}

	return &Resolver{
		movies: movies,
		search: search,
		saver:  saver,
		cache:  titleCache,
		logger: logger,
	}, nil
}

// ResolveAll resolves every title in order. A title that cannot be resolved
// anywhere fails the whole call; callers treat that as a request-level error.
func (r *Resolver) ResolveAll(ctx context.Context, titles []string) ([]models.Movie, error) {
	movies := make([]models.Movie, 0, len(titles))

	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		movie, err := r.Resolve(ctx, title)
		if err != nil {
			return nil, err
		}

		movies = append(movies, *movie)
	}

	return movies, nil
}

// Resolve finds a movie by title in the catalog, falling back to an external
// search plus save for unknown titles.
func (r *Resolver) Resolve(ctx context.Context, title string) (*models.Movie, error) {
	return r.cache.Get(ctx, title, r.findOrCreate)
}

func (r *Resolver) findOrCreate(ctx context.Context, title string) (*models.Movie, error) {
	existing, err := r.movies.GetByTitle(ctx, title)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, huberrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup movie %q: %w", title, err)
	}

	stubs, err := r.search.SearchMovies(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("search movie %q: %w", title, err)
	}

	if len(stubs) == 0 {
		return nil, huberrors.NewNotFoundError("movie", fmt.Sprintf("movie not found: %s", title))
	}

	details, err := r.search.MovieDetails(ctx, stubs[0].ID)
	if err != nil {
		return nil, fmt.Errorf("fetch details for %q: %w", title, err)
	}

	// The title may already be known under its canonical name.
	if existing, err := r.movies.GetByTMDbID(ctx, details.ID); err == nil {
		return existing, nil
	}

	movie, err := r.saver.SaveDetails(ctx, details)
	if err != nil {
		return nil, err
	}

	r.logger.Info("fetched and saved user-selected movie", "title", movie.Title, "tmdb_id", movie.TMDbID)

	return movie, nil
}
