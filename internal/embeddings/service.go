package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/pkg/vectors"
)

// DefaultModel is the embedding model recorded alongside stored vectors.
const DefaultModel = "text-embedding-3-small"

// EmbeddingWriter is the subset of the embeddings repository the service needs.
type EmbeddingWriter interface {
	Upsert(ctx context.Context, movieID int64, tmdbID int, title, model string, embedding []float32) error
}

// Service turns movies into embedding vectors and persists them. It also
// embeds free-form query text for the retrieval path, so ingestion and search
// share one provider budget and one model name.
type Service struct {
	client  Client
	store   EmbeddingWriter
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Client Client
	Store  EmbeddingWriter
	Model  string
	// RequestsPerSecond caps calls to the embedding provider across both
	// ingestion and query embedding. Zero or negative disables the limiter.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// NewService creates an embedding service.
func NewService(params ServiceParams) *Service {
	model := params.Model
	if model == "" {
		model = DefaultModel
	}

	var limiter *rate.Limiter
	if params.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(params.RequestsPerSecond), 1)
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		client:  params.Client,
		store:   params.Store,
		model:   model,
		limiter: limiter,
		logger:  logger,
	}
}

// Model returns the embedding model name stored with each vector.
func (s *Service) Model() string { return s.model }

// EmbedMovie computes the embedding for a movie's text representation and
// upserts it into the vector store.
func (s *Service) EmbedMovie(ctx context.Context, movie *models.Movie) error {
	embedding, err := s.EmbedText(ctx, MovieText(movie))
	if err != nil {
		return fmt.Errorf("embed movie %q: %w", movie.Title, err)
	}

	if err := s.store.Upsert(ctx, movie.ID, movie.TMDbID, movie.Title, s.model, embedding); err != nil {
		return fmt.Errorf("store embedding for movie %q: %w", movie.Title, err)
	}

	s.logger.Debug("stored embedding", "movie_id", movie.ID, "title", movie.Title, "model", s.model)

	return nil
}

// EmbedText embeds arbitrary text and returns the L2-normalized vector.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit: %w", err)
		}
	}

	embedding, err := s.client.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	vectors.NormalizeL2(embedding)

	return embedding, nil
}

// MovieText builds the text representation of a movie that gets embedded.
// Field labels keep the document self-describing for the embedding model.
func MovieText(movie *models.Movie) string {
	var text strings.Builder

	text.WriteString("Title: " + movie.Title + "\n")

	if movie.ReleaseDate != nil {
		text.WriteString("Release Date: " + movie.ReleaseDate.Format("2006-01-02") + "\n")
	}

	if movie.Genres != "" {
		text.WriteString("Genres: " + movie.Genres + "\n")
	}

	if movie.Rating != nil {
		text.WriteString(fmt.Sprintf("Rating: %.1f/10\n", *movie.Rating))
	}

	if movie.Popularity != nil {
		text.WriteString(fmt.Sprintf("Popularity: %.1f\n", *movie.Popularity))
	}

	if movie.Overview != nil && *movie.Overview != "" {
		text.WriteString("Overview: " + *movie.Overview + "\n")
	}

	return text.String()
}
