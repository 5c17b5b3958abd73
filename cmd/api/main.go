package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/nextwatch/engine/internal/api/handlers"
	"github.com/nextwatch/engine/internal/api/middleware"
	"github.com/nextwatch/engine/internal/config"
	"github.com/nextwatch/engine/internal/embeddings"
	"github.com/nextwatch/engine/internal/observability"
	"github.com/nextwatch/engine/internal/openai"
	"github.com/nextwatch/engine/internal/recommend"
	"github.com/nextwatch/engine/internal/repository"
	"github.com/nextwatch/engine/internal/seeder"
	"github.com/nextwatch/engine/internal/worker"
	"github.com/nextwatch/engine/pkg/database"
	"github.com/nextwatch/engine/pkg/tmdb"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Metrics are optional; a nil meter disables every recorder.
	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics exporter", "error", err)
		os.Exit(1)
	}

	var metrics *observability.Metrics
	if meterProvider != nil {
		metrics, err = observability.NewMetrics(meterProvider.Meter("nextwatch-engine"))
		if err != nil {
			slog.Error("Failed to create metric recorders", "error", err)
			os.Exit(1)
		}
		slog.Info("Metrics enabled", "exporter", cfg.OtelMetricsExporter)
	} else {
		metrics = &observability.Metrics{}
	}

	// Initialize database connection; pgvector types are registered per connection.
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	moviesRepo := repository.NewMoviesRepository(db)
	embeddingsRepo := repository.NewMovieEmbeddingsRepository(db)

	tmdbClient := tmdb.NewClientWithOptions(tmdb.ClientOptions{
		BaseURL:     cfg.TMDbBaseURL,
		AccessToken: cfg.TMDbAPIKey,
	})

	// Without an OpenAI key the engine stays functional on deterministic
	// hash embeddings (local development); explanations fall back to canned text.
	var embedClient embeddings.Client
	var llm recommend.CompletionClient
	if cfg.OpenAIAPIKey != "" {
		openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
		embedClient = openaiClient
		llm = openaiClient
		slog.Info("AI enrichment enabled", "embedding_model", embeddings.DefaultModel)
	} else {
		embedClient = embeddings.NewMockClient()
		slog.Warn("OPENAI_API_KEY not set, using deterministic mock embeddings")
	}

	embedService := embeddings.NewService(embeddings.ServiceParams{
		Client:            embedClient,
		Store:             embeddingsRepo,
		RequestsPerSecond: float64(cfg.EmbeddingRateLimit),
	})

	// Ingestion pipeline
	catalogWriter := seeder.NewCatalogWriter(moviesRepo, tmdbClient, cfg.SeederMinRating, nil)
	detailFetcher := seeder.NewDetailFetcher(tmdbClient, cfg.SeederFetchWorkers, 15*time.Second, nil)
	catalogSeeder := seeder.NewSeeder(seeder.Params{
		Pages:   tmdbClient,
		Fetcher: detailFetcher,
		Writer:  catalogWriter,
		PoolParams: seeder.EmbedPoolParams{
			Embedder:      embedService,
			Workers:       cfg.SeederEmbedWorkers,
			QueueCapacity: cfg.SeederQueueCapacity,
			MaxRetries:    cfg.SeederEmbedRetries,
			Metrics:       metrics.Embeddings,
		},
		PageLimit:    cfg.SeederPageLimit,
		TargetMovies: cfg.SeederTargetMovies,
		PageDelay:    time.Duration(cfg.SeederPageDelayMs) * time.Millisecond,
		Metrics:      metrics.Seeder,
	})

	// Recommendation engine
	resolver, err := recommend.NewResolver(moviesRepo, tmdbClient, catalogWriter, nil)
	if err != nil {
		slog.Error("Failed to create title resolver", "error", err)
		os.Exit(1)
	}

	retriever := recommend.NewRetriever(
		embedService, embeddingsRepo, moviesRepo, embedService.Model(), metrics.Recommendations, nil,
	)
	explainer := recommend.NewExplainer(llm, nil)
	recommendService := recommend.NewService(recommend.ServiceParams{
		Resolver:           resolver,
		Retriever:          retriever,
		Explainer:          explainer,
		ImageBaseURL:       cfg.TMDbImageBaseURL,
		MaxRecommendations: cfg.MaxRecommendations,
		Metrics:            metrics.Recommendations,
	})

	healthHandler := handlers.NewHealthHandler(db)
	recommendationsHandler := handlers.NewRecommendationsHandler(recommendService)
	seederHandler := handlers.NewSeederHandler(catalogSeeder, cfg.SeederTargetMovies, nil)

	// Public endpoints (no authentication required)
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)
	publicMux.HandleFunc("GET /health/ready", healthHandler.Ready)

	// Admin endpoints (authentication required when API_KEY is set)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /v1/admin/seed", seederHandler.Trigger)
	adminMux.HandleFunc("GET /v1/admin/seed/status", seederHandler.Status)

	var adminHandler http.Handler = adminMux
	adminHandler = middleware.Auth(cfg.APIKey)(adminHandler)

	mainMux := http.NewServeMux()
	mainMux.HandleFunc("POST /v1/recommendations", recommendationsHandler.Create)
	mainMux.Handle("/v1/admin/", adminHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, etc.)

	// Middleware chain: Metrics outermost so duration covers the full request.
	var handler http.Handler = mainMux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes, metrics.HTTP)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Metrics(metrics.HTTP)(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Background catalog seeding: startup seed plus weekly refresh.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	seedScheduler := worker.NewSeedScheduler(
		catalogSeeder, cfg.SeedOnStartup, cfg.SeederTargetMovies, cfg.WeeklyRefreshMovies,
	)
	go seedScheduler.Start(workerCtx)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop the seed scheduler; an active run drains its embedding queue
	// within the seeder's own bounded drain window.
	workerCancel()

	// 3. Flush metrics
	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Metrics exporter forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level. Log records pick
// up the request id from context when present.
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewRequestContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}
