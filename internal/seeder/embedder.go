package seeder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextwatch/engine/internal/models"
	"github.com/nextwatch/engine/internal/observability"
)

// MovieEmbedder computes and persists one movie's embedding.
type MovieEmbedder interface {
	EmbedMovie(ctx context.Context, movie *models.Movie) error
}

// EmbedPoolParams holds configuration for NewEmbedPool. Zero values fall back
// to defaults sized for a full catalog seeding run.
type EmbedPoolParams struct {
	Embedder      MovieEmbedder
	Workers       int           // concurrent embedding workers (default 5)
	QueueCapacity int           // bounded queue size (default 1000)
	MaxRetries    int           // retries after the first attempt (default 2)
	BackoffBase   time.Duration // sleep after attempt n is BackoffBase*(n+1) (default 1s)
	EnqueueWait   time.Duration // how long Enqueue waits for queue space (default 100ms)
	CloseWait     time.Duration // how long Drain waits to enqueue the close marker (default 1s)
	DrainTimeout  time.Duration // upper bound on waiting for in-flight work (default 5m)
	TaskTimeout   time.Duration // per-attempt embedding timeout (default 30s)
	Metrics       observability.EmbeddingMetrics
	Logger        *slog.Logger
}

// EmbedPool runs embedding asynchronously behind a bounded queue. A dispatcher
// goroutine feeds a fixed pool of workers; each worker retries transient
// failures with linear backoff before giving the movie up. The pool never
// blocks catalog ingestion: a full queue drops the embedding, not the movie.
type EmbedPool struct {
	queue    *embedQueue
	embedder MovieEmbedder
	params   EmbedPoolParams
	metrics  observability.EmbeddingMetrics
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	embedded atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewEmbedPool creates an embed pool. Call Start before Enqueue.
func NewEmbedPool(params EmbedPoolParams) *EmbedPool {
	if params.Workers <= 0 {
		params.Workers = 5
	}

	if params.QueueCapacity <= 0 {
		params.QueueCapacity = 1000
	}

	if params.MaxRetries < 0 {
		params.MaxRetries = 0
	}

	if params.BackoffBase <= 0 {
		params.BackoffBase = time.Second
	}

	if params.EnqueueWait <= 0 {
		params.EnqueueWait = 100 * time.Millisecond
	}

	if params.CloseWait <= 0 {
		params.CloseWait = time.Second
	}

	if params.DrainTimeout <= 0 {
		params.DrainTimeout = 5 * time.Minute
	}

	if params.TaskTimeout <= 0 {
		params.TaskTimeout = 30 * time.Second
	}

	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	return &EmbedPool{
		queue:    newEmbedQueue(params.QueueCapacity),
		embedder: params.Embedder,
		params:   params,
		metrics:  params.Metrics,
		logger:   params.Logger,
		done:     make(chan struct{}),
	}
}

// Start launches the dispatcher and workers. They run until Drain completes
// or ctx is cancelled.
func (p *EmbedPool) Start(ctx context.Context) {
	poolCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	tasks := make(chan *models.Movie)

	var wg sync.WaitGroup
	for i := 0; i < p.params.Workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for movie := range tasks {
				p.embedWithRetry(poolCtx, movie)
			}
		}()
	}

	go func() {
		p.dispatch(poolCtx, tasks)
		wg.Wait()
		close(p.done)
	}()
}

// Enqueue offers a saved movie for asynchronous embedding. Returns false when
// the queue stayed full for the configured wait; the movie keeps its catalog
// row and simply never becomes recommendable until a later re-seed.
func (p *EmbedPool) Enqueue(ctx context.Context, movie *models.Movie) bool {
	if !p.queue.tryEnqueue(movie, p.params.EnqueueWait) {
		p.dropped.Add(1)
		p.logger.Warn("embedding queue full, dropping movie", "movie_id", movie.ID, "title", movie.Title)

		if p.metrics != nil {
			p.metrics.RecordDropped(ctx, observability.DropReasonQueueFull)
		}

		return false
	}

	if p.metrics != nil {
		p.metrics.RecordEnqueued(ctx, 1)
	}

	return true
}

// Drain closes the queue and waits for queued and in-flight embeddings to
// finish, bounded by DrainTimeout. On timeout the remaining work is cancelled.
func (p *EmbedPool) Drain() {
	p.logger.Info("closing embedding queue, waiting for pending embeddings", "queued", p.queue.len())

	if !p.queue.tryClose(p.params.CloseWait) {
		p.logger.Warn("embedding queue full, could not enqueue close marker")
	}

	timer := time.NewTimer(p.params.DrainTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.logger.Warn("embedding drain timed out, cancelling in-flight work")
		p.cancel()
		<-p.done
	}

	p.cancel()
}

// Embedded returns the number of movies embedded successfully.
func (p *EmbedPool) Embedded() int64 { return p.embedded.Load() }

// Failed returns the number of movies that exhausted their retries.
func (p *EmbedPool) Failed() int64 { return p.failed.Load() }

// Dropped returns the number of movies rejected by a full queue.
func (p *EmbedPool) Dropped() int64 { return p.dropped.Load() }

// dispatch moves queue items onto the unbuffered task channel until it sees
// the close marker or the pool context is cancelled.
func (p *EmbedPool) dispatch(ctx context.Context, tasks chan<- *models.Movie) {
	defer close(tasks)

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-p.queue.items:
			if item.closed {
				return
			}

			select {
			case tasks <- item.movie:
			case <-ctx.Done():
				return
			}
		}
	}
}

// embedWithRetry attempts to embed one movie, retrying transient failures
// with linear backoff. Attempts beyond MaxRetries give the movie up for this run.
func (p *EmbedPool) embedWithRetry(ctx context.Context, movie *models.Movie) {
	start := time.Now()

	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.params.TaskTimeout)
		err := p.embedder.EmbedMovie(attemptCtx, movie)
		cancel()

		if err == nil {
			p.embedded.Add(1)
			p.logger.Debug("embedded movie", "movie_id", movie.ID, "title", movie.Title)

			if p.metrics != nil {
				p.metrics.RecordOutcome(ctx, observability.EmbeddingStatusSuccess)
				p.metrics.RecordDuration(ctx, time.Since(start), observability.EmbeddingStatusSuccess)
			}

			return
		}

		if ctx.Err() != nil {
			p.failed.Add(1)
			p.logger.Warn("embedding cancelled", "movie_id", movie.ID, "title", movie.Title)

			if p.metrics != nil {
				p.metrics.RecordOutcome(ctx, observability.EmbeddingStatusFailed)
			}

			return
		}

		if attempt < p.params.MaxRetries {
			p.logger.Warn("failed to embed movie, retrying",
				"movie_id", movie.ID,
				"title", movie.Title,
				"attempt", attempt+1,
				"error", err,
			)

			if p.metrics != nil {
				p.metrics.RecordOutcome(ctx, observability.EmbeddingStatusRetry)
			}

			if sleepCtx(ctx, p.params.BackoffBase*time.Duration(attempt+1)) {
				continue
			}

			// Context cancelled during backoff.
			p.failed.Add(1)

			return
		}

		p.failed.Add(1)
		p.logger.Error("failed to embed movie",
			"movie_id", movie.ID,
			"title", movie.Title,
			"attempts", p.params.MaxRetries+1,
			"error", err,
		)

		if p.metrics != nil {
			p.metrics.RecordOutcome(ctx, observability.EmbeddingStatusFailed)
			p.metrics.RecordDropped(ctx, observability.DropReasonRetryExhausted)
			p.metrics.RecordDuration(ctx, time.Since(start), observability.EmbeddingStatusFailed)
		}

		return
	}
}

// sleepCtx sleeps for d; returns false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
