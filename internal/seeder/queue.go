package seeder

import (
	"time"

	"github.com/nextwatch/engine/internal/models"
)

// queueItem is one element of the embedding queue: either a movie, or the
// close marker that tells the dispatcher no more work follows. The explicit
// closed flag avoids overloading a nil movie with two meanings.
type queueItem struct {
	movie  *models.Movie
	closed bool
}

// embedQueue is a bounded FIFO handoff between the page loop and the embedding
// dispatcher. Enqueue gives up after a short wait so a slow embedding provider
// back-pressures into dropped embeddings instead of stalling catalog ingestion.
type embedQueue struct {
	items chan queueItem
}

func newEmbedQueue(capacity int) *embedQueue {
	if capacity <= 0 {
		capacity = 1000
	}

	return &embedQueue{items: make(chan queueItem, capacity)}
}

// tryEnqueue offers a movie to the queue, waiting at most wait for capacity.
// Returns false if the queue stayed full; the item is then lost on purpose.
func (q *embedQueue) tryEnqueue(movie *models.Movie, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case q.items <- queueItem{movie: movie}:
		return true
	case <-timer.C:
		return false
	}
}

// tryClose offers the close marker, waiting at most wait for capacity.
// The marker sits behind all previously enqueued movies, so the dispatcher
// drains real work before it sees the close.
func (q *embedQueue) tryClose(wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case q.items <- queueItem{closed: true}:
		return true
	case <-timer.C:
		return false
	}
}

func (q *embedQueue) len() int { return len(q.items) }
