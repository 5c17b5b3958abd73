package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nextwatch/engine/internal/api/response"
	"github.com/nextwatch/engine/internal/api/validation"
	"github.com/nextwatch/engine/internal/seeder"
)

// SeedRunner defines the interface for triggering catalog ingestion.
type SeedRunner interface {
	SeedPopularMovies(ctx context.Context, maxMovies int) (seeder.Stats, error)
	Running() bool
}

// SeedRequest is the optional body for POST /v1/admin/seed.
type SeedRequest struct {
	MaxMovies int `json:"max_movies,omitempty" validate:"omitempty,gte=1,lte=10000"`
}

// SeedAccepted is the 202 response body for an accepted seed run.
type SeedAccepted struct {
	Status       string `json:"status"`
	TargetMovies int    `json:"target_movies"`
}

// SeedStatus is the response body for GET /v1/admin/seed/status.
type SeedStatus struct {
	Running bool `json:"running"`
}

// SeederHandler handles HTTP requests for catalog ingestion.
type SeederHandler struct {
	runner        SeedRunner
	defaultTarget int
	logger        *slog.Logger
}

// NewSeederHandler creates a new seeder handler. defaultTarget is used when
// the request body omits max_movies.
func NewSeederHandler(runner SeedRunner, defaultTarget int, logger *slog.Logger) *SeederHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SeederHandler{runner: runner, defaultTarget: defaultTarget, logger: logger}
}

// Trigger handles POST /v1/admin/seed. The run executes in the background and
// the handler responds 202 immediately, or 409 when a run is already active.
// Concurrent triggers that slip past the Running check are coalesced by the
// seeder's own single-flight guard.
func (h *SeederHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	if h.runner.Running() {
		response.RespondConflict(w, "seeding already in progress")
		return
	}

	target := req.MaxMovies
	if target <= 0 {
		target = h.defaultTarget
	}

	go func() {
		// Detached from the request context: the run outlives the response.
		stats, err := h.runner.SeedPopularMovies(context.Background(), target)
		switch {
		case errors.Is(err, seeder.ErrSeedingInProgress):
			h.logger.Warn("Seed trigger lost the race with an active run")
		case err != nil:
			h.logger.Error("Triggered seed run failed", "error", err)
		default:
			h.logger.Info("Triggered seed run finished",
				"fetched", stats.Fetched,
				"embedded", stats.Embedded,
				"skipped", stats.Skipped,
			)
		}
	}()

	response.RespondJSON(w, http.StatusAccepted, SeedAccepted{
		Status:       "accepted",
		TargetMovies: target,
	})
}

// Status handles GET /v1/admin/seed/status.
func (h *SeederHandler) Status(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, SeedStatus{Running: h.runner.Running()})
}
