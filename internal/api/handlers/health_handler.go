// Package handlers contains the HTTP handlers for the engine API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextwatch/engine/internal/api/response"
)

// Pinger checks connectivity to a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil, in which case
// readiness reports ready without a database check.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health check response", "error", err)
	}
}

// Ready handles GET /health/ready. It pings the database with a short timeout.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			response.RespondError(w, http.StatusServiceUnavailable, "Service Unavailable", "database unreachable")
			return
		}
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
