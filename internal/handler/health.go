package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/guild-dashboard/internal/repository"
)

const pingTimeout = 2 * time.Second

// HealthResponse is the body of the database health endpoint.
type HealthResponse struct {
	Status    string         `json:"status"` // healthy | unhealthy | error
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthHandler reports whether the settings store answers.
type HealthHandler struct {
	db     repository.HealthChecker // nil when no database is configured
	logger *slog.Logger
	now    func() time.Time
}

func NewHealthHandler(db repository.HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger, now: time.Now}
}

// ServeHTTP handles /api/health/db.
//
//	200 healthy   → the store answered a ping
//	503 unhealthy → the ping failed
//	500 error     → there is no store at all
//	405           → any method but GET
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNoStore)

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error:   "method_not_allowed",
			Message: "only GET is supported",
		})
		return
	}

	if h.db == nil {
		writeJSON(w, http.StatusInternalServerError, HealthResponse{
			Status:    "error",
			Message:   "database is not configured",
			Timestamp: h.now().UTC(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("database health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Message:   "database connection failed",
			Timestamp: h.now().UTC(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Message:   "database connection successful",
		Timestamp: h.now().UTC(),
		Details: map[string]any{
			"latencyMs": time.Since(start).Milliseconds(),
		},
	})
}
