package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/campusboard/server/supabase"
	"github.com/campusboard/server/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker is a dependency that can report whether it is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// KeyCacheReporter exposes the signing key cache state
type KeyCacheReporter interface {
	GetCacheStats() supabase.CacheStats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     HealthChecker
	keys   KeyCacheReporter
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. keys may be nil.
func NewHealthHandler(db HealthChecker, keys KeyCacheReporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		keys:   keys,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Only the database gates readiness. Signing keys are fetched lazily, so an
// empty key cache is reported but does not fail the check.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch {
	case h.db == nil:
		checks["database"] = "not_initialized"
		allHealthy = false
	default:
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			allHealthy = false
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.keys != nil {
		if stats := h.keys.GetCacheStats(); stats.CachedKeys > 0 {
			checks["signing_keys"] = "cached"
		} else {
			checks["signing_keys"] = "not_loaded"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
