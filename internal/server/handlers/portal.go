package handlers

import (
	"net/http"

	"pr-radar/internal/core"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// PortalHandler serves service-level endpoints
type PortalHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       *core.Database
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(logger *core.Logger, registry *core.Registry, db *core.Database) *PortalHandler {
	return &PortalHandler{
		logger:   logger,
		registry: registry,
		db:       db,
	}
}

// HealthCheckHandler provides a health check endpoint
func (h *PortalHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("Health check database ping failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	core.WriteJSON(w, code, map[string]any{
		"status":  status,
		"service": "pr-radar",
		"version": Version,
	})
}

// FeaturesHandler lists registered features
func (h *PortalHandler) FeaturesHandler(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"features": h.registry.GetFeatureStatus(),
	})
}
