package handlers

import (
	"net/http"

	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/study"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	svc     *study.Service
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(svc *study.Service, version string) *HealthHandler {
	return &HealthHandler{svc: svc, version: version}
}

// Health handles the /healthz endpoint. The store must answer a settings
// read for the service to report ok.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.GetSettings(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
