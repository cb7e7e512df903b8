package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/study"
)

// BackupHandler handles export and import of the whole store.
type BackupHandler struct {
	svc       *study.Service
	logger    logger.Logger
	validator *validator.Validate
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(svc *study.Service, log logger.Logger) *BackupHandler {
	return &BackupHandler{
		svc:       svc,
		logger:    log,
		validator: newValidator(),
	}
}

// Export handles GET /api/v1/export
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Export(r.Context())
	if err != nil {
		fail(w, r, h.logger, "Failed to export", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="cadence-backup.json"`)
	response.JSON(w, http.StatusOK, b)
}

// Import handles POST /api/v1/import. The body replaces all stored data.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	var b model.Backup
	if !decode(w, r, h.validator, &b) {
		return
	}
	if err := h.svc.Import(r.Context(), b); err != nil {
		fail(w, r, h.logger, "Failed to import", err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{
		"lessons":     len(b.Lessons),
		"review_logs": len(b.ReviewLogs),
	})
}
