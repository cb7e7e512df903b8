package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/study"
)

// SettingsHandler handles settings and parameter optimization endpoints.
type SettingsHandler struct {
	svc       *study.Service
	logger    logger.Logger
	validator *validator.Validate
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc *study.Service, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		svc:       svc,
		logger:    log,
		validator: newValidator(),
	}
}

type updateSettingsRequest struct {
	Intervals        *[]int   `json:"intervals,omitempty" validate:"omitempty,min=1,max=32,dive,min=1,max=3650"`
	CramMode         *bool    `json:"cram_mode,omitempty"`
	UseAdaptive      *bool    `json:"use_adaptive,omitempty"`
	DesiredRetention *float64 `json:"desired_retention,omitempty" validate:"omitempty,gt=0,lt=1"`
	ResetParameters  bool     `json:"reset_parameters,omitempty"`
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSettings(r.Context())
	if err != nil {
		fail(w, r, h.logger, "Failed to load settings", err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// UpdateSettings handles PUT /api/v1/settings. Omitted fields are kept.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	s, err := h.svc.UpdateSettings(r.Context(), study.SettingsPatch{
		Intervals:        req.Intervals,
		CramMode:         req.CramMode,
		UseAdaptive:      req.UseAdaptive,
		DesiredRetention: req.DesiredRetention,
		ResetParameters:  req.ResetParameters,
	})
	if err != nil {
		fail(w, r, h.logger, "Failed to update settings", err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// Optimize handles POST /api/v1/optimize?apply=true
func (h *SettingsHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	apply := false
	if v := r.URL.Query().Get("apply"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "apply must be a boolean", getRequestID(r.Context()))
			return
		}
		apply = b
	}

	res, err := h.svc.Optimize(r.Context(), apply)
	if err != nil {
		fail(w, r, h.logger, "Failed to optimize parameters", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
