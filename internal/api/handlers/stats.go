package handlers

import (
	"net/http"
	"strconv"

	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/study"
)

const defaultActivityDays = 30

// StatsHandler handles progress reporting.
type StatsHandler struct {
	svc    *study.Service
	logger logger.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *study.Service, log logger.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: log}
}

type statsResponse struct {
	Mastery    study.MasteryStats   `json:"mastery"`
	Categories []study.CategoryStat `json:"categories"`
	Activity   []model.Activity     `json:"activity"`
}

// Stats handles GET /api/v1/stats?category=&days=
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	days := defaultActivityDays
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "days must be a positive integer", getRequestID(ctx))
			return
		}
		days = n
	}

	var (
		res statsResponse
		err error
	)
	if res.Mastery, err = h.svc.MasteryStats(ctx, q.Get("category")); err != nil {
		fail(w, r, h.logger, "Failed to compute mastery", err)
		return
	}
	if res.Categories, err = h.svc.CategoryStats(ctx); err != nil {
		fail(w, r, h.logger, "Failed to compute category stats", err)
		return
	}
	if res.Activity, err = h.svc.Activity(ctx, days); err != nil {
		fail(w, r, h.logger, "Failed to load activity", err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
