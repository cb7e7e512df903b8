// Package api provides the HTTP API server started by cadence serve.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sky-flux/cadence/internal/api/handlers"
	"github.com/sky-flux/cadence/internal/api/middleware"
	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/config"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/metrics"
	"github.com/sky-flux/cadence/internal/study"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	Lessons    *handlers.LessonHandler
	Categories *handlers.CategoryHandler
	Settings   *handlers.SettingsHandler
	Stats      *handlers.StatsHandler
	Backup     *handlers.BackupHandler
	Health     *handlers.HealthHandler

	// Metrics is the optional metrics manager
	Metrics *metrics.Manager
}

// NewHandlers builds every handler over svc.
func NewHandlers(svc *study.Service, log logger.Logger, m *metrics.Manager, version string) *Handlers {
	return &Handlers{
		Lessons:    handlers.NewLessonHandler(svc, log),
		Categories: handlers.NewCategoryHandler(svc, log),
		Settings:   handlers.NewSettingsHandler(svc, log),
		Stats:      handlers.NewStatsHandler(svc, log),
		Backup:     handlers.NewBackupHandler(svc, log),
		Health:     handlers.NewHealthHandler(svc, version),
		Metrics:    m,
	}
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, h *Handlers) chi.Router {
	r := chi.NewRouter()

	metricsPath := ""
	if h.Metrics != nil && h.Metrics.Enabled() {
		metricsPath = cfg.Metrics.Path
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing("/healthz", metricsPath))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if metricsPath != "" {
		r.Use(middleware.Metrics(h.Metrics, metricsPath))
	}
	if cfg.Server.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Route not found", middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.ErrCodeMethodNotAllowed, "Method not allowed", middleware.GetRequestID(r.Context()))
	})

	RegisterRoutes(r, h)
	if metricsPath != "" {
		r.Method(http.MethodGet, metricsPath, h.Metrics.Handler())
	}
	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		if h.Lessons != nil {
			r.Route("/lessons", func(r chi.Router) {
				r.Post("/", h.Lessons.CreateLesson)
				r.Get("/", h.Lessons.ListLessons)
				r.Get("/due", h.Lessons.DueLessons)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Lessons.GetLesson)
					r.Patch("/", h.Lessons.UpdateLesson)
					r.Delete("/", h.Lessons.DeleteLesson)
					r.Post("/reviews", h.Lessons.ReviewLesson)
					r.Get("/preview", h.Lessons.PreviewLesson)
					r.Post("/reset", h.Lessons.ResetLesson)
					r.Post("/duplicate", h.Lessons.DuplicateLesson)
				})
			})
			r.Post("/migrate", h.Lessons.Migrate)
		}

		if h.Categories != nil {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.ListCategories)
				r.Put("/{name}", h.Categories.UpdateCategory)
				r.Delete("/{name}", h.Categories.DeleteCategory)
			})
		}

		if h.Settings != nil {
			r.Get("/settings", h.Settings.GetSettings)
			r.Put("/settings", h.Settings.UpdateSettings)
			r.Post("/optimize", h.Settings.Optimize)
		}

		if h.Stats != nil {
			r.Get("/stats", h.Stats.Stats)
		}

		if h.Backup != nil {
			r.Get("/export", h.Backup.Export)
			r.Post("/import", h.Backup.Import)
		}
	})

	if h.Health != nil {
		r.Get("/healthz", h.Health.Health)
	}
}
