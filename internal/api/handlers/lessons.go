package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/study"
)

// LessonHandler handles lesson endpoints.
type LessonHandler struct {
	svc       *study.Service
	logger    logger.Logger
	validator *validator.Validate
}

// NewLessonHandler creates a new lesson handler.
func NewLessonHandler(svc *study.Service, log logger.Logger) *LessonHandler {
	return &LessonHandler{
		svc:       svc,
		logger:    log,
		validator: newValidator(),
	}
}

type createLessonRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Category   string `json:"category,omitempty" validate:"max=100"`
	Subject    string `json:"subject,omitempty" validate:"max=100"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=low medium high easy hard"`
	Intervals  []int  `json:"intervals,omitempty" validate:"omitempty,max=32,dive,min=1,max=3650"`
	StartDate  string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type updateLessonRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Category   *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Subject    *string `json:"subject,omitempty" validate:"omitempty,max=100"`
	Difficulty *string `json:"difficulty,omitempty" validate:"omitempty,oneof=low medium high easy hard"`
	// An empty list reverts to the settings intervals.
	Intervals *[]int `json:"intervals,omitempty" validate:"omitempty,max=32,dive,min=1,max=3650"`
}

type reviewRequest struct {
	Grade      string `json:"grade,omitempty" validate:"required_without=Done"`
	Done       bool   `json:"done,omitempty"`
	DurationMS *int   `json:"duration_ms,omitempty" validate:"omitempty,gte=0"`
}

type lessonListResponse struct {
	Lessons []model.Lesson `json:"lessons"`
	Total   int            `json:"total"`
}

// CreateLesson handles POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	in := study.NewLesson{
		Title:           req.Title,
		Category:        req.Category,
		Subject:         req.Subject,
		CustomIntervals: req.Intervals,
	}
	if req.Difficulty != "" {
		d, err := cadence.ParseDifficultyLabel(req.Difficulty)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(r.Context()))
			return
		}
		in.Difficulty = d
	}
	if req.StartDate != "" {
		start, err := h.svc.ParseDate(req.StartDate)
		if err != nil {
			fail(w, r, h.logger, "Failed to parse start date", err)
			return
		}
		in.StartDate = start
	}

	l, err := h.svc.AddLesson(r.Context(), in)
	if err != nil {
		fail(w, r, h.logger, "Failed to add lesson", err)
		return
	}
	response.JSON(w, http.StatusCreated, l)
}

// ListLessons handles GET /api/v1/lessons?category=
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.svc.ListLessons(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		fail(w, r, h.logger, "Failed to list lessons", err)
		return
	}
	response.JSON(w, http.StatusOK, lessonListResponse{Lessons: lessons, Total: len(lessons)})
}

// DueLessons handles GET /api/v1/lessons/due?view=today|due|missed|cram
func (h *LessonHandler) DueLessons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		lessons []model.Lesson
		err     error
	)
	switch view := r.URL.Query().Get("view"); view {
	case "", "today":
		lessons, err = h.svc.Today(ctx)
	case "due":
		lessons, err = h.svc.DueToday(ctx)
	case "missed":
		lessons, err = h.svc.Missed(ctx)
	case "cram":
		lessons, err = h.svc.CramQueue(ctx)
	default:
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"view must be one of: today due missed cram", getRequestID(ctx))
		return
	}
	if err != nil {
		fail(w, r, h.logger, "Failed to list due lessons", err)
		return
	}
	response.JSON(w, http.StatusOK, lessonListResponse{Lessons: lessons, Total: len(lessons)})
}

// GetLesson handles GET /api/v1/lessons/{id}
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.GetLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "Failed to get lesson", err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

// UpdateLesson handles PATCH /api/v1/lessons/{id}
func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	var req updateLessonRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	p := study.LessonPatch{
		Title:           req.Title,
		Category:        req.Category,
		Subject:         req.Subject,
		CustomIntervals: req.Intervals,
	}
	if req.Difficulty != nil {
		d, err := cadence.ParseDifficultyLabel(*req.Difficulty)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(r.Context()))
			return
		}
		p.Difficulty = &d
	}

	l, err := h.svc.EditLesson(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		fail(w, r, h.logger, "Failed to edit lesson", err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

// DeleteLesson handles DELETE /api/v1/lessons/{id}
func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLesson(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "Failed to delete lesson", err)
		return
	}
	response.NoContent(w)
}

// DuplicateLesson handles POST /api/v1/lessons/{id}/duplicate
func (h *LessonHandler) DuplicateLesson(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.DuplicateLesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "Failed to duplicate lesson", err)
		return
	}
	response.JSON(w, http.StatusCreated, l)
}

// ReviewLesson handles POST /api/v1/lessons/{id}/reviews. With done set the
// lesson is marked done, keeping a legacy schedule in legacy mode.
func (h *LessonHandler) ReviewLesson(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	var opts []study.ReviewOption
	if req.DurationMS != nil {
		opts = append(opts, study.WithDuration(*req.DurationMS))
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	var (
		out *study.ReviewOutcome
		err error
	)
	if req.Done {
		out, err = h.svc.MarkDone(ctx, id, opts...)
	} else {
		g, perr := cadence.ParseGrade(req.Grade)
		if perr != nil {
			fail(w, r, h.logger, "Failed to parse grade", perr)
			return
		}
		out, err = h.svc.Review(ctx, id, g, opts...)
	}
	if err != nil {
		fail(w, r, h.logger, "Failed to review lesson", err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

// PreviewLesson handles GET /api/v1/lessons/{id}/preview
func (h *LessonHandler) PreviewLesson(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "Failed to preview lesson", err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// ResetLesson handles POST /api/v1/lessons/{id}/reset
func (h *LessonHandler) ResetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.ResetProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "Failed to reset lesson", err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

// Migrate handles POST /api/v1/migrate
func (h *LessonHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MigrateAll(r.Context())
	if err != nil {
		fail(w, r, h.logger, "Failed to migrate lessons", err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"migrated": n})
}
