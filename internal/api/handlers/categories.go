package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/study"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	svc       *study.Service
	logger    logger.Logger
	validator *validator.Validate
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc *study.Service, log logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		svc:       svc,
		logger:    log,
		validator: newValidator(),
	}
}

type updateCategoryRequest struct {
	// Name renames the category.
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	// ExamDate sets the exam day; an empty string clears it.
	ExamDate *string `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		fail(w, r, h.logger, "Failed to list categories", err)
		return
	}
	response.JSON(w, http.StatusOK, cats)
}

// UpdateCategory handles PUT /api/v1/categories/{name}. A rename is applied
// before the exam date, which then lands on the new name.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var exam *time.Time
	if req.ExamDate != nil && *req.ExamDate != "" {
		t, err := h.svc.ParseDate(*req.ExamDate)
		if err != nil {
			fail(w, r, h.logger, "Failed to parse exam date", err)
			return
		}
		exam = &t
	}

	if req.Name != nil {
		if err := h.svc.RenameCategory(ctx, name, *req.Name); err != nil {
			fail(w, r, h.logger, "Failed to rename category", err)
			return
		}
		name = *req.Name
	}
	if req.ExamDate != nil {
		if err := h.svc.SetExamDate(ctx, name, exam); err != nil {
			fail(w, r, h.logger, "Failed to set exam date", err)
			return
		}
	}

	days, err := h.svc.DaysUntilExam(ctx, name)
	if err != nil {
		fail(w, r, h.logger, "Failed to load category", err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"name":            name,
		"days_until_exam": days,
	})
}

// DeleteCategory handles DELETE /api/v1/categories/{name}?delete_lessons=true
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	deleteLessons := false
	if v := r.URL.Query().Get("delete_lessons"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "delete_lessons must be a boolean", getRequestID(r.Context()))
			return
		}
		deleteLessons = b
	}

	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "name"), deleteLessons); err != nil {
		fail(w, r, h.logger, "Failed to delete category", err)
		return
	}
	response.NoContent(w)
}
