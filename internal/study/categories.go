package study

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
)

// ListCategories returns every category by name.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Service) findCategory(ctx context.Context, name string) (*model.Category, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Name == name {
			return &cats[i], nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
}

// RenameCategory moves a category and its lessons to a new name, merging
// into an existing category of that name.
func (s *Service) RenameCategory(ctx context.Context, oldName, newName string) (err error) {
	ctx, span := s.startSpan(ctx, "study.rename_category", attribute.String("category", oldName))
	defer func() { endSpan(span, err) }()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if newName == oldName {
		return nil
	}
	if err := s.store.RenameCategory(ctx, oldName, newName); err != nil {
		return fmt.Errorf("rename category %q: %w", oldName, err)
	}
	s.log.InfoContext(ctx, "category renamed", "from", oldName, "to", newName)
	return nil
}

// DeleteCategory removes a category. Its lessons are deleted with it when
// deleteLessons is set, otherwise they move to model.Uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, name string, deleteLessons bool) (err error) {
	ctx, span := s.startSpan(ctx, "study.delete_category",
		attribute.String("category", name),
		attribute.Bool("delete_lessons", deleteLessons),
	)
	defer func() { endSpan(span, err) }()

	if err := s.store.DeleteCategory(ctx, store.DeleteCategoryParams{
		Name:          name,
		DeleteLessons: deleteLessons,
	}); err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	s.log.InfoContext(ctx, "category deleted", "category", name, "delete_lessons", deleteLessons)
	return nil
}

// SetExamDate sets or, with nil, clears a category's exam date. The
// category is created when missing.
func (s *Service) SetExamDate(ctx context.Context, name string, exam *time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "study.set_exam_date", attribute.String("category", name))
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if exam != nil {
		day := s.dayStart(*exam)
		exam = &day
	}
	if err := s.store.PutCategory(ctx, model.Category{Name: name, ExamDate: exam}); err != nil {
		return fmt.Errorf("set exam date %q: %w", name, err)
	}
	return nil
}

// DaysUntilExam returns the whole days from today to the category's exam,
// negative once it has passed, or nil when no exam is set.
func (s *Service) DaysUntilExam(ctx context.Context, name string) (*int, error) {
	c, err := s.findCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	if c.ExamDate == nil {
		return nil, nil
	}
	days := s.daysBetween(s.now(), *c.ExamDate)
	return &days, nil
}
