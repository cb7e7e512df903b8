package study

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
)

// NewLesson describes a lesson to add.
type NewLesson struct {
	Title      string
	Category   string // empty for model.Uncategorized
	Subject    string
	Difficulty cadence.DifficultyLabel // zero for Medium
	// CustomIntervals replaces the settings table for this lesson.
	CustomIntervals []int
	// StartDate is when the lesson was first studied; zero for now.
	StartDate time.Time
}

// LessonPatch lists the fields EditLesson changes; nil fields are kept.
// The schedule and history are never touched.
type LessonPatch struct {
	Title      *string
	Category   *string
	Subject    *string
	Difficulty *cadence.DifficultyLabel
	// CustomIntervals set to an empty slice reverts to the settings table.
	CustomIntervals *[]int
}

func validateIntervals(ivls []int) error {
	for _, d := range ivls {
		if d < 1 {
			return fmt.Errorf("%w: intervals must be at least one day, got %d", ErrInvalidInput, d)
		}
	}
	return nil
}

// freshSchedule is the schedule a lesson starts with under settings.
func freshSchedule(settings model.Settings) cadence.ItemSchedule {
	if settings.UseAdaptive {
		return cadence.NewMemoryState()
	}
	return cadence.LegacyFixedSchedule{}
}

// AddLesson stores a new lesson scheduled by the current mode. The first
// review falls one (cram-adjusted) first interval after the start date.
func (s *Service) AddLesson(ctx context.Context, in NewLesson) (_ *model.Lesson, err error) {
	ctx, span := s.startSpan(ctx, "study.add_lesson")
	defer func() { endSpan(span, err) }()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Difficulty == 0 {
		in.Difficulty = cadence.Medium
	}
	if !in.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: difficulty %d", ErrInvalidInput, int(in.Difficulty))
	}
	if err := validateIntervals(in.CustomIntervals); err != nil {
		return nil, err
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.Uncategorized
	}

	l := &model.Lesson{
		Title:           title,
		Category:        category,
		Subject:         strings.TrimSpace(in.Subject),
		Difficulty:      in.Difficulty,
		AddedAt:         now,
		Schedule:        freshSchedule(settings),
		CustomIntervals: slices.Clone(in.CustomIntervals),
	}
	l.NextReviewAt = cadence.LegacyInitialDue(start, l.Intervals(settings.Intervals), settings.CramMode)

	if err := s.store.PutLesson(ctx, l); err != nil {
		return nil, fmt.Errorf("add lesson: %w", err)
	}
	span.SetAttributes(attribute.String("lesson.id", l.ID), attribute.String("lesson.mode", string(l.Mode())))
	s.log.InfoContext(ctx, "lesson added", "lesson_id", l.ID, "mode", l.Mode(), "due", l.NextReviewAt)
	return l, nil
}

// GetLesson returns one lesson.
func (s *Service) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	return s.getLesson(ctx, id)
}

// ListLessons returns all lessons, or those of one category, by due date.
func (s *Service) ListLessons(ctx context.Context, category string) ([]model.Lesson, error) {
	lessons, err := s.store.ListLessons(ctx, store.ListParams{Category: category})
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// EditLesson applies p to a lesson.
func (s *Service) EditLesson(ctx context.Context, id string, p LessonPatch) (_ *model.Lesson, err error) {
	ctx, span := s.startSpan(ctx, "study.edit_lesson", attribute.String("lesson.id", id))
	defer func() { endSpan(span, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	l, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		l.Title = title
	}
	if p.Category != nil {
		l.Category = strings.TrimSpace(*p.Category)
		if l.Category == "" {
			l.Category = model.Uncategorized
		}
	}
	if p.Subject != nil {
		l.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Difficulty != nil {
		if !p.Difficulty.IsValid() {
			return nil, fmt.Errorf("%w: difficulty %d", ErrInvalidInput, int(*p.Difficulty))
		}
		l.Difficulty = *p.Difficulty
	}
	if p.CustomIntervals != nil {
		if err := validateIntervals(*p.CustomIntervals); err != nil {
			return nil, err
		}
		l.CustomIntervals = nil
		if len(*p.CustomIntervals) > 0 {
			l.CustomIntervals = slices.Clone(*p.CustomIntervals)
		}
	}

	if err := s.store.PutLesson(ctx, l); err != nil {
		return nil, fmt.Errorf("edit lesson %s: %w", id, err)
	}
	s.log.DebugContext(ctx, "lesson edited", "lesson_id", id)
	return l, nil
}

// DeleteLesson removes a lesson and its review logs.
func (s *Service) DeleteLesson(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "study.delete_lesson", attribute.String("lesson.id", id))
	defer func() { endSpan(span, err) }()

	if err := s.store.DeleteLesson(ctx, id); err != nil {
		return fmt.Errorf("delete lesson %s: %w", id, err)
	}
	s.log.InfoContext(ctx, "lesson deleted", "lesson_id", id)
	return nil
}

// DuplicateLesson copies a lesson's content under the title "<title> (Copy)".
// The copy starts over: fresh schedule in the current mode, no history,
// first review one interval from now.
func (s *Service) DuplicateLesson(ctx context.Context, id string) (_ *model.Lesson, err error) {
	ctx, span := s.startSpan(ctx, "study.duplicate_lesson", attribute.String("lesson.id", id))
	defer func() { endSpan(span, err) }()

	src, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cp := &model.Lesson{
		Title:           src.Title + " (Copy)",
		Category:        src.Category,
		Subject:         src.Subject,
		Difficulty:      src.Difficulty,
		AddedAt:         now,
		Schedule:        freshSchedule(settings),
		CustomIntervals: slices.Clone(src.CustomIntervals),
	}
	cp.NextReviewAt = cadence.LegacyInitialDue(now, cp.Intervals(settings.Intervals), settings.CramMode)

	if err := s.store.PutLesson(ctx, cp); err != nil {
		return nil, fmt.Errorf("duplicate lesson %s: %w", id, err)
	}
	s.log.InfoContext(ctx, "lesson duplicated", "lesson_id", id, "copy_id", cp.ID)
	return cp, nil
}

// ResetProgress puts a lesson back at the start of the current mode's
// schedule, clears its history and drops its review logs.
func (s *Service) ResetProgress(ctx context.Context, id string) (_ *model.Lesson, err error) {
	ctx, span := s.startSpan(ctx, "study.reset_progress", attribute.String("lesson.id", id))
	defer func() { endSpan(span, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	l, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	l.Schedule = freshSchedule(settings)
	l.ReviewHistory = nil
	l.NextReviewAt = cadence.LegacyInitialDue(s.now(), l.Intervals(settings.Intervals), settings.CramMode)

	if err := s.store.ResetLesson(ctx, l); err != nil {
		return nil, fmt.Errorf("reset lesson %s: %w", id, err)
	}
	s.log.InfoContext(ctx, "lesson progress reset", "lesson_id", id, "mode", l.Mode())
	return l, nil
}
