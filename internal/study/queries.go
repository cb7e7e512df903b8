package study

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sky-flux/cadence/internal/model"
)

// MasteryStats summarizes progress over a set of lessons.
type MasteryStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Percent    int `json:"percent"`
}

// CategoryStat is the progress of one category toward its exam.
type CategoryStat struct {
	Name          string     `json:"name"`
	ExamDate      *time.Time `json:"exam_date,omitempty"`
	Total         int        `json:"total"`
	Completed     int        `json:"completed"`
	Pending       int        `json:"pending"`
	DaysUntilExam *int       `json:"days_until_exam,omitempty"`
	// Warning is set when more than three pending lessons remain per day
	// left before the exam.
	Warning bool `json:"warning"`
}

// filterDue returns open lessons whose local due day satisfies keep.
// Completed legacy lessons are never due.
func (s *Service) filterDue(ctx context.Context, keep func(due, today time.Time) bool) ([]model.Lesson, error) {
	lessons, err := s.ListLessons(ctx, "")
	if err != nil {
		return nil, err
	}
	today := s.dayStart(s.now())
	out := make([]model.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l.Completed() {
			continue
		}
		if keep(s.dayStart(l.NextReviewAt), today) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Today returns lessons due today or overdue.
func (s *Service) Today(ctx context.Context) ([]model.Lesson, error) {
	return s.filterDue(ctx, func(due, today time.Time) bool { return !due.After(today) })
}

// DueToday returns lessons whose due date is today.
func (s *Service) DueToday(ctx context.Context) ([]model.Lesson, error) {
	return s.filterDue(ctx, func(due, today time.Time) bool { return due.Equal(today) })
}

// Missed returns lessons whose due date has passed.
func (s *Service) Missed(ctx context.Context) ([]model.Lesson, error) {
	return s.filterDue(ctx, func(due, today time.Time) bool { return due.Before(today) })
}

// CramQueue returns lessons due within CramWindow, hardest first. It is
// empty unless cram mode is on.
func (s *Service) CramQueue(ctx context.Context) ([]model.Lesson, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.CramMode {
		return []model.Lesson{}, nil
	}
	lessons, err := s.ListLessons(ctx, "")
	if err != nil {
		return nil, err
	}

	horizon := s.now().Add(CramWindow)
	out := make([]model.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if !l.Completed() && !l.NextReviewAt.After(horizon) {
			out = append(out, l)
		}
	}
	// Stable on the store's due-date order.
	slices.SortStableFunc(out, func(a, b model.Lesson) int {
		return int(b.Difficulty) - int(a.Difficulty)
	})
	return out, nil
}

func masteryOf(lessons []model.Lesson) MasteryStats {
	st := MasteryStats{Total: len(lessons)}
	for i := range lessons {
		if lessons[i].Mastered() {
			st.Completed++
		}
	}
	st.InProgress = st.Total - st.Completed
	if st.Total > 0 {
		st.Percent = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}

// MasteryStats counts mastered lessons, optionally within one category.
func (s *Service) MasteryStats(ctx context.Context, category string) (MasteryStats, error) {
	lessons, err := s.ListLessons(ctx, category)
	if err != nil {
		return MasteryStats{}, err
	}
	return masteryOf(lessons), nil
}

// CategoryStats reports progress and exam pressure for every category.
func (s *Service) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	lessons, err := s.ListLessons(ctx, "")
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]model.Lesson, len(cats))
	for _, l := range lessons {
		byCategory[l.Category] = append(byCategory[l.Category], l)
	}

	now := s.now()
	out := make([]CategoryStat, 0, len(cats))
	for _, c := range cats {
		m := masteryOf(byCategory[c.Name])
		st := CategoryStat{
			Name:      c.Name,
			ExamDate:  c.ExamDate,
			Total:     m.Total,
			Completed: m.Completed,
			Pending:   m.InProgress,
		}
		if c.ExamDate != nil {
			days := s.daysBetween(now, *c.ExamDate)
			st.DaysUntilExam = &days
			st.Warning = days > 0 && st.Pending > 0 && float64(st.Pending)/float64(days) > 3
		}
		out = append(out, st)
	}
	return out, nil
}

// Activity returns daily review counts for the last days days, oldest first.
func (s *Service) Activity(ctx context.Context, days int) ([]model.Activity, error) {
	if days <= 0 {
		days = 365
	}
	since := s.dayStart(s.now()).AddDate(0, 0, -(days - 1))
	act, err := s.store.ListActivity(ctx, s.dateKey(since))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return act, nil
}
