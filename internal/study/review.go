package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
)

// ErrCompleted is returned when a completed legacy lesson is advanced again.
var ErrCompleted = errors.New("lesson already completed")

// ReviewOutcome is the result of Review and MarkDone.
type ReviewOutcome struct {
	Lesson    *model.Lesson `json:"lesson"`
	Mode      cadence.Mode  `json:"mode"`
	Grade     cadence.Grade `json:"grade"`
	Interval  int           `json:"interval"` // days; zero when the lesson completed
	Due       time.Time     `json:"due"`
	Completed bool          `json:"completed"`
	Migrated  bool          `json:"migrated,omitempty"`
}

// PreviewResult shows what reviewing a lesson would do.
type PreviewResult struct {
	Mode cadence.Mode `json:"mode"`
	// Options holds the outcome of each grade for adaptive lessons.
	Options map[cadence.Grade]cadence.Option `json:"options,omitempty"`
	// Retrievability is the current recall probability of a reviewed
	// adaptive lesson.
	Retrievability *float64 `json:"retrievability,omitempty"`
	// NextInterval is the legacy interval the next review would schedule.
	NextInterval int    `json:"next_interval,omitempty"`
	Label        string `json:"label,omitempty"`
	Completed    bool   `json:"completed,omitempty"`
	// Migrated is set when the lesson is still legacy and a review would
	// move it to adaptive scheduling first.
	Migrated bool `json:"migrated,omitempty"`
}

type reviewOptions struct {
	durationMillis *int
}

// ReviewOption configures a single review.
type ReviewOption func(*reviewOptions)

// WithDuration records how long the review took.
func WithDuration(ms int) ReviewOption {
	return func(o *reviewOptions) {
		if ms >= 0 {
			o.durationMillis = &ms
		}
	}
}

// Review records a graded review. Adaptive lessons go through the memory
// model; legacy lessons advance one stage and ignore the grade, unless
// adaptive scheduling is on, in which case they are migrated first.
func (s *Service) Review(ctx context.Context, id string, g cadence.Grade, opts ...ReviewOption) (*ReviewOutcome, error) {
	return s.review(ctx, id, g, false, opts)
}

// MarkDone reviews a lesson without a grade. Legacy lessons advance one
// stage whatever the current mode; adaptive lessons are reviewed as good.
func (s *Service) MarkDone(ctx context.Context, id string, opts ...ReviewOption) (*ReviewOutcome, error) {
	return s.review(ctx, id, cadence.Good, true, opts)
}

func (s *Service) review(ctx context.Context, id string, g cadence.Grade, keepLegacy bool, opts []ReviewOption) (_ *ReviewOutcome, err error) {
	ctx, span := s.startSpan(ctx, "study.review",
		attribute.String("lesson.id", id),
		attribute.String("review.grade", g.String()),
	)
	defer func() { endSpan(span, err) }()

	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", cadence.ErrInvalidGrade, int(g))
	}
	var ro reviewOptions
	for _, opt := range opts {
		opt(&ro)
	}

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
	now := s.now()
	intervals := l.Intervals(settings.Intervals)

	out := &ReviewOutcome{Lesson: l, Grade: g}
	lapsed := false

	legacy, isLegacy := l.Schedule.(cadence.LegacyFixedSchedule)
	if l.Schedule == nil {
		isLegacy = true
	}
	if isLegacy && settings.UseAdaptive && !keepLegacy {
		l.Schedule = s.migrate(l, intervals)
		isLegacy = false
		out.Migrated = true
		s.metrics.RecordMigrations(1)
	}

	if isLegacy {
		if legacy.Completed {
			return nil, fmt.Errorf("review lesson %s: %w", id, ErrCompleted)
		}
		res := cadence.LegacyAdvance(legacy, intervals, settings.CramMode, now)
		l.Schedule = res.Schedule
		if !res.Due.IsZero() {
			l.NextReviewAt = res.Due
		}
		out.Interval = res.Interval
		out.Completed = res.Schedule.Completed
	} else {
		prior, _ := l.Schedule.(cadence.MemoryState)
		res, err := s.scheduler(ctx, settings).ProcessReview(cadence.ReviewInput{
			State:            &prior,
			Grade:            g,
			DesiredRetention: settings.DesiredRetention,
			Now:              now,
			CreatedAt:        l.AddedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("review lesson %s: %w", id, err)
		}
		l.Schedule = res.State
		l.NextReviewAt = res.Due
		out.Interval = res.Interval
		lapsed = res.State.Lapses > prior.Lapses
	}
	out.Mode = l.Mode()
	out.Due = l.NextReviewAt
	l.ReviewHistory = append(l.ReviewHistory, now)

	if err := s.store.RecordReview(ctx, store.ReviewRecord{
		Lesson: l,
		Log: cadence.ReviewLog{
			ItemID:         l.ID,
			Grade:          g,
			ReviewedAt:     now,
			DurationMillis: ro.durationMillis,
		},
		Date:        s.dateKey(now),
		PruneBefore: s.dateKey(now.Add(-ActivityRetention)),
	}); err != nil {
		return nil, fmt.Errorf("review lesson %s: %w", id, err)
	}

	s.metrics.RecordReview(string(out.Mode), g.String(), out.Interval)
	if lapsed {
		s.metrics.RecordLapse()
	}
	span.SetAttributes(
		attribute.String("lesson.mode", string(out.Mode)),
		attribute.Int("review.interval_days", out.Interval),
	)
	s.log.InfoContext(ctx, "lesson reviewed",
		"lesson_id", l.ID,
		"mode", out.Mode,
		"grade", g,
		"interval", out.Interval,
		"completed", out.Completed,
	)
	return out, nil
}

// Preview reports the outcome of each possible answer without changing
// anything.
func (s *Service) Preview(ctx context.Context, id string) (_ *PreviewResult, err error) {
	ctx, span := s.startSpan(ctx, "study.preview", attribute.String("lesson.id", id))
	defer func() { endSpan(span, err) }()

	l, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	state, ok := l.Schedule.(cadence.MemoryState)
	if !ok {
		legacy, _ := l.Schedule.(cadence.LegacyFixedSchedule)
		if !settings.UseAdaptive {
			return previewLegacy(legacy, l.Intervals(settings.Intervals), settings.CramMode), nil
		}
		// Review migrates the lesson first; show what that would schedule.
		state = s.migrate(l, l.Intervals(settings.Intervals))
	}

	sch := s.scheduler(ctx, settings)
	res := &PreviewResult{
		Mode: cadence.ModeAdaptive,
		Options: sch.Preview(cadence.ReviewInput{
			State:            &state,
			DesiredRetention: settings.DesiredRetention,
			Now:              now,
			CreatedAt:        l.AddedAt,
		}),
		Migrated: !ok,
	}
	if state.LastReviewedAt != nil {
		r := sch.Retrievability(state, now)
		res.Retrievability = &r
	}
	return res, nil
}

func previewLegacy(legacy cadence.LegacyFixedSchedule, intervals []int, cram bool) *PreviewResult {
	if legacy.Completed {
		return &PreviewResult{Mode: cadence.ModeLegacy, Completed: true}
	}
	days := cadence.LegacyNextInterval(legacy, intervals, cram)
	return &PreviewResult{
		Mode:         cadence.ModeLegacy,
		NextInterval: days,
		Label:        cadence.FormatInterval(float64(days)),
	}
}

func (s *Service) migrate(l *model.Lesson, intervals []int) cadence.MemoryState {
	legacy, _ := l.Schedule.(cadence.LegacyFixedSchedule)
	return cadence.ToAdaptive(legacy, cadence.LegacyMigration{
		Intervals:      intervals,
		Label:          l.Difficulty,
		ReviewCount:    len(l.ReviewHistory),
		LastReviewedAt: l.LastReviewedAt(),
	})
}

// MigrateAll moves every legacy lesson to adaptive scheduling and returns
// how many were migrated. Due dates are kept; adaptive lessons are left as
// they are, so running it twice migrates nothing the second time.
func (s *Service) MigrateAll(ctx context.Context) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "study.migrate_all")
	defer func() { endSpan(span, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	settings, err := s.settings(ctx)
	if err != nil {
		return 0, err
	}
	lessons, err := s.ListLessons(ctx, "")
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range lessons {
		l := &lessons[i]
		if l.Mode() != cadence.ModeLegacy {
			continue
		}
		l.Schedule = s.migrate(l, l.Intervals(settings.Intervals))
		if err := s.store.PutLesson(ctx, l); err != nil {
			return n, fmt.Errorf("migrate lesson %s: %w", l.ID, err)
		}
		n++
	}

	s.metrics.RecordMigrations(n)
	span.SetAttributes(attribute.Int("migrated", n))
	s.log.InfoContext(ctx, "lessons migrated", "count", n)
	return n, nil
}
