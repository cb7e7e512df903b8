package study

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/cadence"
	"github.com/sky-flux/cadence/internal/model"
	"github.com/sky-flux/cadence/internal/store"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeRecorder struct {
	reviews    []string
	intervals  []int
	lapses     int
	migrations int
}

func (r *fakeRecorder) RecordReview(mode, grade string, intervalDays int) {
	r.reviews = append(r.reviews, mode+"/"+grade)
	r.intervals = append(r.intervals, intervalDays)
}

func (r *fakeRecorder) RecordLapse() { r.lapses++ }

func (r *fakeRecorder) RecordMigrations(n int) { r.migrations += n }

type fixture struct {
	svc   *Service
	store *store.SQLiteStore
	clock *fakeClock
	rec   *fakeRecorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{store: st, clock: &fakeClock{t: t0}, rec: &fakeRecorder{}}
	opts = append([]Option{
		WithClock(f.clock.Now),
		WithMetrics(f.rec),
		WithLocation(time.UTC),
	}, opts...)
	f.svc = New(st, opts...)
	return f
}

func (f *fixture) settings(t *testing.T, mutate func(*model.Settings)) {
	t.Helper()
	s := model.DefaultSettings()
	mutate(&s)
	require.NoError(t, f.store.PutSettings(context.Background(), s))
}

func (f *fixture) add(t *testing.T, title string) *model.Lesson {
	t.Helper()
	l, err := f.svc.AddLesson(context.Background(), NewLesson{Title: title})
	require.NoError(t, err)
	return l
}

func TestAddLessonAdaptive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.AddLesson(ctx, NewLesson{Title: "  Cardiac cycle ", Subject: "Physiology"})
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Cardiac cycle", l.Title)
	assert.Equal(t, model.Uncategorized, l.Category)
	assert.Equal(t, cadence.Medium, l.Difficulty)
	assert.Equal(t, cadence.ModeAdaptive, l.Mode())
	assert.True(t, l.NextReviewAt.Equal(t0.AddDate(0, 0, 1)))

	got, err := f.svc.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	ms, ok := got.Schedule.(cadence.MemoryState)
	require.True(t, ok)
	assert.True(t, ms.IsNew())
}

func TestAddLessonLegacyCram(t *testing.T) {
	f := newFixture(t)
	f.settings(t, func(s *model.Settings) {
		s.UseAdaptive = false
		s.CramMode = true
		s.Intervals = []int{5, 10}
	})

	start := t0.AddDate(0, 0, -1)
	l, err := f.svc.AddLesson(context.Background(), NewLesson{
		Title:      "Renal",
		Category:   "Nephrology",
		Difficulty: cadence.High,
		StartDate:  start,
	})
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeLegacy, l.Mode())
	assert.Equal(t, cadence.LegacyFixedSchedule{}, l.Schedule)
	// ceil(5/2) = 3 days after the start date
	assert.True(t, l.NextReviewAt.Equal(start.AddDate(0, 0, 3)))
	assert.True(t, l.AddedAt.Equal(t0))
}

func TestAddLessonValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLesson(ctx, NewLesson{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddLesson(ctx, NewLesson{Title: "x", CustomIntervals: []int{1, 0}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddLesson(ctx, NewLesson{Title: "x", Difficulty: cadence.DifficultyLabel(9)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReviewAdaptive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Krebs cycle")

	f.clock.Advance(24 * time.Hour)
	out, err := f.svc.Review(ctx, l.ID, cadence.Good, WithDuration(4200))
	require.NoError(t, err)

	now := t0.Add(24 * time.Hour)
	assert.Equal(t, cadence.ModeAdaptive, out.Mode)
	assert.GreaterOrEqual(t, out.Interval, 1)
	assert.True(t, out.Due.Equal(now.AddDate(0, 0, out.Interval)))
	assert.False(t, out.Migrated)

	got, err := f.svc.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	ms := got.Schedule.(cadence.MemoryState)
	assert.Equal(t, cadence.Review, ms.Phase)
	assert.Equal(t, 1, ms.Reps)
	require.NotNil(t, ms.LastReviewedAt)
	assert.True(t, ms.LastReviewedAt.Equal(now))
	require.Len(t, got.ReviewHistory, 1)

	logs, err := f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, cadence.Good, logs[0].Grade)
	require.NotNil(t, logs[0].DurationMillis)
	assert.Equal(t, 4200, *logs[0].DurationMillis)

	act, err := f.svc.Activity(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []model.Activity{{Date: "2026-03-11", Count: 1}}, act)

	assert.Equal(t, []string{"adaptive/good"}, f.rec.reviews)
	assert.Zero(t, f.rec.lapses)
}

func TestReviewForgotCountsLapse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Coagulation")

	_, err := f.svc.Review(ctx, l.ID, cadence.Good)
	require.NoError(t, err)
	f.clock.Advance(72 * time.Hour)
	out, err := f.svc.Review(ctx, l.ID, cadence.Forgot)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Interval)
	ms := out.Lesson.Schedule.(cadence.MemoryState)
	assert.Equal(t, cadence.Relearning, ms.Phase)
	assert.Equal(t, 1, ms.Lapses)
	assert.Equal(t, 1, f.rec.lapses)
}

func TestReviewInvalidGradeAndMissingLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "x")

	_, err := f.svc.Review(ctx, l.ID, cadence.Grade(42))
	assert.ErrorIs(t, err, cadence.ErrInvalidGrade)

	_, err = f.svc.Review(ctx, "missing", cadence.Good)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewLegacyAdvancesAndCompletes(t *testing.T) {
	f := newFixture(t)
	f.settings(t, func(s *model.Settings) {
		s.UseAdaptive = false
		s.Intervals = []int{1, 3}
	})
	ctx := context.Background()
	l := f.add(t, "Cranial nerves")

	f.clock.Advance(24 * time.Hour)
	out, err := f.svc.Review(ctx, l.ID, cadence.Forgot)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeLegacy, out.Mode)
	assert.Equal(t, 3, out.Interval)
	assert.Equal(t, cadence.LegacyFixedSchedule{CurrentStage: 1}, out.Lesson.Schedule)
	assert.False(t, out.Completed)

	due := out.Due
	f.clock.Advance(72 * time.Hour)
	out, err = f.svc.MarkDone(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Zero(t, out.Interval)
	assert.True(t, out.Due.Equal(due), "completed lessons keep their last due date")
	assert.Len(t, out.Lesson.ReviewHistory, 2)

	_, err = f.svc.MarkDone(ctx, l.ID)
	assert.ErrorIs(t, err, ErrCompleted)
	assert.Equal(t, []string{"legacy/forgot", "legacy/good"}, f.rec.reviews)
}

func TestReviewMigratesLegacyWhenAdaptive(t *testing.T) {
	f := newFixture(t)
	f.settings(t, func(s *model.Settings) { s.UseAdaptive = false })
	ctx := context.Background()
	l := f.add(t, "Acid-base")
	_, err := f.svc.MarkDone(ctx, l.ID)
	require.NoError(t, err)

	f.settings(t, func(s *model.Settings) { s.UseAdaptive = true })

	// MarkDone keeps the legacy path.
	out, err := f.svc.MarkDone(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeLegacy, out.Mode)

	out, err = f.svc.Review(ctx, l.ID, cadence.Hard)
	require.NoError(t, err)
	assert.True(t, out.Migrated)
	assert.Equal(t, cadence.ModeAdaptive, out.Mode)
	ms := out.Lesson.Schedule.(cadence.MemoryState)
	assert.Equal(t, cadence.Review, ms.Phase)
	assert.Equal(t, 1, f.rec.migrations)
}

type failingStore struct {
	store.Store
	err error
}

func (s failingStore) RecordReview(context.Context, store.ReviewRecord) error { return s.err }

func (s failingStore) ResetLesson(context.Context, *model.Lesson) error { return s.err }

func TestReviewLeavesLessonUntouchedOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Cardiac cycle")

	errDisk := errors.New("disk full")
	svc := New(failingStore{Store: f.store, err: errDisk}, WithClock(f.clock.Now), WithLocation(time.UTC))

	_, err := svc.Review(ctx, l.ID, cadence.Good)
	require.ErrorIs(t, err, errDisk)

	got, err := f.store.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Schedule.(cadence.MemoryState).IsNew())
	assert.Empty(t, got.ReviewHistory)
	logs, err := f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
	act, err := f.store.ListActivity(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, act)

	// A retry after the failure applies exactly one transition.
	out, err := f.svc.Review(ctx, l.ID, cadence.Good)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Lesson.Schedule.(cadence.MemoryState).Reps)
	logs, err = f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = svc.ResetProgress(ctx, l.ID)
	require.ErrorIs(t, err, errDisk)
	logs, err = f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestConcurrentReviewsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Renal clearance")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Review(ctx, l.ID, cadence.Good)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, got.ReviewHistory, n)
	assert.Equal(t, n, got.Schedule.(cadence.MemoryState).Reps)
	logs, err := f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, logs, n)
}

func TestPreviewMatchesReviewForLegacyLessonInAdaptiveMode(t *testing.T) {
	f := newFixture(t)
	f.settings(t, func(s *model.Settings) { s.UseAdaptive = false })
	ctx := context.Background()
	l := f.add(t, "Loop of Henle")
	for range 2 {
		_, err := f.svc.MarkDone(ctx, l.ID)
		require.NoError(t, err)
	}

	f.settings(t, func(s *model.Settings) { s.UseAdaptive = true })

	p, err := f.svc.Preview(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeAdaptive, p.Mode)
	assert.True(t, p.Migrated)
	assert.Zero(t, p.NextInterval)
	require.Len(t, p.Options, 4)

	stored, err := f.svc.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeLegacy, stored.Mode(), "preview does not migrate")

	out, err := f.svc.Review(ctx, l.ID, cadence.Good)
	require.NoError(t, err)
	assert.True(t, out.Migrated)
	assert.Equal(t, p.Options[cadence.Good].Interval, out.Interval)
	assert.True(t, p.Options[cadence.Good].Due.Equal(out.Due))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Adaptive")

	p, err := f.svc.Preview(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeAdaptive, p.Mode)
	require.Len(t, p.Options, 4)
	assert.Equal(t, 1, p.Options[cadence.Forgot].Interval)
	assert.LessOrEqual(t, p.Options[cadence.Hard].Interval, p.Options[cadence.Good].Interval)
	assert.LessOrEqual(t, p.Options[cadence.Good].Interval, p.Options[cadence.Easy].Interval)
	assert.Nil(t, p.Retrievability)

	_, err = f.svc.Review(ctx, l.ID, cadence.Good)
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)
	p, err = f.svc.Preview(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Retrievability)
	assert.Less(t, *p.Retrievability, 1.0)

	f.settings(t, func(s *model.Settings) {
		s.UseAdaptive = false
		s.Intervals = []int{1, 10}
	})
	legacy := f.add(t, "Legacy")
	p, err = f.svc.Preview(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeLegacy, p.Mode)
	assert.Equal(t, 10, p.NextInterval)
	assert.Equal(t, "1w", p.Label)
}

func TestMigrateAll(t *testing.T) {
	f := newFixture(t)
	f.settings(t, func(s *model.Settings) { s.UseAdaptive = false })
	ctx := context.Background()

	a := f.add(t, "A")
	b := f.add(t, "B")
	for i := 0; i < 2; i++ {
		f.clock.Advance(24 * time.Hour)
		_, err := f.svc.MarkDone(ctx, a.ID)
		require.NoError(t, err)
	}
	f.settings(t, func(s *model.Settings) { s.UseAdaptive = true })
	c := f.add(t, "C")

	n, err := f.svc.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.rec.migrations)

	got, err := f.svc.GetLesson(ctx, a.ID)
	require.NoError(t, err)
	ms := got.Schedule.(cadence.MemoryState)
	assert.Equal(t, cadence.Review, ms.Phase)
	assert.Equal(t, 2, ms.Reps)
	assert.InDelta(t, 4.0, ms.Stability, 1e-9) // stage 2 of the default table
	assert.InDelta(t, 5.0, ms.Difficulty, 1e-9)
	require.NotNil(t, ms.LastReviewedAt)
	assert.True(t, ms.LastReviewedAt.Equal(t0.Add(48*time.Hour)))

	got, err = f.svc.GetLesson(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Schedule.(cadence.MemoryState).IsNew())

	got, err = f.svc.GetLesson(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.ModeAdaptive, got.Mode())

	n, err = f.svc.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResetProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Reset me")
	_, err := f.svc.Review(ctx, l.ID, cadence.Easy)
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	got, err := f.svc.ResetProgress(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Schedule.(cadence.MemoryState).IsNew())
	assert.Empty(t, got.ReviewHistory)
	assert.True(t, got.NextReviewAt.Equal(f.clock.Now().AddDate(0, 0, 1)))

	logs, err := f.store.ListReviewLogs(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	f.settings(t, func(s *model.Settings) { s.UseAdaptive = false })
	got, err = f.svc.ResetProgress(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, cadence.LegacyFixedSchedule{}, got.Schedule)
}

func TestEditLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.add(t, "Old")
	_, err := f.svc.Review(ctx, l.ID, cadence.Good)
	require.NoError(t, err)

	title, cat, label := "New", "Pharmacology", cadence.High
	ivls := []int{2, 4}
	got, err := f.svc.EditLesson(ctx, l.ID, LessonPatch{
		Title:           &title,
		Category:        &cat,
		Difficulty:      &label,
		CustomIntervals: &ivls,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Pharmacology", got.Category)
	assert.Equal(t, cadence.High, got.Difficulty)
	assert.Equal(t, []int{2, 4}, got.CustomIntervals)
	assert.Equal(t, 1, got.Schedule.(cadence.MemoryState).Reps, "schedule untouched")
	assert.Len(t, got.ReviewHistory, 1)

	empty := []int{}
	got, err = f.svc.EditLesson(ctx, l.ID, LessonPatch{CustomIntervals: &empty})
	require.NoError(t, err)
	assert.Nil(t, got.CustomIntervals)

	blank := " "
	_, err = f.svc.EditLesson(ctx, l.ID, LessonPatch{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.EditLesson(ctx, "missing", LessonPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateAndDeleteLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src, err := f.svc.AddLesson(ctx, NewLesson{Title: "Heart", Category: "Cardio", CustomIntervals: []int{3, 6}})
	require.NoError(t, err)
	_, err = f.svc.Review(ctx, src.ID, cadence.Good)
	require.NoError(t, err)

	f.clock.Advance(5 * 24 * time.Hour)
	cp, err := f.svc.DuplicateLesson(ctx, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Heart (Copy)", cp.Title)
	assert.Equal(t, "Cardio", cp.Category)
	assert.Empty(t, cp.ReviewHistory)
	assert.True(t, cp.Schedule.(cadence.MemoryState).IsNew())
	assert.True(t, cp.NextReviewAt.Equal(f.clock.Now().AddDate(0, 0, 3)))

	require.NoError(t, f.svc.DeleteLesson(ctx, src.ID))
	_, err = f.svc.GetLesson(ctx, src.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteLesson(ctx, src.ID), ErrNotFound)

	lessons, err := f.svc.ListLessons(ctx, "Cardio")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, cp.ID, lessons[0].ID)
}

func TestParseDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	f := newFixture(t, WithLocation(tokyo))

	d, err := f.svc.ParseDate("2026-04-01")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, tokyo)))

	for _, bad := range []string{"", "01/04/2026", "2026-13-01"} {
		_, err := f.svc.ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}
