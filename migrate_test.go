package cadence

import (
	"encoding/json"
	"testing"
)

func TestMigrateLegacyToAdaptive(t *testing.T) {
	last := t0.AddDate(0, 0, -2)
	got := MigrateLegacyToAdaptive(LegacyMigration{
		Schedule:       LegacyFixedSchedule{CurrentStage: 2},
		Intervals:      DefaultIntervals,
		Label:          Medium,
		ReviewCount:    2,
		LastReviewedAt: &last,
	})
	assertFloat(t, "Stability", got.Stability, 4)
	assertFloat(t, "Difficulty", got.Difficulty, 5)
	if got.Phase != Review || got.Reps != 2 || got.Lapses != 0 || got.ScheduledDays != 4 {
		t.Errorf("migrated = %+v", got)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(last) {
		t.Errorf("LastReviewedAt = %v, want %v", got.LastReviewedAt, last)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMigrateLabels(t *testing.T) {
	want := map[DifficultyLabel]float64{Low: 3, Medium: 5, High: 7, DifficultyLabel(0): 5}
	for l, d := range want {
		got := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 1}, Intervals: DefaultIntervals, Label: l, ReviewCount: 1})
		assertFloat(t, l.String(), got.Difficulty, d)
	}
}

func TestMigrateRepsUsesLarger(t *testing.T) {
	got := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 3}, Intervals: DefaultIntervals, ReviewCount: 1})
	if got.Reps != 3 {
		t.Errorf("Reps = %d, want 3", got.Reps)
	}
	got = MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 1}, Intervals: DefaultIntervals, ReviewCount: 6})
	if got.Reps != 6 {
		t.Errorf("Reps = %d, want 6", got.Reps)
	}
}

func TestMigrateNeverReviewed(t *testing.T) {
	last := t0
	got := MigrateLegacyToAdaptive(LegacyMigration{Intervals: DefaultIntervals, Label: High, LastReviewedAt: &last})
	if got.Phase != New || got.LastReviewedAt != nil {
		t.Errorf("migrated = %+v, want new without review time", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMigrateWithoutHistory(t *testing.T) {
	got := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 3}, Intervals: DefaultIntervals, Label: Medium})
	if got.Phase != Review || got.Reps != 3 {
		t.Fatalf("migrated = %+v, want review phase with 3 reps", got)
	}
	if got.LastReviewedAt != nil {
		t.Errorf("LastReviewedAt = %v, want nil without history", got.LastReviewedAt)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMigrateStagePastTable(t *testing.T) {
	got := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 40, Completed: true}, Intervals: DefaultIntervals, ReviewCount: 6})
	assertFloat(t, "Stability", got.Stability, 30)
}

func TestMigrateEmptyTable(t *testing.T) {
	got := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 2}, ReviewCount: 2})
	assertFloat(t, "Stability", got.Stability, 1)
	if got.ScheduledDays != 1 {
		t.Errorf("ScheduledDays = %d, want 1", got.ScheduledDays)
	}
}

func TestMigrateThenReview(t *testing.T) {
	s := mustScheduler(t)
	created := t0.AddDate(0, 0, -6)
	m := MigrateLegacyToAdaptive(LegacyMigration{Schedule: LegacyFixedSchedule{CurrentStage: 2}, Intervals: DefaultIntervals, Label: Medium, ReviewCount: 2})
	res := mustReview(t, s, ReviewInput{State: &m, Grade: Good, DesiredRetention: 0.9, Now: t0, CreatedAt: created})
	if res.State.ElapsedDays != 6 {
		t.Errorf("ElapsedDays = %d, want 6 (from creation)", res.State.ElapsedDays)
	}
	if res.State.Stability <= 4 {
		t.Errorf("Stability = %f, want growth past 4", res.State.Stability)
	}
	if res.State.Reps != 3 {
		t.Errorf("Reps = %d, want 3", res.State.Reps)
	}
}

func TestParseDifficultyLabel(t *testing.T) {
	tests := map[string]DifficultyLabel{"low": Low, "Easy": Low, "MEDIUM": Medium, "high": High, "hard": High}
	for in, want := range tests {
		got, err := ParseDifficultyLabel(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficultyLabel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDifficultyLabel("extreme"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestDifficultyLabelJSON(t *testing.T) {
	data, err := json.Marshal(High)
	if err != nil || string(data) != `"high"` {
		t.Fatalf("Marshal(High) = %s, %v", data, err)
	}
	var l DifficultyLabel
	if err := json.Unmarshal([]byte(`"easy"`), &l); err != nil || l != Low {
		t.Errorf("Unmarshal(easy) = %v, %v", l, err)
	}
}
