package cadence

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewMemoryState(t *testing.T) {
	m := NewMemoryState()
	if !m.IsNew() || m.Phase != New {
		t.Errorf("Phase = %s, want new", m.Phase)
	}
	assertFloat(t, "Stability", m.Stability, DefaultStability)
	assertFloat(t, "Difficulty", m.Difficulty, DefaultDifficulty)
	if m.Reps != 0 || m.Lapses != 0 || m.LastReviewedAt != nil {
		t.Errorf("unexpected fields: %+v", m)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMemoryStateValidate(t *testing.T) {
	last := t0
	valid := MemoryState{Stability: 3, Difficulty: 5, ScheduledDays: 3, Reps: 1, Phase: Review, LastReviewedAt: &last}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid state: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*MemoryState)
	}{
		{"bad phase", func(m *MemoryState) { m.Phase = 0 }},
		{"low stability", func(m *MemoryState) { m.Stability = 0.05 }},
		{"NaN stability", func(m *MemoryState) { m.Stability = math.NaN() }},
		{"low difficulty", func(m *MemoryState) { m.Difficulty = 0.5 }},
		{"high difficulty", func(m *MemoryState) { m.Difficulty = 10.5 }},
		{"zero scheduled", func(m *MemoryState) { m.ScheduledDays = 0 }},
		{"negative elapsed", func(m *MemoryState) { m.ElapsedDays = -1 }},
		{"negative reps", func(m *MemoryState) { m.Reps = -1 }},
		{"new with review time", func(m *MemoryState) { m.Phase = New }},
	}
	for _, tt := range tests {
		m := valid.clone()
		tt.mutate(&m)
		if err := m.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}

	// Migrated items may be reviewed without a known review time.
	migrated := valid.clone()
	migrated.LastReviewedAt = nil
	if err := migrated.Validate(); err != nil {
		t.Errorf("reviewed without timestamp: %v", err)
	}
}

func TestMemoryStateCloneIsDeep(t *testing.T) {
	last := t0
	m := MemoryState{Stability: 3, Difficulty: 5, ScheduledDays: 1, Phase: Review, LastReviewedAt: &last}
	c := m.clone()
	*c.LastReviewedAt = t0.AddDate(1, 0, 0)
	if !m.LastReviewedAt.Equal(t0) {
		t.Error("clone shares LastReviewedAt with original")
	}
}

func TestResolveState(t *testing.T) {
	last := t0
	if got := resolveState(nil); got.Phase != New {
		t.Errorf("nil -> %s, want new", got.Phase)
	}

	drifted := &MemoryState{Stability: 0.01, Difficulty: 14, Reps: -2, Lapses: -1, Phase: Review, LastReviewedAt: &last}
	got := resolveState(drifted)
	if got.Phase != Review {
		t.Errorf("Phase = %s, want review", got.Phase)
	}
	assertFloat(t, "Stability", got.Stability, MinStability)
	assertFloat(t, "Difficulty", got.Difficulty, MaxDifficulty)
	if got.Reps != 0 || got.Lapses != 0 {
		t.Errorf("counters = %d/%d, want 0/0", got.Reps, got.Lapses)
	}
	if drifted.Stability != 0.01 {
		t.Error("resolveState mutated its input")
	}

	nanD := &MemoryState{Stability: 4, Difficulty: math.NaN(), Phase: Learning, LastReviewedAt: &last}
	assertFloat(t, "NaN difficulty", resolveState(nanD).Difficulty, DefaultDifficulty)
}

func TestMemoryStateJSON(t *testing.T) {
	last := t0
	m := MemoryState{Stability: 3.5, Difficulty: 6.2, ElapsedDays: 2, ScheduledDays: 4, Reps: 3, Lapses: 1, Phase: Relearning, LastReviewedAt: &last}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var got MemoryState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Phase != Relearning || got.Reps != 3 || got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(t0) {
		t.Errorf("round trip = %+v", got)
	}

	data, _ = json.Marshal(NewMemoryState())
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["last_reviewed_at"]; ok {
		t.Errorf("new state should omit last_reviewed_at: %s", data)
	}
}
