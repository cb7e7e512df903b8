package cadence

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DifficultyLabel is the coarse, user-assigned hardness of an item.
type DifficultyLabel int

const (
	Low DifficultyLabel = iota + 1
	Medium
	High
)

var (
	labelNames  = [...]string{Low: "low", Medium: "medium", High: "high"}
	labelByName = map[string]DifficultyLabel{
		"low":    Low,
		"easy":   Low,
		"medium": Medium,
		"high":   High,
		"hard":   High,
	}
	// labelDifficulty maps each label to the difficulty a migrated item starts with.
	labelDifficulty = [...]float64{Low: 3, Medium: 5, High: 7}
)

var (
	_ encoding.TextMarshaler   = DifficultyLabel(0)
	_ encoding.TextUnmarshaler = (*DifficultyLabel)(nil)
)

// ParseDifficultyLabel parses "low", "medium" or "high" (also "easy" and
// "hard"), case-insensitively.
func ParseDifficultyLabel(s string) (DifficultyLabel, error) {
	l, ok := labelByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("cadence: invalid difficulty label %q", s)
	}
	return l, nil
}

// IsValid reports whether l is Low, Medium or High.
func (l DifficultyLabel) IsValid() bool {
	return l >= Low && l <= High
}

func (l DifficultyLabel) String() string {
	if l.IsValid() {
		return labelNames[l]
	}
	return fmt.Sprintf("DifficultyLabel(%d)", int(l))
}

// Difficulty returns the model difficulty for the label; invalid labels read as Medium.
func (l DifficultyLabel) Difficulty() float64 {
	if !l.IsValid() {
		return labelDifficulty[Medium]
	}
	return labelDifficulty[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l DifficultyLabel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("cadence: invalid difficulty label %d", int(l))
	}
	return []byte(labelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *DifficultyLabel) UnmarshalText(text []byte) error {
	v, err := ParseDifficultyLabel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l DifficultyLabel) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *DifficultyLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cadence: invalid difficulty label %s", data)
	}
	return l.UnmarshalText([]byte(s))
}

// LegacyMigration carries what is known about a legacy-scheduled item.
type LegacyMigration struct {
	Schedule  LegacyFixedSchedule
	Intervals []int
	Label     DifficultyLabel
	// ReviewCount is the number of reviews recorded for the item.
	ReviewCount int
	// LastReviewedAt is the most recent recorded review, if any. When it is
	// nil for a reviewed item, the next review measures elapsed time from
	// the item's creation.
	LastReviewedAt *time.Time
}

// MigrateLegacyToAdaptive builds an equivalent adaptive state for an item
// that was tracked by the fixed-stage scheduler. The legacy schedule is not
// modified. Lapse history does not exist in legacy mode, so Lapses is always 0.
func MigrateLegacyToAdaptive(m LegacyMigration) MemoryState {
	stage := max(m.Schedule.CurrentStage, 0)
	ivl := MinInterval
	if n := len(m.Intervals); n > 0 {
		if v := m.Intervals[min(stage, n-1)]; v > 0 {
			ivl = v
		}
	}

	reps := max(m.ReviewCount, stage)
	state := MemoryState{
		Stability:     clampS(float64(ivl)),
		Difficulty:    m.Label.Difficulty(),
		ScheduledDays: ivl,
		Reps:          reps,
		Phase:         Review,
	}
	if reps == 0 {
		state.Phase = New
		return state
	}
	if m.LastReviewedAt != nil {
		t := *m.LastReviewedAt
		state.LastReviewedAt = &t
	}
	return state
}
