package cadence

import (
	"fmt"
	"math"
	"time"
)

// Defaults for an item that has never been reviewed.
const (
	DefaultStability   = 0.4
	DefaultDifficulty  = 5.0
	DefaultRetention   = 0.9
	MinStability       = 0.1
	MinDifficulty      = 1.0
	MaxDifficulty      = 10.0
	MinInterval        = 1
	MaxInterval        = 365
	ForgotIntervalDays = 1
)

// MemoryState is the adaptive scheduling state of one learned item.
type MemoryState struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	ElapsedDays    int        `json:"elapsed_days"`
	ScheduledDays  int        `json:"scheduled_days"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	Phase          Phase      `json:"phase"`
	// LastReviewedAt is nil while Phase=New. A state migrated from the
	// fixed-stage scheduler without review history also leaves it nil; the
	// next review then measures elapsed time from the item's creation.
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// NewMemoryState returns the state of an item that has never been reviewed.
func NewMemoryState() MemoryState {
	return MemoryState{
		Stability:     DefaultStability,
		Difficulty:    DefaultDifficulty,
		ScheduledDays: MinInterval,
		Phase:         New,
	}
}

// IsNew reports whether no review has been processed for the item.
func (m MemoryState) IsNew() bool {
	return m.Phase == New
}

// Validate checks the invariants a persisted state must satisfy. A new item
// must not carry a review time; a reviewed item may lack one when it was
// migrated without history.
func (m MemoryState) Validate() error {
	switch {
	case !m.Phase.IsValid():
		return fmt.Errorf("%w: %d", ErrInvalidPhase, int(m.Phase))
	case math.IsNaN(m.Stability) || m.Stability < MinStability:
		return fmt.Errorf("cadence: stability %f below %f", m.Stability, MinStability)
	case math.IsNaN(m.Difficulty) || m.Difficulty < MinDifficulty || m.Difficulty > MaxDifficulty:
		return fmt.Errorf("cadence: difficulty %f outside [%g, %g]", m.Difficulty, MinDifficulty, MaxDifficulty)
	case m.ElapsedDays < 0 || m.ScheduledDays < MinInterval:
		return fmt.Errorf("cadence: elapsed %d / scheduled %d days out of range", m.ElapsedDays, m.ScheduledDays)
	case m.Reps < 0 || m.Lapses < 0:
		return fmt.Errorf("cadence: negative counters reps=%d lapses=%d", m.Reps, m.Lapses)
	case m.Phase == New && m.LastReviewedAt != nil:
		return fmt.Errorf("cadence: new item has a last review time")
	}
	return nil
}

// clone returns a deep copy of the state. Pointer fields are copied by value.
func (m MemoryState) clone() MemoryState {
	out := m
	if m.LastReviewedAt != nil {
		v := *m.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}

// resolveState returns a usable copy of prior. Absent or malformed states
// become a fresh new-item state; difficulty and counters are pulled back into
// range when they drift. A reviewed state without LastReviewedAt is kept, as
// produced by migration from legacy schedules that lack a review timestamp.
func resolveState(prior *MemoryState) MemoryState {
	if prior == nil {
		return NewMemoryState()
	}
	m := prior.clone()
	if !m.Phase.IsValid() || m.Phase == New || math.IsNaN(m.Stability) || m.Stability <= 0 {
		return NewMemoryState()
	}
	if math.IsNaN(m.Difficulty) {
		m.Difficulty = DefaultDifficulty
	}
	m.Stability = clampS(m.Stability)
	m.Difficulty = clampD(m.Difficulty)
	m.Reps = max(m.Reps, 0)
	m.Lapses = max(m.Lapses, 0)
	return m
}
