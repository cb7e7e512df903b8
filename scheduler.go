package cadence

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// SchedulerConfig configures a Scheduler.
// The zero value produces a scheduler with DefaultParameters.
type SchedulerConfig struct {
	Parameters Parameters `json:"parameters"` // zero → DefaultParameters
}

// Scheduler computes memory-state transitions and due dates.
// It holds no mutable state and is safe for concurrent use.
type Scheduler struct {
	algo algo
}

// NewScheduler creates a Scheduler from the given config.
// A zero Parameters value is replaced with DefaultParameters; out-of-bounds
// weights return an error wrapping ErrInvalidParameters.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	params := cfg.Parameters
	if params == (Parameters{}) {
		params = DefaultParameters
	}
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}
	return &Scheduler{algo: newAlgo(params)}, nil
}

// Parameters returns the weights the scheduler was built with.
func (s *Scheduler) Parameters() Parameters {
	return s.algo.p
}

// ReviewInput describes one review event.
type ReviewInput struct {
	// State is the item's persisted memory state; nil for an item that has
	// never been scheduled adaptively.
	State *MemoryState
	Grade Grade
	// DesiredRetention is the target recall probability in (0, 1); zero → 0.9.
	DesiredRetention float64
	Now              time.Time
	// CreatedAt stands in for the last review time when State has none.
	CreatedAt time.Time
}

// ReviewResult is the outcome of ProcessReview.
type ReviewResult struct {
	State    MemoryState `json:"state"`
	Due      time.Time   `json:"due"`
	Interval int         `json:"interval"` // days
}

// Option is the predicted outcome of one grade, as shown before answering.
type Option struct {
	Interval int       `json:"interval"`
	Label    string    `json:"label"`
	Due      time.Time `json:"due"`
}

// InitializeState returns the memory state after a first review with grade g.
// Reps and lapses are left at zero; ProcessReview increments them.
func (s *Scheduler) InitializeState(g Grade) MemoryState {
	phase := Review
	if g == Forgot {
		phase = Learning
	}
	return MemoryState{
		Stability:     s.algo.initStability(g),
		Difficulty:    s.algo.initDifficulty(g),
		ScheduledDays: MinInterval,
		Phase:         phase,
	}
}

// NextDifficulty returns the damped difficulty update for grade g.
func (s *Scheduler) NextDifficulty(difficulty float64, g Grade) float64 {
	return s.algo.nextDifficulty(difficulty, g)
}

// NextStability returns the stability after reviewing state with grade g
// elapsedDays after its previous review. The result is never below MinStability.
func (s *Scheduler) NextStability(state MemoryState, g Grade, elapsedDays int) float64 {
	return s.algo.nextStability(state.Phase, state.Difficulty, state.Stability, g, float64(max(elapsedDays, 0)))
}

// ProcessReview applies one graded review and returns the updated state and
// the next due date. The input state is not mutated. Absent or malformed
// prior state is treated as a new item. Only an invalid grade is an error.
func (s *Scheduler) ProcessReview(in ReviewInput) (ReviewResult, error) {
	if !in.Grade.IsValid() {
		return ReviewResult{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(in.Grade))
	}
	retention := in.DesiredRetention
	if retention == 0 {
		retention = DefaultRetention
	}

	last := in.CreatedAt
	if in.State != nil && in.State.LastReviewedAt != nil {
		last = *in.State.LastReviewedAt
	}
	elapsed := elapsedDays(last, in.Now)

	cur := resolveState(in.State)
	next := cur.clone()
	next.Stability = s.algo.nextStability(cur.Phase, cur.Difficulty, cur.Stability, in.Grade, float64(elapsed))

	if cur.Phase == New {
		next.Difficulty = s.algo.initDifficulty(in.Grade)
	} else {
		next.Difficulty = s.algo.nextDifficulty(cur.Difficulty, in.Grade)
	}

	var interval int
	if in.Grade == Forgot {
		next.Phase = Relearning
		if cur.Phase == New {
			next.Phase = Learning
		}
		next.Lapses++
		interval = ForgotIntervalDays
	} else {
		next.Phase = Review
		next.Reps++
		interval = IntervalFromStability(next.Stability, retention)
	}

	now := in.Now
	next.ElapsedDays = elapsed
	next.ScheduledDays = interval
	next.LastReviewedAt = &now

	return ReviewResult{
		State:    next,
		Due:      now.AddDate(0, 0, interval),
		Interval: interval,
	}, nil
}

// Preview returns the outcome of reviewing with each possible grade.
// in.Grade is ignored.
func (s *Scheduler) Preview(in ReviewInput) map[Grade]Option {
	result := make(map[Grade]Option, len(Grades))
	for _, g := range Grades {
		in.Grade = g
		res, _ := s.ProcessReview(in)
		result[g] = Option{
			Interval: res.Interval,
			Label:    FormatInterval(float64(res.Interval)),
			Due:      res.Due,
		}
	}
	return result
}

// Replay rebuilds an item's state by applying its review logs in time order,
// starting from a never-reviewed item created at createdAt.
// Returns ErrItemMismatch if the logs belong to more than one item.
// With no logs the result is the new-item state due at createdAt.
func (s *Scheduler) Replay(createdAt time.Time, desiredRetention float64, logs []ReviewLog) (ReviewResult, error) {
	res := ReviewResult{State: NewMemoryState(), Due: createdAt}
	if len(logs) == 0 {
		return res, nil
	}

	sorted := make([]ReviewLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReviewedAt.Before(sorted[j].ReviewedAt)
	})

	id := sorted[0].ItemID
	var state *MemoryState
	for _, log := range sorted {
		if log.ItemID != id {
			return ReviewResult{}, fmt.Errorf("%w: item %q, log %q", ErrItemMismatch, id, log.ItemID)
		}
		next, err := s.ProcessReview(ReviewInput{
			State:            state,
			Grade:            log.Grade,
			DesiredRetention: desiredRetention,
			Now:              log.ReviewedAt,
			CreatedAt:        createdAt,
		})
		if err != nil {
			return ReviewResult{}, err
		}
		res = next
		state = &res.State
	}
	return res, nil
}

// Retrievability returns the probability of recall for state at now.
// Returns 0 if the item has never been reviewed.
func (s *Scheduler) Retrievability(state MemoryState, now time.Time) float64 {
	if state.Phase == New || state.LastReviewedAt == nil {
		return 0
	}
	elapsed := now.Sub(*state.LastReviewedAt).Hours() / 24.0
	return RecallProbability(state.Stability, elapsed)
}

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	Parameters Parameters `json:"parameters"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(schedulerJSON{Parameters: s.algo.p})
}

// UnmarshalJSON implements json.Unmarshaler.
// It validates the serialized parameters before replacing s.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(SchedulerConfig{Parameters: j.Parameters})
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}

// ValidateRetention checks that r is a usable recall target in (0, 1).
func ValidateRetention(r float64) error {
	if !(r > 0 && r < 1) {
		return fmt.Errorf("%w: %g", ErrInvalidRetention, r)
	}
	return nil
}

// elapsedDays returns the whole days between last and now, never negative.
func elapsedDays(last, now time.Time) int {
	if last.IsZero() {
		return 0
	}
	days := math.Floor(now.Sub(last).Hours() / 24.0)
	if days <= 0 {
		return 0
	}
	return int(days)
}
