package cadence

import (
	"math"
	"slices"
	"time"
)

// DefaultIntervals is the stock fixed-stage interval table, in days.
var DefaultIntervals = []int{1, 1, 4, 7, 14, 30}

// Presets are the named interval tables offered for legacy scheduling.
var Presets = map[string][]int{
	"Standard":   {1, 1, 4, 7, 14, 30},
	"Aggressive": {1, 2, 4, 7, 14},
	"Relaxed":    {1, 3, 7, 14, 30, 60},
}

// CustomPreset is the name reported for tables that match no preset.
const CustomPreset = "Custom"

// LegacyFixedSchedule is the per-item progress of the fixed-stage scheduler.
// It has no notion of recall quality: every review advances one stage.
type LegacyFixedSchedule struct {
	CurrentStage int  `json:"current_stage"` // index into the interval table
	Completed    bool `json:"completed"`
}

// LegacyResult is the outcome of LegacyAdvance.
type LegacyResult struct {
	Schedule LegacyFixedSchedule `json:"schedule"`
	Due      time.Time           `json:"due"`      // zero once completed
	Interval int                 `json:"interval"` // days; zero once completed
}

// LegacyAdvance moves the schedule one stage forward. Reaching the end of
// intervals marks it completed and leaves the stage where it was. In cram
// mode every interval is halved, rounding up. A completed schedule is
// returned unchanged.
//
// Forgetting is not modeled here: unlike ProcessReview there is no lapse path.
func LegacyAdvance(sched LegacyFixedSchedule, intervals []int, cram bool, now time.Time) LegacyResult {
	if sched.Completed {
		return LegacyResult{Schedule: sched}
	}
	ivls := intervals
	if cram {
		ivls = CramIntervals(intervals)
	}

	stage := max(sched.CurrentStage, 0)
	next := stage + 1
	if next >= len(ivls) {
		return LegacyResult{Schedule: LegacyFixedSchedule{CurrentStage: stage, Completed: true}}
	}

	days := max(ivls[next], MinInterval)
	return LegacyResult{
		Schedule: LegacyFixedSchedule{CurrentStage: next},
		Due:      now.AddDate(0, 0, days),
		Interval: days,
	}
}

// LegacyNextInterval returns the interval the next advance would use, for
// display before a review. Past the end of the table it reports the last entry.
func LegacyNextInterval(sched LegacyFixedSchedule, intervals []int, cram bool) int {
	ivls := intervals
	if cram {
		ivls = CramIntervals(intervals)
	}
	if len(ivls) == 0 {
		return MinInterval
	}
	idx := min(max(sched.CurrentStage, 0)+1, len(ivls)-1)
	return max(ivls[idx], MinInterval)
}

// LegacyInitialDue returns the first due date of an item added at start.
func LegacyInitialDue(start time.Time, intervals []int, cram bool) time.Time {
	ivls := intervals
	if cram {
		ivls = CramIntervals(intervals)
	}
	if len(ivls) == 0 {
		return start
	}
	return start.AddDate(0, 0, max(ivls[0], 0))
}

// CramIntervals returns a copy of intervals with every entry halved, rounded up.
func CramIntervals(intervals []int) []int {
	out := make([]int, len(intervals))
	for i, v := range intervals {
		out[i] = int(math.Ceil(float64(v) * 0.5))
	}
	return out
}

// PresetName returns the name of the preset equal to intervals, or CustomPreset.
func PresetName(intervals []int) string {
	for name, preset := range Presets {
		if slices.Equal(preset, intervals) {
			return name
		}
	}
	return CustomPreset
}
