// Package model defines the persisted study data types.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sky-flux/cadence"
)

// Uncategorized is the category lessons fall back to.
const Uncategorized = "Uncategorized"

// MatureInterval is the scheduled interval, in days, from which an adaptive
// lesson counts as mastered.
const MatureInterval = 21

// Lesson is one study item and its scheduling state.
type Lesson struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	Category        string                  `json:"category"`
	Subject         string                  `json:"subject,omitempty"`
	Difficulty      cadence.DifficultyLabel `json:"difficulty"`
	AddedAt         time.Time               `json:"added_at"`
	NextReviewAt    time.Time               `json:"next_review_at"`
	Schedule        cadence.ItemSchedule    `json:"-"`
	CustomIntervals []int                   `json:"custom_intervals,omitempty"`
	ReviewHistory   []time.Time             `json:"review_history,omitempty"`
}

// Mode reports which scheduler owns the lesson. Lessons without a schedule
// are treated as legacy at stage 0.
func (l *Lesson) Mode() cadence.Mode {
	if l.Schedule == nil {
		return cadence.ModeLegacy
	}
	return l.Schedule.Mode()
}

// Intervals returns the lesson's own interval table, or defaults.
func (l *Lesson) Intervals(defaults []int) []int {
	if len(l.CustomIntervals) > 0 {
		return l.CustomIntervals
	}
	return defaults
}

// Completed reports whether a legacy lesson has run through its table.
// Adaptive lessons never complete.
func (l *Lesson) Completed() bool {
	s, ok := l.Schedule.(cadence.LegacyFixedSchedule)
	return ok && s.Completed
}

// Mastered reports whether the lesson counts toward mastery: a completed
// legacy schedule or a mature adaptive one.
func (l *Lesson) Mastered() bool {
	switch s := l.Schedule.(type) {
	case cadence.LegacyFixedSchedule:
		return s.Completed
	case cadence.MemoryState:
		return s.Phase == cadence.Review && s.ScheduledDays >= MatureInterval
	}
	return false
}

// LastReviewedAt returns the latest entry of the review history.
func (l *Lesson) LastReviewedAt() *time.Time {
	if len(l.ReviewHistory) == 0 {
		return nil
	}
	last := l.ReviewHistory[0]
	for _, t := range l.ReviewHistory[1:] {
		if t.After(last) {
			last = t
		}
	}
	return &last
}

type lessonAlias Lesson

type lessonJSON struct {
	*lessonAlias
	Schedule json.RawMessage `json:"schedule,omitempty"`
}

// MarshalJSON embeds the schedule with its mode tag.
func (l Lesson) MarshalJSON() ([]byte, error) {
	j := lessonJSON{lessonAlias: (*lessonAlias)(&l)}
	if l.Schedule != nil {
		raw, err := cadence.MarshalSchedule(l.Schedule)
		if err != nil {
			return nil, err
		}
		j.Schedule = raw
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lesson) UnmarshalJSON(data []byte) error {
	j := lessonJSON{lessonAlias: (*lessonAlias)(l)}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	l.Schedule = nil
	if len(j.Schedule) > 0 && string(j.Schedule) != "null" {
		s, err := cadence.UnmarshalSchedule(j.Schedule)
		if err != nil {
			return fmt.Errorf("lesson %s: %w", l.ID, err)
		}
		l.Schedule = s
	}
	return nil
}
