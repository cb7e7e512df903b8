package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/sky-flux/cadence"
)

// DateLayout is the calendar-day key used for activity records.
const DateLayout = "2006-01-02"

// Settings are the user's study preferences.
type Settings struct {
	Intervals        []int               `json:"intervals"`
	CramMode         bool                `json:"cram_mode"`
	UseAdaptive      bool                `json:"use_adaptive"`
	DesiredRetention float64             `json:"desired_retention"`
	Parameters       *cadence.Parameters `json:"parameters,omitempty"` // fitted weights, nil for defaults
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Intervals:        slices.Clone(cadence.DefaultIntervals),
		CramMode:         false,
		UseAdaptive:      true,
		DesiredRetention: cadence.DefaultRetention,
	}
}

// Normalize fills zero fields from DefaultSettings.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if len(s.Intervals) == 0 {
		s.Intervals = d.Intervals
	}
	if s.DesiredRetention == 0 {
		s.DesiredRetention = d.DesiredRetention
	}
	return s
}

// UnmarshalJSON decodes over DefaultSettings so that fields missing from
// older backups keep their defaults.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	v := plain(DefaultSettings())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Settings(v).Normalize()
	return nil
}

// Category groups lessons and may carry an exam date.
type Category struct {
	Name     string     `json:"name"`
	ExamDate *time.Time `json:"exam_date,omitempty"`
}

// Activity counts the reviews done on one calendar day.
type Activity struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Backup is the full export of a study database.
type Backup struct {
	ExportedAt time.Time           `json:"exported_at"`
	Lessons    []Lesson            `json:"lessons"`
	Settings   Settings            `json:"settings"`
	Categories []Category          `json:"categories"`
	Activity   []Activity          `json:"activity"`
	ReviewLogs []cadence.ReviewLog `json:"review_logs"`
}

// UnmarshalJSON starts from DefaultSettings so that a backup without a
// settings object restores the defaults.
func (b *Backup) UnmarshalJSON(data []byte) error {
	type plain Backup
	v := plain{Settings: DefaultSettings()}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = Backup(v)
	return nil
}
