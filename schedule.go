package cadence

import (
	"encoding/json"
	"fmt"
)

// Mode names the scheduler that owns an item.
type Mode string

const (
	ModeLegacy   Mode = "legacy"
	ModeAdaptive Mode = "adaptive"
)

// ItemSchedule is the scheduling state of one item: either a
// LegacyFixedSchedule or a MemoryState. The set of implementations is closed.
type ItemSchedule interface {
	Mode() Mode
	itemSchedule()
}

var (
	_ ItemSchedule = LegacyFixedSchedule{}
	_ ItemSchedule = MemoryState{}
)

// Mode implements ItemSchedule.
func (LegacyFixedSchedule) Mode() Mode { return ModeLegacy }
func (LegacyFixedSchedule) itemSchedule() {}

// Mode implements ItemSchedule.
func (MemoryState) Mode() Mode { return ModeAdaptive }
func (MemoryState) itemSchedule() {}

// ToAdaptive returns s as a MemoryState, migrating legacy schedules with the
// remaining fields of m. Adaptive schedules are returned unchanged.
func ToAdaptive(s ItemSchedule, m LegacyMigration) MemoryState {
	switch v := s.(type) {
	case MemoryState:
		return v.clone()
	case LegacyFixedSchedule:
		m.Schedule = v
		return MigrateLegacyToAdaptive(m)
	default:
		return NewMemoryState()
	}
}

// scheduleJSON is the serialized envelope of an ItemSchedule.
type scheduleJSON struct {
	Mode     Mode                 `json:"mode"`
	Legacy   *LegacyFixedSchedule `json:"legacy,omitempty"`
	Adaptive *MemoryState         `json:"adaptive,omitempty"`
}

// MarshalSchedule encodes s with an explicit mode tag.
func MarshalSchedule(s ItemSchedule) ([]byte, error) {
	switch v := s.(type) {
	case LegacyFixedSchedule:
		return json.Marshal(scheduleJSON{Mode: ModeLegacy, Legacy: &v})
	case MemoryState:
		return json.Marshal(scheduleJSON{Mode: ModeAdaptive, Adaptive: &v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidSchedule, s)
	}
}

// UnmarshalSchedule decodes the output of MarshalSchedule.
func UnmarshalSchedule(data []byte) (ItemSchedule, error) {
	var j scheduleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	switch j.Mode {
	case ModeLegacy:
		if j.Legacy == nil {
			return LegacyFixedSchedule{}, nil
		}
		return *j.Legacy, nil
	case ModeAdaptive:
		if j.Adaptive == nil {
			return NewMemoryState(), nil
		}
		return *j.Adaptive, nil
	default:
		return nil, fmt.Errorf("%w: mode %q", ErrInvalidSchedule, j.Mode)
	}
}
