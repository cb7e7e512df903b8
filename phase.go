package cadence

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Phase represents the lifecycle stage of an item's memory state.
type Phase int

const (
	New        Phase = iota + 1 // Never reviewed.
	Learning                    // First review was a lapse.
	Review                      // Recalled at the last review.
	Relearning                  // Forgotten after having been reviewed.
)

var (
	phaseNames  = [...]string{New: "new", Learning: "learning", Review: "review", Relearning: "relearning"}
	phaseByName = map[string]Phase{
		"new":        New,
		"learning":   Learning,
		"review":     Review,
		"relearning": Relearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Phase(0)
	_ json.Marshaler           = Phase(0)
	_ json.Unmarshaler         = (*Phase)(nil)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

// IsValid reports whether p is one of New, Learning, Review or Relearning.
func (p Phase) IsValid() bool {
	return p >= New && p <= Relearning
}

// String returns the name of the phase ("new", "learning", "review", "relearning").
// For invalid values it returns "Phase(n)".
func (p Phase) String() string {
	if p.IsValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhase, int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. Phase serializes as a JSON string.
func (p Phase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPhase, data)
	}
	return p.UnmarshalText([]byte(s))
}
