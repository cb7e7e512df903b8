package cadence

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Grade represents the user's assessment of recall quality.
type Grade int

const (
	Forgot Grade = iota + 1 // Failed to recall.
	Hard                    // Recalled with significant difficulty.
	Good                    // Recalled with some effort.
	Easy                    // Recalled effortlessly.
)

// Grades lists every valid grade in ascending order.
var Grades = [...]Grade{Forgot, Hard, Good, Easy}

var (
	gradeNames  = [...]string{Forgot: "forgot", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"forgot": Forgot,
		"again":  Forgot,
		"hard":   Hard,
		"good":   Good,
		"easy":   Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// ParseGrade parses a grade name. Matching is case-insensitive and "again"
// is accepted as an alias for Forgot.
func ParseGrade(s string) (Grade, error) {
	g, ok := gradeByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// String returns the name of the grade ("forgot", "hard", "good", "easy").
// For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// IsValid reports whether g is one of Forgot, Hard, Good or Easy.
func (g Grade) IsValid() bool {
	return g >= Forgot && g <= Easy
}

// offset returns G-3 where G is the 1-based grade value, so Good maps to 0.
func (g Grade) offset() float64 {
	return float64(g) - 3
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
