package cadence

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var sentinels = []error{
	ErrInvalidGrade,
	ErrInvalidPhase,
	ErrInvalidParameters,
	ErrInvalidRetention,
	ErrItemMismatch,
	ErrInvalidSchedule,
}

func TestSentinelErrors(t *testing.T) {
	for _, err := range sentinels {
		if err == nil {
			t.Error("sentinel error is nil")
		}
	}
}

func TestSentinelErrorsIsCheck(t *testing.T) {
	// Wrapping with fmt.Errorf %w preserves errors.Is chain.
	wrapped := fmt.Errorf("context: %w", ErrInvalidGrade)
	if !errors.Is(wrapped, ErrInvalidGrade) {
		t.Error("errors.Is(wrapped, ErrInvalidGrade) = false, want true")
	}
	if errors.Is(wrapped, ErrInvalidParameters) {
		t.Error("errors.Is(wrapped, ErrInvalidParameters) = true, want false")
	}
}

func TestSentinelErrorPrefix(t *testing.T) {
	for _, err := range sentinels {
		if !strings.HasPrefix(err.Error(), "cadence: ") {
			t.Errorf("%q should start with %q", err.Error(), "cadence: ")
		}
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = true", a, b)
			}
		}
	}
}
