package cadence

import "errors"

// Sentinel errors for the cadence package.
// Use errors.Is to check: errors.Is(err, cadence.ErrInvalidGrade)
var (
	ErrInvalidGrade      = errors.New("cadence: invalid grade")
	ErrInvalidPhase      = errors.New("cadence: invalid phase")
	ErrInvalidParameters = errors.New("cadence: parameters out of bounds")
	ErrInvalidRetention  = errors.New("cadence: desired retention out of range (0, 1)")
	ErrItemMismatch      = errors.New("cadence: item ID mismatch in review log")
	ErrInvalidSchedule   = errors.New("cadence: invalid item schedule")
)
