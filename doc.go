// Package cadence implements an adaptive spaced-repetition scheduler.
//
// Each learned item carries a MemoryState (stability, difficulty and review
// counters). After every graded review the Scheduler updates that state and
// derives the next due date from a desired retention probability. A simpler
// fixed-stage scheduler (LegacyAdvance) and a one-way migration from it
// (MigrateLegacyToAdaptive) are provided for items that predate adaptive
// scheduling.
//
// All functions are pure: the current time is always passed in.
//
// Basic usage:
//
//	s, err := cadence.NewScheduler(cadence.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := s.ProcessReview(cadence.ReviewInput{
//	    Grade:            cadence.Good,
//	    DesiredRetention: 0.9,
//	    Now:              time.Now(),
//	    CreatedAt:        addedAt,
//	})
//	// persist res.State, schedule the item for res.Due
package cadence
