package cadence_test

import (
	"testing"
	"time"

	"github.com/sky-flux/cadence"
)

// BenchmarkProcessReview measures the time to process a single review.
func BenchmarkProcessReview(b *testing.B) {
	s, err := cadence.NewScheduler(cadence.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, _ := s.ProcessReview(cadence.ReviewInput{Grade: cadence.Good, Now: now, CreatedAt: now})
	state := res.State

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now = now.Add(24 * time.Hour)
		res, _ = s.ProcessReview(cadence.ReviewInput{State: &state, Grade: cadence.Good, DesiredRetention: 0.9, Now: now})
		state = res.State
	}
}

// BenchmarkRetrievability measures the time to compute recall probability.
func BenchmarkRetrievability(b *testing.B) {
	s, err := cadence.NewScheduler(cadence.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, _ := s.ProcessReview(cadence.ReviewInput{Grade: cadence.Good, Now: now, CreatedAt: now})
	queryTime := now.Add(5 * 24 * time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Retrievability(res.State, queryTime)
	}
}

// BenchmarkPreview measures the time to preview all four grades.
func BenchmarkPreview(b *testing.B) {
	s, err := cadence.NewScheduler(cadence.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, _ := s.ProcessReview(cadence.ReviewInput{Grade: cadence.Good, Now: now, CreatedAt: now})
	in := cadence.ReviewInput{State: &res.State, DesiredRetention: 0.9, Now: now.Add(24 * time.Hour)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Preview(in)
	}
}

// BenchmarkReplay measures rebuilding a state from a 50-review history.
func BenchmarkReplay(b *testing.B) {
	s, err := cadence.NewScheduler(cadence.SchedulerConfig{})
	if err != nil {
		b.Fatal(err)
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := make([]cadence.ReviewLog, 50)
	for i := range logs {
		g := cadence.Good
		if i%7 == 3 {
			g = cadence.Forgot
		}
		logs[i] = cadence.ReviewLog{ItemID: "bench", Grade: g, ReviewedAt: start.AddDate(0, 0, i*3)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Replay(start, 0.9, logs)
	}
}
