package optimizer

import (
	"context"
	"testing"

	"github.com/sky-flux/cadence"
)

// BenchmarkOptimize1000 measures fitting 1000 items × 10 reviews.
func BenchmarkOptimize1000(b *testing.B) {
	logs := generateSyntheticLogs(1000, 10, 42)
	o := NewOptimizer(Config{Epochs: 5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.ComputeOptimalParameters(context.Background(), logs); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOptimalRetention measures the retention simulation.
func BenchmarkOptimalRetention(b *testing.B) {
	logs := generateSyntheticLogsWithDuration(100, 10, 42)
	o := NewOptimizer(Config{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := o.ComputeOptimalRetention(context.Background(), cadence.DefaultParameters, logs); err != nil {
			b.Fatal(err)
		}
	}
}
