package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initReviewMetrics(cfg Config) {
	m.reviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Total number of processed reviews",
		},
		[]string{"mode", "grade"},
	)

	m.intervals = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "review_interval_days",
			Help:      "Interval in days scheduled by a review",
			Buckets:   cfg.IntervalBuckets,
		},
		[]string{"mode"},
	)

	m.lapses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lapses_total",
			Help:      "Total number of forgotten reviews on adaptive items",
		},
	)

	m.migrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migrations_total",
			Help:      "Total number of lessons migrated from legacy to adaptive scheduling",
		},
	)

	m.registry.MustRegister(m.reviews, m.intervals, m.lapses, m.migrations)
}

// RecordReview counts one review and the interval it scheduled. A zero
// interval (a completed legacy schedule) is counted but not observed.
func (m *Manager) RecordReview(mode, grade string, intervalDays int) {
	if !m.enabled {
		return
	}
	m.reviews.WithLabelValues(mode, grade).Inc()
	if intervalDays > 0 {
		m.intervals.WithLabelValues(mode).Observe(float64(intervalDays))
	}
}

// RecordLapse counts one forgotten adaptive review.
func (m *Manager) RecordLapse() {
	if !m.enabled {
		return
	}
	m.lapses.Inc()
}

// RecordMigrations counts lessons moved to adaptive scheduling.
func (m *Manager) RecordMigrations(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.migrations.Add(float64(n))
}
