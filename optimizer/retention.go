package optimizer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sky-flux/cadence"
)

// MinRetentionLogs is the number of logs ComputeOptimalRetention needs.
const MinRetentionLogs = 512

var (
	// ErrInsufficientLogs is returned when fewer than MinRetentionLogs review logs are provided.
	ErrInsufficientLogs = errors.New("optimizer: at least 512 review logs required for optimal retention")

	// ErrMissingDuration is returned when any DurationMillis is nil.
	ErrMissingDuration = errors.New("optimizer: DurationMillis must be set for optimal retention")
)

// RetentionCandidates are the retention targets ComputeOptimalRetention compares.
var RetentionCandidates = []float64{0.70, 0.75, 0.80, 0.85, 0.90, 0.95}

// gradeStats holds the observed grade distribution and average review
// duration (ms) for one class of review.
type gradeStats struct {
	prob     [cadence.Easy + 1]float64
	duration [cadence.Easy + 1]float64
}

// pick draws a grade from the distribution; u is uniform in [0, 1).
// Grades in from are considered in order, the last absorbs the remainder.
func (s *gradeStats) pick(u float64, from ...cadence.Grade) cadence.Grade {
	acc := 0.0
	for _, g := range from[:len(from)-1] {
		acc += s.prob[g]
		if u < acc {
			return g
		}
	}
	return from[len(from)-1]
}

// reviewCosts is the behavior model the simulation samples from.
type reviewCosts struct {
	first gradeStats // first review of each item, all grades
	later gradeStats // later reviews; prob covers recalled grades only
}

// computeReviewCosts derives grade probabilities and average durations from
// logs. Recall probabilities for later reviews are computed among
// hard/good/easy only, since the simulation decides recall by retention.
func computeReviewCosts(logs []cadence.ReviewLog) reviewCosts {
	groups := make(map[string][]cadence.ReviewLog)
	for _, log := range logs {
		groups[log.ItemID] = append(groups[log.ItemID], log)
	}

	var (
		c                     reviewCosts
		firstCount, laterDurN [cadence.Easy + 1]float64
		recallCount           [cadence.Easy + 1]float64
		firstTotal, recallAll float64
	)
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].ReviewedAt.Before(g[j].ReviewedAt) })
		for i, log := range g {
			if !log.Grade.IsValid() {
				continue
			}
			d := 0.0
			if log.DurationMillis != nil {
				d = float64(*log.DurationMillis)
			}
			if i == 0 {
				firstTotal++
				firstCount[log.Grade]++
				c.first.duration[log.Grade] += d
				continue
			}
			laterDurN[log.Grade]++
			c.later.duration[log.Grade] += d
			if log.Grade != cadence.Forgot {
				recallAll++
				recallCount[log.Grade]++
			}
		}
	}

	for _, g := range cadence.Grades {
		if firstCount[g] > 0 {
			c.first.duration[g] /= firstCount[g]
		}
		if laterDurN[g] > 0 {
			c.later.duration[g] /= laterDurN[g]
		}
		if firstTotal > 0 {
			c.first.prob[g] = firstCount[g] / firstTotal
		}
		if recallAll > 0 && g != cadence.Forgot {
			c.later.prob[g] = recallCount[g] / recallAll
		}
	}
	if recallAll == 0 {
		c.later.prob[cadence.Hard] = 1.0 / 3.0
		c.later.prob[cadence.Good] = 1.0 / 3.0
		c.later.prob[cadence.Easy] = 1.0 / 3.0
	}
	return c
}

// simulateCost estimates the review time spent per retained item at the
// given retention by simulating 1000 items over one year.
func simulateCost(retention float64, params cadence.Parameters, costs reviewCosts) float64 {
	const numItems = 1000

	s, err := cadence.NewScheduler(cadence.SchedulerConfig{Parameters: params})
	if err != nil {
		return math.Inf(1)
	}

	rng := rand.New(rand.NewSource(42))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var total float64
	for i := 0; i < numItems; i++ {
		var state *cadence.MemoryState
		now := start

		for !now.After(end) {
			var g cadence.Grade
			var dur float64
			switch {
			case state == nil:
				g = costs.first.pick(rng.Float64(), cadence.Grades[:]...)
				dur = costs.first.duration[g]
			case rng.Float64() < retention:
				g = costs.later.pick(rng.Float64(), cadence.Hard, cadence.Good, cadence.Easy)
				dur = costs.later.duration[g]
			default:
				g = cadence.Forgot
				dur = costs.later.duration[g]
			}
			total += dur

			res, err := s.ProcessReview(cadence.ReviewInput{
				State:            state,
				Grade:            g,
				DesiredRetention: retention,
				Now:              now,
				CreatedAt:        start,
			})
			if err != nil {
				return math.Inf(1)
			}
			state = &res.State
			now = res.Due
		}
	}

	return total / (retention * numItems)
}

// ComputeOptimalRetention returns the candidate retention with the lowest
// simulated cost per retained item. Every log must carry DurationMillis.
func (o *Optimizer) ComputeOptimalRetention(ctx context.Context, params cadence.Parameters, logs []cadence.ReviewLog) (float64, error) {
	if len(logs) < MinRetentionLogs {
		return 0, ErrInsufficientLogs
	}
	for _, log := range logs {
		if log.DurationMillis == nil {
			return 0, ErrMissingDuration
		}
	}

	costs := computeReviewCosts(logs)

	best := RetentionCandidates[0]
	bestCost := math.Inf(1)
	for _, c := range RetentionCandidates {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if cost := simulateCost(c, params, costs); cost < bestCost {
			bestCost = cost
			best = c
		}
	}
	return best, nil
}
