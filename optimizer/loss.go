package optimizer

import (
	"math"

	"github.com/sky-flux/cadence"
)

const (
	bceClamp = 1e-7
	gradEps  = 1e-5
)

// bceLoss computes the binary cross-entropy loss: -[y*ln(p) + (1-y)*ln(1-p)].
// rPred is clamped to [bceClamp, 1-bceClamp] to avoid log(0).
func bceLoss(rPred, y float64) float64 {
	p := math.Max(bceClamp, math.Min(rPred, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// computeBatchLoss replays every item's history under w and averages the BCE
// between the predicted recall probability before each cross-day review and
// whether the item was actually recalled. Returns 0 when nothing qualifies.
func computeBatchLoss(w Vector, data dataset) float64 {
	s, err := cadence.NewScheduler(cadence.SchedulerConfig{
		Parameters: cadence.ClampParameters(cadence.ParametersFromVector(w)),
	})
	if err != nil {
		return 0
	}

	var totalLoss float64
	var count int

	for _, reviews := range data {
		var state *cadence.MemoryState
		created := reviews[0].at

		for _, rev := range reviews {
			if state != nil && rev.elapsedDays >= 1.0 {
				rPred := cadence.RecallProbability(state.Stability, rev.elapsedDays)
				totalLoss += bceLoss(rPred, rev.label)
				count++
			}

			res, err := s.ProcessReview(cadence.ReviewInput{
				State:     state,
				Grade:     rev.grade,
				Now:       rev.at,
				CreatedAt: created,
			})
			if err != nil {
				break
			}
			state = &res.State
		}
	}

	if count == 0 {
		return 0
	}
	return totalLoss / float64(count)
}

// numericalGradient computes dL/dw by central differences:
// (L(w[i]+ε) - L(w[i]-ε)) / 2ε.
func numericalGradient(w Vector, data dataset) Vector {
	var grad Vector
	for i := range w {
		plus, minus := w, w
		plus[i] += gradEps
		minus[i] -= gradEps
		grad[i] = (computeBatchLoss(plus, data) - computeBatchLoss(minus, data)) / (2 * gradEps)
	}
	return grad
}
