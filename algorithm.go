package cadence

import "math"

// retentionScale is the 9 in R(t, S) = (1 + t/(9·S))^-1: at t = S recall
// probability is 0.9.
const retentionScale = 9.0

// algo evaluates the memory model for one set of parameters.
type algo struct {
	p Parameters
}

func newAlgo(p Parameters) algo {
	return algo{p: p}
}

// RecallProbability returns the modeled probability of recall after
// elapsedDays for an item with the given stability.
//
//	R(t, S) = (1 + t / (9·S))^-1
//
// It returns 0 for non-positive stability and treats negative elapsed time as 0.
func RecallProbability(stability, elapsedDays float64) float64 {
	if !(stability > 0) {
		return 0
	}
	if !(elapsedDays > 0) {
		return 1
	}
	return 1 / (1 + elapsedDays/(retentionScale*stability))
}

// IntervalFromStability returns the review interval in days at which recall
// probability falls to desiredRetention.
//
//	I(S, r) = round(9·S·(1/r - 1)), clamped to [1, 365].
//
// Retention at or below 0 yields the maximum interval, at or above 1 the minimum.
func IntervalFromStability(stability, desiredRetention float64) int {
	switch {
	case !(stability > 0):
		return MinInterval
	case !(desiredRetention > 0):
		return MaxInterval
	case desiredRetention >= 1:
		return MinInterval
	}
	ivl := retentionScale * stability * (1/desiredRetention - 1)
	if ivl >= MaxInterval {
		return MaxInterval
	}
	return max(int(math.Round(ivl)), MinInterval)
}

// initStability returns the initial stability S₀(G), floored at MinStability.
func (a *algo) initStability(g Grade) float64 {
	return clampS(a.p.InitialStability.For(g))
}

// initDifficulty returns D₀(G) = Baseline - (G-3)·Slope, clamped to [1, 10].
func (a *algo) initDifficulty(g Grade) float64 {
	return clampD(a.p.Difficulty.Baseline - g.offset()*a.p.Difficulty.Slope)
}

// nextDifficulty computes the updated difficulty after a review.
// D' = MR·Baseline + (1-MR)·(D - Step·(G-3)), clamped to [1, 10].
// With a small MR, Good leaves D almost unchanged and drifts it toward Baseline.
func (a *algo) nextDifficulty(d float64, g Grade) float64 {
	w := a.p.Difficulty
	next := w.MeanReversion*w.Baseline + (1-w.MeanReversion)*(d-w.Step*g.offset())
	return clampD(next)
}

// nextStability dispatches on phase and grade.
func (a *algo) nextStability(phase Phase, d, s float64, g Grade, elapsedDays float64) float64 {
	if phase == New {
		return a.initStability(g)
	}
	if !(s > 0) {
		s = MinStability
	}
	d = clampD(d)
	r := RecallProbability(s, elapsedDays)
	if g == Forgot {
		return a.forgetStability(d, s, r)
	}
	return a.recallStability(d, s, r, g)
}

// recallStability computes stability after a successful review (Hard/Good/Easy).
// S' = S·(1 + e^w8·(11-D)·S^(-w9)·(e^(w10·(1-R)) - 1)·hardPenalty·easyBonus)
func (a *algo) recallStability(d, s, r float64, g Grade) float64 {
	w := a.p.Recall
	growth := math.Exp(w.Growth) *
		(11 - d) *
		math.Pow(s, -w.StabilityDecay) *
		(math.Exp(w.RetrievabilityGain*(1-r)) - 1)
	switch g {
	case Hard:
		growth *= w.HardPenalty
	case Easy:
		growth *= w.EasyBonus
	}
	return clampS(s * (1 + growth))
}

// forgetStability computes stability after a lapse.
// S' = w11·D^(-w12)·((S+1)^w13 - 1)·e^(w14·(1-R)), never above S.
func (a *algo) forgetStability(d, s, r float64) float64 {
	w := a.p.Forget
	next := w.Scale *
		math.Pow(d, -w.DifficultyDecay) *
		(math.Pow(s+1, w.StabilityExponent) - 1) *
		math.Exp(w.RetrievabilityGain*(1-r))
	return clampS(math.Min(s, next))
}

// clampS floors stability at MinStability. NaN maps to MinStability.
func clampS(s float64) float64 {
	if !(s >= MinStability) {
		return MinStability
	}
	return s
}

// clampD clamps difficulty to [1, 10]. NaN maps to DefaultDifficulty.
func clampD(d float64) float64 {
	if math.IsNaN(d) {
		return DefaultDifficulty
	}
	return math.Min(math.Max(d, MinDifficulty), MaxDifficulty)
}
