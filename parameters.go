package cadence

import "fmt"

// NumWeights is the length of the flat weight vector behind Parameters.
const NumWeights = 17

// StabilityTable holds the initial stability assigned on a first review,
// one entry per grade.
type StabilityTable struct {
	Forgot float64 `json:"forgot"`
	Hard   float64 `json:"hard"`
	Good   float64 `json:"good"`
	Easy   float64 `json:"easy"`
}

// For returns the table entry for g. Invalid grades read the Good entry.
func (t StabilityTable) For(g Grade) float64 {
	switch g {
	case Forgot:
		return t.Forgot
	case Hard:
		return t.Hard
	case Easy:
		return t.Easy
	default:
		return t.Good
	}
}

// DifficultyWeights shape the initial difficulty and its damped update.
//
//	D₀(G)  = Baseline - (G-3)·Slope
//	D'(D,G) = MeanReversion·Baseline + (1-MeanReversion)·(D - Step·(G-3))
type DifficultyWeights struct {
	Baseline      float64 `json:"baseline"`       // w[4], D₀(Good)
	Slope         float64 `json:"slope"`          // w[5]
	Step          float64 `json:"step"`           // w[6], grade sensitivity
	MeanReversion float64 `json:"mean_reversion"` // w[7]
}

// RecallWeights shape stability growth after a successful review.
//
//	S' = S·(1 + e^Growth·(11-D)·S^(-StabilityDecay)·(e^(RetrievabilityGain·(1-R)) - 1)·m(G))
//
// where m(Hard) = HardPenalty, m(Easy) = EasyBonus and m(Good) = 1.
type RecallWeights struct {
	Growth             float64 `json:"growth"`              // w[8]
	StabilityDecay     float64 `json:"stability_decay"`     // w[9]
	RetrievabilityGain float64 `json:"retrievability_gain"` // w[10]
	HardPenalty        float64 `json:"hard_penalty"`        // w[15]
	EasyBonus          float64 `json:"easy_bonus"`          // w[16]
}

// ForgetWeights shape the post-lapse stability.
//
//	S' = Scale·D^(-DifficultyDecay)·((S+1)^StabilityExponent - 1)·e^(RetrievabilityGain·(1-R))
type ForgetWeights struct {
	Scale              float64 `json:"scale"`               // w[11]
	DifficultyDecay    float64 `json:"difficulty_decay"`    // w[12]
	StabilityExponent  float64 `json:"stability_exponent"`  // w[13]
	RetrievabilityGain float64 `json:"retrievability_gain"` // w[14]
}

// Parameters is the full set of tunable weights of the memory model.
type Parameters struct {
	InitialStability StabilityTable    `json:"initial_stability"`
	Difficulty       DifficultyWeights `json:"difficulty"`
	Recall           RecallWeights     `json:"recall"`
	Forget           ForgetWeights     `json:"forget"`
}

// DefaultParameters are the stock weights of the model.
var DefaultParameters = Parameters{
	InitialStability: StabilityTable{Forgot: 0.4, Hard: 0.6, Good: 2.4, Easy: 5.8},
	Difficulty:       DifficultyWeights{Baseline: 4.93, Slope: 0.94, Step: 0.86, MeanReversion: 0.01},
	Recall: RecallWeights{
		Growth:             1.49,
		StabilityDecay:     0.14,
		RetrievabilityGain: 0.94,
		HardPenalty:        0.29,
		EasyBonus:          2.61,
	},
	Forget: ForgetWeights{
		Scale:              2.18,
		DifficultyDecay:    0.05,
		StabilityExponent:  0.34,
		RetrievabilityGain: 1.26,
	},
}

// LowerBounds defines the minimum allowed value for each weight, in Vector order.
var LowerBounds = [NumWeights]float64{
	0.1, 0.1, 0.1, 0.1,       // w[0..3]   initial stability
	1.0, 0.001, 0.001, 0.0,   // w[4..7]   difficulty
	0.0, 0.0, 0.001,          // w[8..10]  recall growth
	0.001, 0.001, 0.001, 0.0, // w[11..14] forget
	0.0, 1.0,                 // w[15..16] hard penalty, easy bonus
}

// UpperBounds defines the maximum allowed value for each weight, in Vector order.
var UpperBounds = [NumWeights]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5,
	5.0, 0.25, 0.9, 4.0,
	1.0, 6.0,
}

// Vector flattens p into the conventional w[0..16] ordering.
func (p Parameters) Vector() [NumWeights]float64 {
	return [NumWeights]float64{
		p.InitialStability.Forgot, p.InitialStability.Hard, p.InitialStability.Good, p.InitialStability.Easy,
		p.Difficulty.Baseline, p.Difficulty.Slope, p.Difficulty.Step, p.Difficulty.MeanReversion,
		p.Recall.Growth, p.Recall.StabilityDecay, p.Recall.RetrievabilityGain,
		p.Forget.Scale, p.Forget.DifficultyDecay, p.Forget.StabilityExponent, p.Forget.RetrievabilityGain,
		p.Recall.HardPenalty, p.Recall.EasyBonus,
	}
}

// ParametersFromVector is the inverse of Parameters.Vector.
func ParametersFromVector(w [NumWeights]float64) Parameters {
	return Parameters{
		InitialStability: StabilityTable{Forgot: w[0], Hard: w[1], Good: w[2], Easy: w[3]},
		Difficulty:       DifficultyWeights{Baseline: w[4], Slope: w[5], Step: w[6], MeanReversion: w[7]},
		Recall: RecallWeights{
			Growth:             w[8],
			StabilityDecay:     w[9],
			RetrievabilityGain: w[10],
			HardPenalty:        w[15],
			EasyBonus:          w[16],
		},
		Forget: ForgetWeights{
			Scale:              w[11],
			DifficultyDecay:    w[12],
			StabilityExponent:  w[13],
			RetrievabilityGain: w[14],
		},
	}
}

// ClampParameters constrains every weight to [LowerBounds, UpperBounds].
func ClampParameters(p Parameters) Parameters {
	w := p.Vector()
	for i := range w {
		w[i] = min(max(w[i], LowerBounds[i]), UpperBounds[i])
	}
	return ParametersFromVector(w)
}

// ValidateParameters checks that all weights are within [LowerBounds, UpperBounds].
func ValidateParameters(p Parameters) error {
	w := p.Vector()
	for i := range w {
		if !(w[i] >= LowerBounds[i] && w[i] <= UpperBounds[i]) {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}
