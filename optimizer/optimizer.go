package optimizer

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/sky-flux/cadence"
)

var (
	// ErrEmptyLogs is returned when no review logs are provided.
	ErrEmptyLogs = errors.New("optimizer: no review logs provided")

	// ErrInsufficientData is returned when cross-day reviews are fewer than MiniBatchSize.
	ErrInsufficientData = errors.New("optimizer: insufficient cross-day reviews for optimization")
)

// Config configures the training process.
// Zero values are replaced with defaults.
type Config struct {
	Epochs        int     `json:"epochs"`          // default 5
	MiniBatchSize int     `json:"mini_batch_size"` // default 512
	LearningRate  float64 `json:"learning_rate"`   // default 0.04
	MaxSeqLen     int     `json:"max_seq_len"`     // default 64
}

// Optimizer fits memory-model weights to review history using mini-batch
// gradient descent with Adam and a cosine-annealed learning rate.
type Optimizer struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
}

// NewOptimizer creates an Optimizer with the given config.
// Zero-valued fields receive defaults: Epochs=5, MiniBatchSize=512,
// LearningRate=0.04, MaxSeqLen=64.
func NewOptimizer(cfg Config) *Optimizer {
	o := &Optimizer{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
	}
	if o.epochs <= 0 {
		o.epochs = 5
	}
	if o.miniBatchSize <= 0 {
		o.miniBatchSize = 512
	}
	if o.learningRate <= 0 {
		o.learningRate = 0.04
	}
	if o.maxSeqLen <= 0 {
		o.maxSeqLen = 64
	}
	return o
}

// ComputeOptimalParameters fits weights to logs, starting from
// DefaultParameters. Gradients are numerical central differences of the
// BCE loss.
//
// Returns ErrEmptyLogs if logs is empty, or ErrInsufficientData (along with
// DefaultParameters) if cross-day reviews are fewer than MiniBatchSize.
// Cancelling ctx stops training at the next epoch boundary and returns the
// best weights found so far together with ctx.Err().
func (o *Optimizer) ComputeOptimalParameters(ctx context.Context, logs []cadence.ReviewLog) (cadence.Parameters, error) {
	if len(logs) == 0 {
		return cadence.Parameters{}, ErrEmptyLogs
	}

	data := formatRevlogs(logs)
	data.truncate(o.maxSeqLen)

	numReviews := countCrossDayReviews(data)
	if numReviews < o.miniBatchSize {
		return cadence.DefaultParameters, ErrInsufficientData
	}

	w := cadence.DefaultParameters.Vector()
	tMax := int(math.Ceil(float64(numReviews)/float64(o.miniBatchSize))) * o.epochs
	adam := NewAdam(o.learningRate)
	ca := NewCosineAnnealing(o.learningRate, tMax)
	rng := rand.New(rand.NewSource(42))
	ids := data.ids()

	step := func(batch dataset) {
		grad := numericalGradient(w, batch)
		adam.SetLR(ca.LR())
		w = clampVector(adam.Update(w, grad))
		ca.Step()
	}

	best := w
	bestLoss := computeBatchLoss(w, data)

	for epoch := 0; epoch < o.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return cadence.ParametersFromVector(best), err
		}

		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		batch := make(dataset)
		crossDay := 0
		for _, id := range ids {
			reviews := data[id]
			batch[id] = reviews
			for _, r := range reviews {
				if r.elapsedDays >= 1.0 {
					crossDay++
				}
			}
			if crossDay >= o.miniBatchSize {
				step(batch)
				batch = make(dataset)
				crossDay = 0
			}
		}
		if crossDay > 0 {
			step(batch)
		}

		if loss := computeBatchLoss(w, data); loss < bestLoss {
			bestLoss = loss
			best = w
		}
	}

	return cadence.ParametersFromVector(best), nil
}

// ComputeBatchLoss returns the average BCE loss of params over the
// cross-day reviews in logs.
func (o *Optimizer) ComputeBatchLoss(params cadence.Parameters, logs []cadence.ReviewLog) float64 {
	return computeBatchLoss(params.Vector(), formatRevlogs(logs))
}

// clampVector constrains each weight to [LowerBounds, UpperBounds].
func clampVector(w Vector) Vector {
	for i := range w {
		w[i] = min(max(w[i], cadence.LowerBounds[i]), cadence.UpperBounds[i])
	}
	return w
}
