// Package optimizer fits memory-model weights to historical review logs.
//
// It provides two capabilities:
//
//   - [Optimizer.ComputeOptimalParameters] trains the 17 weights of
//     [cadence.Parameters] using mini-batch gradient descent with the [Adam]
//     optimizer and a [CosineAnnealing] learning rate schedule. Gradients
//     are numerical central differences of binary cross-entropy loss.
//
//   - [Optimizer.ComputeOptimalRetention] finds the desired retention that
//     minimizes simulated review time per retained item.
//
// # Usage
//
//	opt := optimizer.NewOptimizer(optimizer.Config{})
//	params, err := opt.ComputeOptimalParameters(ctx, logs)
//	retention, err := opt.ComputeOptimalRetention(ctx, params, logs)
//
// # Data Requirements
//
// Parameter fitting needs at least MiniBatchSize (default 512) cross-day
// reviews. Optimal retention needs at least 512 logs, each with
// DurationMillis set.
package optimizer
