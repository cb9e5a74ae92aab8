// Package optim implements optimization algorithms for training quantum
// layers.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with L2 weight decay
//   - CosineAnnealing: learning rate schedule
//
// Gradients are not passed to Step; each qnn.Parameter carries its own
// gradient buffer, filled by qnn.ParameterShift.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:          5e-3,
//	    WeightDecay: 1e-4,
//	})
//	sched := optim.NewCosineAnnealing(optimizer, epochs, 0)
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    loss := func() (float64, error) { return model.Loss(ctx, x, y, false) }
//	    if err := qnn.Gradients(loss, model.Parameters()); err != nil {
//	        return err
//	    }
//	    optimizer.Step()
//	    sched.Step()
//	}
package optim

import (
	"github.com/born-ml/quantumnat/internal/qnn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR / SetLR: Read and change the learning rate (for scheduling)
type Optimizer interface {
	// Step applies the gradients held by each parameter.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Gradient rules accumulate, so this should be called before each
	// gradient evaluation.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// zeroGrad clears the gradients of params.
func zeroGrad(params []*qnn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// hasGrad reports whether p carries a gradient matching its values.
func hasGrad(p *qnn.Parameter) bool {
	return p != nil && len(p.Grad) == len(p.Values)
}
