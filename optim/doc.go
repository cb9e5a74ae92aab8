// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training quantum
// layers.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction and weight decay
//   - CosineAnnealing: learning rate schedule
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/quantumnat/optim"
//	    "github.com/born-ml/quantumnat/qnn"
//	)
//
//	func main() {
//	    model, _ := qnn.NewQFCModel()
//
//	    optimizer := optim.NewAdam(
//	        model.Parameters(),
//	        optim.AdamConfig{LR: 5e-3, WeightDecay: 1e-4},
//	    )
//	    sched := optim.NewCosineAnnealing(optimizer, 5, 0)
//
//	    for epoch := range 5 {
//	        optimizer.ZeroGrad()
//	        loss := func() (float64, error) { return model.Loss(ctx, x, y, false) }
//	        _ = qnn.Gradients(loss, model.Parameters())
//	        optimizer.Step()
//	        sched.Step()
//	    }
//	}
//
// # Gradients
//
// Optimizers read the gradient buffer carried by each parameter. Gradient
// rules accumulate into it, so ZeroGrad must run before each evaluation.
package optim
