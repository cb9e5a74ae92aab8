// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/quantumnat/internal/optim"
	"github.com/born-ml/quantumnat/internal/qnn"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	model, _ := qnn.NewQFCModel()
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(params []*qnn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(
//	    model.Parameters(),
//	    optim.AdamConfig{
//	        LR:          5e-3,
//	        WeightDecay: 1e-4,
//	    },
//	)
func NewAdam(params []*qnn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// Schedules

// CosineAnnealing anneals an optimizer's learning rate.
type CosineAnnealing = optim.CosineAnnealing

// NewCosineAnnealing wraps opt, annealing to etaMin over tMax steps.
func NewCosineAnnealing(opt Optimizer, tMax int, etaMin float64) *CosineAnnealing {
	return optim.NewCosineAnnealing(opt, tMax, etaMin)
}
