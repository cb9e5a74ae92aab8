package optim

import (
	"fmt"
	"slices"

	"github.com/born-ml/quantumnat/internal/qnn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	params     []*qnn.Parameter
	lr         float64
	momentum   float64
	velocities map[*qnn.Parameter][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*qnn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*qnn.Parameter][]float64),
	}
}

// Step performs a single optimization step.
//
// Applies gradient descent update to all parameters:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
func (s *SGD) Step() {
	for _, param := range s.params {
		if !hasGrad(param) {
			continue
		}
		if s.momentum == 0 {
			for i, g := range param.Grad {
				param.Values[i] -= s.lr * g
			}
			continue
		}

		velocity, ok := s.velocities[param]
		if !ok {
			velocity = make([]float64, len(param.Values))
			s.velocities[param] = velocity
		}
		for i, g := range param.Grad {
			velocity[i] = s.momentum*velocity[i] + g
			param.Values[i] -= s.lr * velocity[i]
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrad(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// StateDict returns the optimizer state for checkpointing.
//
// For SGD with momentum, this exports velocity buffers for each parameter.
// Without momentum, returns an empty map.
//
// State keys: "velocity.{param_index}" -> velocity values.
func (s *SGD) StateDict() map[string][]float64 {
	stateDict := make(map[string][]float64)
	if s.momentum == 0 {
		return stateDict
	}
	for i, param := range s.params {
		velocity, exists := s.velocities[param]
		if !exists {
			continue
		}
		stateDict[fmt.Sprintf("velocity.%d", i)] = slices.Clone(velocity)
	}
	return stateDict
}

// LoadStateDict restores velocity buffers saved by StateDict.
//
// Returns an error if a velocity length doesn't match its parameter.
func (s *SGD) LoadStateDict(stateDict map[string][]float64) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*qnn.Parameter][]float64)
	for i, param := range s.params {
		velocity, exists := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !exists {
			continue
		}
		if len(velocity) != len(param.Values) {
			return fmt.Errorf("velocity length mismatch for parameter %d: expected %d, got %d",
				i, len(param.Values), len(velocity))
		}
		s.velocities[param] = slices.Clone(velocity)
	}
	return nil
}
