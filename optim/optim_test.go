// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"math"
	"testing"

	"github.com/born-ml/quantumnat/optim"
	"github.com/born-ml/quantumnat/qnn"
	"github.com/born-ml/quantumnat/quantum"
)

// TestOptimizerInterface verifies both optimizers implement Optimizer.
func TestOptimizerInterface(_ *testing.T) {
	var _ optim.Optimizer = (*optim.SGD)(nil)
	var _ optim.Optimizer = (*optim.Adam)(nil)
}

func param(values, grad []float64) *qnn.Parameter {
	ry, _ := quantum.LookupGate("ry")
	p := qnn.NewParameter("w", ry, values...)
	copy(p.Grad, grad)
	return p
}

// TestSGDStep applies one plain gradient step.
func TestSGDStep(t *testing.T) {
	p := param([]float64{1, 1}, []float64{1, -2})
	opt := optim.NewSGD([]*qnn.Parameter{p}, optim.SGDConfig{LR: 0.1})
	opt.Step()
	if math.Abs(p.Values[0]-0.9) > 1e-12 || math.Abs(p.Values[1]-1.2) > 1e-12 {
		t.Errorf("Values = %v, want [0.9 1.2]", p.Values)
	}
	opt.ZeroGrad()
	if p.Grad[0] != 0 || p.Grad[1] != 0 {
		t.Errorf("Grad = %v after ZeroGrad", p.Grad)
	}
}

// TestAdamFirstStep moves each value by about lr against its gradient.
func TestAdamFirstStep(t *testing.T) {
	p := param([]float64{0, 0}, []float64{3, -0.5})
	opt := optim.NewAdam([]*qnn.Parameter{p}, optim.AdamConfig{LR: 0.01})
	opt.Step()
	if math.Abs(p.Values[0]+0.01) > 1e-6 || math.Abs(p.Values[1]-0.01) > 1e-6 {
		t.Errorf("Values = %v, want [-0.01 0.01]", p.Values)
	}
}

// TestCosineAnnealing reaches the floor after tMax steps.
func TestCosineAnnealing(t *testing.T) {
	opt := optim.NewSGD(nil, optim.SGDConfig{LR: 1})
	sched := optim.NewCosineAnnealing(opt, 4, 0.1)
	sched.Step()
	sched.Step()
	if math.Abs(sched.LastLR()-0.55) > 1e-12 {
		t.Errorf("LR at half period = %v, want 0.55", sched.LastLR())
	}
	for i := 0; i < 5; i++ {
		sched.Step()
	}
	if math.Abs(sched.LastLR()-0.1) > 1e-12 {
		t.Errorf("LR after tMax = %v, want 0.1", sched.LastLR())
	}
}
