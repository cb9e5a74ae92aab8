// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package qnn_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/quantumnat/qnn"
	"github.com/born-ml/quantumnat/quantum"
)

// TestModuleInterface verifies the layers implement Module.
func TestModuleInterface(_ *testing.T) {
	var _ qnn.Module = (*qnn.Op)(nil)
	var _ qnn.Module = (*qnn.RandomLayer)(nil)
	var _ qnn.Module = (*qnn.HistoryLayer)(nil)
	var _ qnn.Module = qnn.Sequential(nil)
}

// TestQFCModelForward checks the output shape and normalization.
func TestQFCModelForward(t *testing.T) {
	model, err := qnn.NewQFCModel(qnn.WithModelSeed(1), qnn.WithRandomOps(8))
	if err != nil {
		t.Fatalf("NewQFCModel failed: %v", err)
	}
	if len(model.Parameters()) == 0 {
		t.Fatal("Expected trainable parameters")
	}

	rng := rand.New(rand.NewSource(2))
	x := make([][]float64, 3)
	for i := range x {
		x[i] = make([]float64, 16)
		for j := range x[i] {
			x[i][j] = rng.Float64() * math.Pi
		}
	}
	logp, err := model.Forward(context.Background(), x, false)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if len(logp) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(logp))
	}
	for b, row := range logp {
		if len(row) != 2 {
			t.Fatalf("row %d has %d classes, want 2", b, len(row))
		}
		if sum := math.Exp(row[0]) + math.Exp(row[1]); math.Abs(sum-1) > 1e-6 {
			t.Errorf("row %d probabilities sum to %v", b, sum)
		}
	}
}

// TestParameterShift differentiates ⟨Z⟩ after RX(θ), which is cos θ.
func TestParameterShift(t *testing.T) {
	rx, _ := quantum.LookupGate("rx")
	op, err := qnn.NewTrainableOp("theta", rx, []int{0}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewTrainableOp failed: %v", err)
	}
	f := func() (float64, error) {
		dev, err := quantum.NewDevice(1, 1)
		if err != nil {
			return 0, err
		}
		if err := op.Forward(dev); err != nil {
			return 0, err
		}
		z, err := dev.ExpvalZ()
		if err != nil {
			return 0, err
		}
		return z[0][0], nil
	}
	if err := qnn.Gradients(f, op.Parameters()); err != nil {
		t.Fatalf("Gradients failed: %v", err)
	}
	theta := op.Param.Values[0]
	if got, want := op.Param.Grad[0], -math.Sin(theta); math.Abs(got-want) > 1e-9 {
		t.Errorf("grad = %v, want %v", got, want)
	}
}

// TestObjectives checks the loss helpers on hand-computed values.
func TestObjectives(t *testing.T) {
	logp := qnn.LogSoftmax([][]float64{{0, 0}})
	if math.Abs(logp[0][0]+math.Ln2) > 1e-12 {
		t.Errorf("LogSoftmax = %v, want -ln 2", logp[0])
	}
	loss, err := qnn.NLLLoss(logp, []int{1})
	if err != nil {
		t.Fatalf("NLLLoss failed: %v", err)
	}
	if math.Abs(loss-math.Ln2) > 1e-12 {
		t.Errorf("NLLLoss = %v, want ln 2", loss)
	}
	if acc := qnn.Accuracy([][]float64{{1, 0}, {0, 1}}, []int{0, 0}); acc != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", acc)
	}
}
