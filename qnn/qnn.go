// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package qnn

import (
	"math/rand"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qnn"
)

// Module interface defines the common interface for all quantum layers.
type Module = qnn.Module

// Parameter represents a trainable gate parameter.
type Parameter = qnn.Parameter

// NewParameter creates a parameter with a zeroed gradient.
func NewParameter(name string, kind gates.Kind, values ...float64) *Parameter {
	return qnn.NewParameter(name, kind, values...)
}

// Layers

// Op is a single trainable or fixed gate.
type Op = qnn.Op

// NewTrainableOp returns a gate with parameters drawn from [-π, π).
func NewTrainableOp(name string, kind gates.Kind, wires []int, rng *rand.Rand) (*Op, error) {
	return qnn.NewTrainableOp(name, kind, wires, rng)
}

// NewFixedOp returns a gate with constant parameters.
func NewFixedOp(kind gates.Kind, wires []int, params ...float64) *Op {
	return qnn.NewFixedOp(kind, wires, params...)
}

// Sequential applies modules in order.
type Sequential = qnn.Sequential

// RandomLayer is a seeded random gate sequence.
type RandomLayer = qnn.RandomLayer

// NewRandomLayer draws nOps gates from pool (default RX, RY, RZ, CNOT).
//
// Example:
//
//	layer, err := qnn.NewRandomLayer(50, []int{0, 1, 2, 3}, 42)
func NewRandomLayer(nOps int, wires []int, seed int64, pool ...gates.Kind) (*RandomLayer, error) {
	return qnn.NewRandomLayer(nOps, wires, seed, pool...)
}

// HistoryLayer replays a recorded gate sequence with trainable angles.
type HistoryLayer = qnn.HistoryLayer

// NewHistoryLayer builds a layer from a recorded history.
func NewHistoryLayer(hist *device.OperationHistory) (*HistoryLayer, error) {
	return qnn.NewHistoryLayer(hist)
}

// FromCircuit builds a layer from a possibly transpiled circuit.
func FromCircuit(c *circuit.Circuit) (*HistoryLayer, *mapping.RegisterMapping, error) {
	return qnn.FromCircuit(c)
}

// Encoders and measurement

// Encoder writes classical features into rotation angles.
type Encoder = qnn.Encoder

// NewEncoder returns a named encoder ("4x4_ryzxy", "4x4_rzsx", "2x8_ryzxyzxyz").
func NewEncoder(name string) (*Encoder, error) { return qnn.NewEncoder(name) }

// MeasureAll reads ⟨Z⟩ on every wire.
type MeasureAll = qnn.MeasureAll

// NewMeasureAll returns a measurement in wire order.
func NewMeasureAll() *MeasureAll { return qnn.NewMeasureAll() }

// Model

// QFCModel is the four-wire QuantumNAT classifier.
type QFCModel = qnn.QFCModel

// ModelOption configures a QFCModel.
type ModelOption = qnn.ModelOption

// NewQFCModel builds the classifier with freshly initialized weights.
func NewQFCModel(opts ...ModelOption) (*QFCModel, error) { return qnn.NewQFCModel(opts...) }

// WithModelSeed seeds layer initialization and noise sessions.
func WithModelSeed(seed int64) ModelOption { return qnn.WithModelSeed(seed) }

// WithRandomOps sets the size of the random layer.
func WithRandomOps(n int) ModelOption { return qnn.WithRandomOps(n) }

// WithEncoderName selects the input encoder.
func WithEncoderName(name string) ModelOption { return qnn.WithEncoderName(name) }

// Objectives and gradients

// LogSoftmax returns row-wise log-softmax.
func LogSoftmax(x [][]float64) [][]float64 { return qnn.LogSoftmax(x) }

// Softmax returns row-wise softmax.
func Softmax(x [][]float64) [][]float64 { return qnn.Softmax(x) }

// NLLLoss returns the mean negative log-likelihood of targets.
func NLLLoss(logp [][]float64, targets []int) (float64, error) { return qnn.NLLLoss(logp, targets) }

// Accuracy returns the fraction of rows whose argmax equals the target.
func Accuracy(scores [][]float64, targets []int) float64 { return qnn.Accuracy(scores, targets) }

// ParameterShift adds ∂f/∂p to p.Grad.
func ParameterShift(f func() (float64, error), p *Parameter) error { return qnn.ParameterShift(f, p) }

// Gradients runs ParameterShift for every parameter.
func Gradients(f func() (float64, error), params []*Parameter) error {
	return qnn.Gradients(f, params)
}
