// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package qnn provides trainable quantum layers and the QuantumNAT
// classifier.
//
// # Overview
//
// This package contains:
//   - Layers: Op, Sequential, RandomLayer, HistoryLayer
//   - Encoders: named angle encoders (EncoderOpLists)
//   - Measurement: MeasureAll with an optional classical ordering
//   - Model: QFCModel, runnable locally or on a backend
//   - Objectives: LogSoftmax, Softmax, NLLLoss
//   - Gradients: ParameterShift
//
// # Basic Usage
//
//	model, _ := qnn.NewQFCModel(qnn.WithModelSeed(42))
//	logp, _ := model.Forward(ctx, x, false) // (batch, 2) log-probabilities
//
//	loss := func() (float64, error) { return model.Loss(ctx, x, y, false) }
//	_ = qnn.Gradients(loss, model.Parameters())
//
// # Noise-aware training
//
// Attaching a noise model injects its channels while training locally.
// With useBackend the recorded circuit is sent to the processor's
// backend instead, and the noise model only supplies the wire mapping.
//
//	model.SetNoiseModel(quantum.NewNoiseModel(profile))
//	model.SetProcessor(backend.NewProcessor(exec))
//	logp, _ := model.Forward(ctx, x, true)
package qnn
