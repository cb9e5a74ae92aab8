// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package quantum provides the batched quantum device, its gates and the
// circuit boundary used to run recorded circuits on a backend.
//
// # Overview
//
// This package contains:
//   - Device: batched state vector with an operation recorder and an
//     optional noise model
//   - Gates: closed gate set with matrices as functions of parameters
//   - Circuit: instruction list over named registers, with parameter
//     placeholders, binding and layout transpilation
//   - Translation: device history to circuit and back, measurement
//     circuits, register mappings
//   - Estimation: Pauli observables, analytic and count-based expectations
//   - Noise: calibration profiles and noise models
//
// # Basic Usage
//
//	import "github.com/born-ml/quantumnat/quantum"
//
//	func main() {
//	    dev, _ := quantum.NewDevice(2, 1)
//	    _ = dev.H(0)
//	    _ = dev.CNOT(0, 1)
//
//	    // Analytic ⟨Z⟩ per wire
//	    z, _ := dev.ExpvalZ()
//
//	    // Same circuit on the external boundary
//	    circ, _ := quantum.FromDevice(dev)
//	    src, _ := quantum.EmitQASM(circ)
//	}
//
// # Endianness
//
// Device amplitudes are indexed with wire 0 as the most significant bit.
// Backends index with qubit 0 as the least significant bit and report
// count keys with classical bit n-1 leftmost. Use ToLittleEndian and
// FromLittleEndian to convert between the two.
//
// # Errors
//
// Errors match ErrConfig, ErrState, ErrBackend or ErrNumeric with
// errors.Is. IsRetryable reports whether a backend error may succeed on
// retry.
package quantum
