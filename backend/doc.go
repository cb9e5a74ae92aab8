// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend runs translated circuits on execution backends.
//
// # Overview
//
// This package contains:
//   - Backend interface: asynchronous submit, status, result and cancel
//   - Simulator: ideal state-vector backend and noisy trajectory backend
//   - Remote: HTTP client for a backend service, plus the matching server
//   - Executor: batching, bounded retry with backoff, rate limiting,
//     cancellation and timeouts over any Backend
//   - Processor: device history in, per-wire expectation values out
//
// # Basic Usage
//
//	exec := backend.NewExecutor(backend.NewSimulator())
//	proc := backend.NewProcessor(exec, backend.WithShots(8192))
//
//	z, err := proc.RunDevice(ctx, dev) // (batch, nWires) ⟨Z⟩
//
// Backends report little-endian state vectors and count keys with
// classical bit n-1 leftmost; Processor converts both back to device
// order.
package backend
