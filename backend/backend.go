// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/hybrid"
	"github.com/born-ml/quantumnat/internal/noise"
)

// Backend is an asynchronous circuit execution service.
type Backend = backend.Backend

// Capabilities describes what a backend accepts and returns.
type Capabilities = backend.Capabilities

// Job is one submission.
type Job = backend.Job

// Result holds the outputs of a finished job.
type Result = backend.Result

// Counts maps bitstrings to occurrences.
type Counts = backend.Counts

// Status is the lifecycle position of a job.
type Status = backend.Status

// Simulators

// Simulator is the in-process backend.
type Simulator = backend.Simulator

// SimOption configures a Simulator.
type SimOption = backend.SimOption

// NewSimulator returns an ideal state-vector simulator.
func NewSimulator(opts ...SimOption) *Simulator { return backend.NewSimulator(opts...) }

// NewNoisySimulator returns a simulator injecting the channels of profile.
func NewNoisySimulator(profile *noise.Profile, noiseOpts []noise.Option, opts ...SimOption) *Simulator {
	return backend.NewNoisySimulator(profile, noiseOpts, opts...)
}

// WithSeed fixes the simulator's sampling seed.
func WithSeed(seed int64) SimOption { return backend.WithSeed(seed) }

// Remote

// Remote is a Backend reached over HTTP.
type Remote = backend.Remote

// RemoteOption configures a Remote.
type RemoteOption = backend.RemoteOption

// NewRemote connects to a backend service and reads its capabilities.
func NewRemote(ctx context.Context, baseURL string, opts ...RemoteOption) (*Remote, error) {
	return backend.NewRemote(ctx, baseURL, opts...)
}

// NewServer exposes b over HTTP for Remote clients.
func NewServer(b Backend, logger *slog.Logger) http.Handler {
	return backend.NewRemoteServer(b, logger)
}

// Execution

// Executor drives a Backend through submit, poll and fetch.
type Executor = backend.Executor

// ExecutorConfig tunes job submission, polling and retries.
type ExecutorConfig = backend.ExecutorConfig

// ExecutorOption configures an Executor.
type ExecutorOption = backend.ExecutorOption

// Request is one executor run.
type Request = backend.Request

// DefaultExecutorConfig returns the executor defaults.
func DefaultExecutorConfig() ExecutorConfig { return backend.DefaultExecutorConfig() }

// NewExecutor wraps b.
func NewExecutor(b Backend, opts ...ExecutorOption) *Executor {
	return backend.NewExecutor(b, opts...)
}

// WithExecutorConfig replaces the executor configuration.
func WithExecutorConfig(cfg ExecutorConfig) ExecutorOption { return backend.WithExecutorConfig(cfg) }

// Processor

// Processor turns device histories into backend runs and expectations.
type Processor = hybrid.Processor

// ProcessorOption configures a Processor.
type ProcessorOption = hybrid.Option

// NewProcessor returns a Processor running on exec.
func NewProcessor(exec *Executor, opts ...ProcessorOption) *Processor {
	return hybrid.New(exec, opts...)
}

// WithShots sets the shots per circuit.
func WithShots(n int) ProcessorOption { return hybrid.WithShots(n) }
