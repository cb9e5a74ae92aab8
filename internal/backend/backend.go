// Package backend executes external circuits on simulators or remote
// hardware queues.
//
// Every backend is asynchronous: Submit returns a job ID immediately and
// the caller polls Status until the job is terminal, then fetches the
// Result. The Executor wraps this protocol with chunking, rate limiting,
// retries with backoff, timeouts and cancellation.
//
// Results are in the external convention: state vectors are indexed with
// qubit 0 as the least significant bit, and count keys list classical
// bits from the highest index on the left to bit 0 on the right.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/born-ml/quantumnat/internal/circuit"
)

// ErrUnknownJob is wrapped by errors for job IDs a backend never issued.
var ErrUnknownJob = errors.New("unknown job")

// Capabilities describes what a backend accepts and returns.
type Capabilities struct {
	Statevector       bool `json:"statevector"`
	Simulator         bool `json:"simulator"`
	Noisy             bool `json:"noisy"`
	MaxShots          int  `json:"max_shots"`
	MaxCircuitsPerJob int  `json:"max_circuits_per_job"`
	MaxQubits         int  `json:"max_qubits"`
}

// Status is the lifecycle position of a job.
type Status int

// Job states.
const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusCancelled
)

var statusNames = [...]string{"queued", "running", "done", "failed", "cancelled"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, bool) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return 0, false
}

// Terminal reports whether the job will not change state again.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCancelled
}

// Counts maps an external bitstring to the number of shots that produced
// it.
type Counts map[string]int

// Shots returns the total number of shots.
func (c Counts) Shots() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Job is one submission: bound circuits sharing a shot count.
type Job struct {
	ID          string
	Circuits    []*circuit.Circuit
	Shots       int
	Statevector bool
	Seed        int64
}

// Result holds one entry per circuit of the job, in submission order.
type Result struct {
	JobID        string
	Backend      string
	Counts       []Counts
	Statevectors [][]complex128
	Shots        int
	Duration     time.Duration
}

// Backend is an asynchronous circuit executor.
type Backend interface {
	Name() string
	Capabilities() Capabilities
	Submit(ctx context.Context, job *Job) (string, error)
	Status(ctx context.Context, id string) (Status, error)
	Result(ctx context.Context, id string) (*Result, error)
	Cancel(ctx context.Context, id string) error
}
