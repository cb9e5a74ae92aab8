package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

// Simulator limits.
const (
	DefaultMaxShots          = 1 << 20
	DefaultMaxCircuitsPerJob = 300
	DefaultTrajectories      = 64
	DefaultJobRetention      = 10 * time.Minute
)

type simJob struct {
	status Status
	result *Result
	err    error
	cancel context.CancelFunc
	ended  time.Time
}

// Simulator is an in-process backend. Without a noise profile it is
// ideal and can return state vectors; with one it samples noisy
// trajectories and returns counts only.
type Simulator struct {
	name         string
	caps         Capabilities
	model        *noise.Model
	trajectories int
	latency      time.Duration
	retention    time.Duration
	seed         int64
	submits      atomic.Int64
	failSubmits  atomic.Int64
	logger       *slog.Logger

	mu   sync.Mutex
	jobs map[string]*simJob
}

// SimOption configures a Simulator.
type SimOption func(*Simulator)

// WithName overrides the backend name.
func WithName(name string) SimOption {
	return func(s *Simulator) { s.name = name }
}

// WithSeed sets the base seed for jobs that carry none.
func WithSeed(seed int64) SimOption {
	return func(s *Simulator) { s.seed = seed }
}

// WithLatency delays every job, emulating queue time.
func WithLatency(d time.Duration) SimOption {
	return func(s *Simulator) { s.latency = d }
}

// WithJobRetention sets how long a finished job whose result was never
// fetched is kept before it is forgotten.
func WithJobRetention(d time.Duration) SimOption {
	return func(s *Simulator) { s.retention = d }
}

// WithMaxShots sets the per-job shot budget.
func WithMaxShots(n int) SimOption {
	return func(s *Simulator) { s.caps.MaxShots = n }
}

// WithMaxCircuitsPerJob sets how many circuits one job may carry.
func WithMaxCircuitsPerJob(n int) SimOption {
	return func(s *Simulator) { s.caps.MaxCircuitsPerJob = n }
}

// WithTrajectories sets how many noise trajectories a noisy job samples
// per circuit.
func WithTrajectories(n int) SimOption {
	return func(s *Simulator) { s.trajectories = max(n, 1) }
}

// WithTransientFailures makes the next n submissions fail with a
// retryable error, emulating a congested queue.
func WithTransientFailures(n int) SimOption {
	return func(s *Simulator) { s.failSubmits.Store(int64(n)) }
}

// WithSimLogger sets the logger.
func WithSimLogger(l *slog.Logger) SimOption {
	return func(s *Simulator) { s.logger = l }
}

// NewSimulator returns an ideal state-vector simulator.
func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		name: "ideal_simulator",
		caps: Capabilities{
			Statevector:       true,
			Simulator:         true,
			MaxShots:          DefaultMaxShots,
			MaxCircuitsPerJob: DefaultMaxCircuitsPerJob,
			MaxQubits:         statevec.MaxWires,
		},
		trajectories: DefaultTrajectories,
		retention:    DefaultJobRetention,
		logger:       slog.Default(),
		jobs:         make(map[string]*simJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewNoisySimulator returns a simulator that injects the channels of
// profile. Circuit qubit indices are physical qubits of the profile.
func NewNoisySimulator(profile *noise.Profile, noiseOpts []noise.Option, opts ...SimOption) *Simulator {
	s := NewSimulator(append([]SimOption{WithName("noisy_simulator_" + profile.Name)}, opts...)...)
	s.model = noise.New(profile, noiseOpts...)
	s.caps.Statevector = false
	s.caps.Noisy = true
	return s
}

// Name implements Backend.
func (s *Simulator) Name() string { return s.name }

// Capabilities implements Backend.
func (s *Simulator) Capabilities() Capabilities { return s.caps }

// NoiseModel returns the model of a noisy simulator, nil when ideal.
func (s *Simulator) NoiseModel() *noise.Model { return s.model }

// Submit validates the job and starts it in the background.
func (s *Simulator) Submit(ctx context.Context, job *Job) (string, error) {
	const op = "backend.Simulator.Submit"
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.failSubmits.Load() > 0 && s.failSubmits.Add(-1) >= 0 {
		return "", qerr.Backendf(op, true, "queue temporarily unavailable")
	}
	if len(job.Circuits) == 0 {
		return "", qerr.Backendf(op, false, "job has no circuits")
	}
	if len(job.Circuits) > s.caps.MaxCircuitsPerJob {
		return "", qerr.Backendf(op, false, "%d circuits exceed limit %d", len(job.Circuits), s.caps.MaxCircuitsPerJob)
	}
	if job.Shots < 0 || job.Shots > s.caps.MaxShots {
		return "", qerr.Backendf(op, false, "shots %d outside budget [0, %d]", job.Shots, s.caps.MaxShots)
	}
	if job.Statevector && !s.caps.Statevector {
		return "", qerr.Backendf(op, false, "%s cannot return state vectors", s.name)
	}
	progs := make([]*program, len(job.Circuits))
	for i, c := range job.Circuits {
		if c.NumQubits() > s.caps.MaxQubits {
			return "", qerr.Backendf(op, false, "circuit %d has %d qubits, limit %d", i, c.NumQubits(), s.caps.MaxQubits)
		}
		p, err := lower(c)
		if err != nil {
			return "", err
		}
		progs[i] = p
	}

	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}
	seed := job.Seed
	if seed == 0 {
		seed = s.seed + s.submits.Add(1)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	j := &simJob{status: StatusQueued, cancel: cancel}

	s.mu.Lock()
	s.sweep(time.Now())
	s.jobs[id] = j
	s.mu.Unlock()

	s.logger.Debug("job submitted",
		slog.String("backend", s.name),
		slog.String("job_id", id),
		slog.Int("circuits", len(progs)),
		slog.Int("shots", job.Shots))

	go s.run(runCtx, id, j, progs, job, seed)
	return id, nil
}

func (s *Simulator) run(ctx context.Context, id string, j *simJob, progs []*program, job *Job, seed int64) {
	start := time.Now()
	s.setStatus(j, StatusRunning)

	if s.latency > 0 {
		select {
		case <-ctx.Done():
			s.finish(j, nil, ctx.Err())
			return
		case <-time.After(s.latency):
		}
	}

	res := &Result{JobID: id, Backend: s.name, Shots: job.Shots}
	for i, p := range progs {
		if err := ctx.Err(); err != nil {
			s.finish(j, nil, err)
			return
		}
		circSeed := seed + int64(i)*7919
		counts, state, err := s.execute(p, job, circSeed)
		if err != nil {
			s.finish(j, nil, err)
			return
		}
		res.Counts = append(res.Counts, counts)
		if job.Statevector {
			res.Statevectors = append(res.Statevectors, state)
		}
	}
	res.Duration = time.Since(start)
	s.finish(j, res, nil)
}

func (s *Simulator) execute(p *program, job *Job, seed int64) (Counts, []complex128, error) {
	rng := newRand(seed)
	measured := len(p.measures) > 0 && job.Shots > 0
	if s.model == nil {
		state := p.simulate()
		var counts Counts
		if measured {
			counts = p.sample(state, job.Shots, rng, nil)
		}
		return counts, state, nil
	}
	if !measured {
		return nil, nil, nil
	}

	traj := min(s.trajectories, job.Shots)
	sv, err := statevec.New(p.nQubits, traj)
	if err != nil {
		return nil, nil, qerr.Backend("backend.Simulator", false, err)
	}
	session := s.model.NewSession(seed)
	for _, spec := range p.ops {
		if err := sv.Apply(spec.Matrices(), spec.Targets, spec.Controls); err != nil {
			return nil, nil, qerr.Backend("backend.Simulator", false, err)
		}
		if err := session.AfterGate(sv, spec); err != nil {
			return nil, nil, qerr.Backend("backend.Simulator", false, err)
		}
	}
	if err := session.BeforeMeasure(sv, slices.Sorted(maps.Keys(p.measures))); err != nil {
		return nil, nil, qerr.Backend("backend.Simulator", false, err)
	}

	counts := Counts{}
	for b := 0; b < traj; b++ {
		n := job.Shots / traj
		if b < job.Shots%traj {
			n++
		}
		for k, v := range p.sample(sv.LittleEndian(b), n, session.Rand(), session.ReadoutFlip) {
			counts[k] += v
		}
	}
	return counts, nil, nil
}

func (s *Simulator) setStatus(j *simJob, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !j.status.Terminal() {
		j.status = st
	}
}

func (s *Simulator) finish(j *simJob, res *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	switch {
	case errors.Is(err, context.Canceled):
		j.status = StatusCancelled
	case err != nil:
		j.status = StatusFailed
		j.err = err
	default:
		j.status = StatusDone
		j.result = res
	}
	j.ended = time.Now()
	j.cancel()
}

// sweep forgets finished jobs older than the retention. s.mu must be held.
func (s *Simulator) sweep(now time.Time) {
	for id, j := range s.jobs {
		if j.status.Terminal() && now.Sub(j.ended) >= s.retention {
			delete(s.jobs, id)
		}
	}
}

func (s *Simulator) job(op, id string) (*simJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, qerr.Backend(op, false, fmt.Errorf("%w %q", ErrUnknownJob, id))
	}
	return j, nil
}

// Status implements Backend.
func (s *Simulator) Status(ctx context.Context, id string) (Status, error) {
	j, err := s.job("backend.Simulator.Status", id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return j.status, nil
}

// Result implements Backend. It fails unless the job is done. A finished
// job is forgotten once its result or error has been delivered.
func (s *Simulator) Result(ctx context.Context, id string) (*Result, error) {
	const op = "backend.Simulator.Result"
	j, err := s.job(op, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.status.Terminal() {
		delete(s.jobs, id)
	}
	switch j.status {
	case StatusDone:
		return j.result, nil
	case StatusFailed:
		return nil, qerr.Backend(op, false, j.err)
	case StatusCancelled:
		return nil, qerr.Backendf(op, false, "job %s was cancelled", id)
	}
	return nil, qerr.Backendf(op, true, "job %s is %s", id, j.status)
}

// Cancel implements Backend. Cancelling a finished job is a no-op.
func (s *Simulator) Cancel(ctx context.Context, id string) error {
	j, err := s.job("backend.Simulator.Cancel", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.status.Terminal() {
		return nil
	}
	j.status = StatusCancelled
	j.ended = time.Now()
	j.cancel()
	return nil
}
