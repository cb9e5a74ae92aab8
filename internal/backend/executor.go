package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/metrics"
	"github.com/born-ml/quantumnat/internal/qerr"
)

var tracer = otel.Tracer("quantumnat.backend")

// Executor defaults.
const (
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultRunTimeout     = 10 * time.Minute
	DefaultSubmitRate     = 20
	DefaultSubmitBurst    = 5
	DefaultMaxConcurrency = 4
	cancelGrace           = 5 * time.Second
)

// ExecutorConfig tunes job submission and polling.
type ExecutorConfig struct {
	PollInterval   time.Duration
	Timeout        time.Duration // Per Run; zero disables.
	SubmitRate     rate.Limit    // Submissions per second.
	SubmitBurst    int
	MaxConcurrency int // Jobs in flight per Run.
	Retry          RetryPolicy
}

// DefaultExecutorConfig returns the defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		PollInterval:   DefaultPollInterval,
		Timeout:        DefaultRunTimeout,
		SubmitRate:     DefaultSubmitRate,
		SubmitBurst:    DefaultSubmitBurst,
		MaxConcurrency: DefaultMaxConcurrency,
		Retry:          DefaultRetryPolicy(),
	}
}

// Request is one Run: bound circuits sharing shots and output kind.
type Request struct {
	Circuits    []*circuit.Circuit
	Shots       int
	Statevector bool
	Seed        int64 // Zero lets the backend choose.
}

// Executor drives a Backend through submit, poll and fetch.
type Executor struct {
	backend Backend
	cfg     ExecutorConfig
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorConfig replaces the configuration.
func WithExecutorConfig(cfg ExecutorConfig) ExecutorOption {
	return func(e *Executor) { e.cfg = cfg }
}

// WithExecutorMetrics sets the collectors.
func WithExecutorMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithExecutorLogger sets the logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor wraps b.
func NewExecutor(b Backend, opts ...ExecutorOption) *Executor {
	e := &Executor{
		backend: b,
		cfg:     DefaultExecutorConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	if e.cfg.PollInterval <= 0 {
		e.cfg.PollInterval = DefaultPollInterval
	}
	if e.cfg.SubmitRate <= 0 {
		e.cfg.SubmitRate = rate.Inf
	}
	e.limiter = rate.NewLimiter(e.cfg.SubmitRate, max(e.cfg.SubmitBurst, 1))
	return e
}

// Backend returns the wrapped backend.
func (e *Executor) Backend() Backend { return e.backend }

// Run executes every circuit of req and returns results in request
// order. Circuits are split into jobs of at most MaxCircuitsPerJob.
func (e *Executor) Run(ctx context.Context, req Request) (result *Result, err error) {
	const op = "backend.Executor.Run"
	caps := e.backend.Capabilities()
	switch {
	case len(req.Circuits) == 0:
		return nil, qerr.Config(op, "no circuits")
	case req.Shots < 0:
		return nil, qerr.Config(op, "negative shots %d", req.Shots)
	case req.Statevector && !caps.Statevector:
		return nil, qerr.Config(op, "backend %s does not return state vectors", e.backend.Name())
	case caps.MaxShots > 0 && req.Shots > caps.MaxShots:
		return nil, qerr.Backendf(op, false, "shots %d exceed budget %d of %s", req.Shots, caps.MaxShots, e.backend.Name())
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "Executor.Run",
		trace.WithAttributes(
			attribute.String("backend.name", e.backend.Name()),
			attribute.Int("backend.circuits", len(req.Circuits)),
			attribute.Int("backend.shots", req.Shots),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	chunks := chunk(req.Circuits, caps.MaxCircuitsPerJob)
	results := make([]*Result, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrency > 0 {
		g.SetLimit(e.cfg.MaxConcurrency)
	}
	for i, circs := range chunks {
		job := &Job{
			ID:          uuid.NewString(),
			Circuits:    circs,
			Shots:       req.Shots,
			Statevector: req.Statevector,
		}
		if req.Seed != 0 {
			job.Seed = req.Seed + int64(i)
		}
		g.Go(func() error {
			r, err := e.runJob(gctx, job)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, qerr.Backend(op, false, fmt.Errorf("timed out after %s: %w", e.cfg.Timeout, ctxErr))
		}
		return nil, err
	}

	out := &Result{Backend: e.backend.Name(), Shots: req.Shots}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.JobID
		out.Counts = append(out.Counts, r.Counts...)
		out.Statevectors = append(out.Statevectors, r.Statevectors...)
		out.Duration += r.Duration
	}
	out.JobID = strings.Join(ids, ",")
	span.SetAttributes(attribute.Int("backend.jobs", len(results)))
	return out, nil
}

func (e *Executor) runJob(ctx context.Context, job *Job) (*Result, error) {
	const op = "backend.Executor.runJob"
	start := time.Now()
	name := e.backend.Name()

	var id string
	err := e.retry(ctx, "submit", func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		id, err = e.backend.Submit(ctx, job)
		return err
	})
	if err != nil {
		e.metrics.BackendJobs.WithLabelValues(name, "failed").Inc()
		return nil, err
	}
	logger := e.logger.With(slog.String("backend", name), slog.String("job_id", id))
	logger.Debug("job submitted", slog.Int("circuits", len(job.Circuits)))

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	for {
		var st Status
		err := e.retry(ctx, "status", func() error {
			var err error
			st, err = e.backend.Status(ctx, id)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				e.cancel(id, logger)
				return nil, ctx.Err()
			}
			e.metrics.BackendJobs.WithLabelValues(name, "failed").Inc()
			return nil, err
		}

		switch st {
		case StatusDone:
			var res *Result
			err := e.retry(ctx, "result", func() error {
				var err error
				res, err = e.backend.Result(ctx, id)
				return err
			})
			if err != nil {
				e.metrics.BackendJobs.WithLabelValues(name, "failed").Inc()
				return nil, err
			}
			if len(res.Counts) != len(job.Circuits) {
				e.metrics.BackendJobs.WithLabelValues(name, "failed").Inc()
				return nil, qerr.Backendf(op, false, "job %s returned %d results for %d circuits", id, len(res.Counts), len(job.Circuits))
			}
			e.metrics.BackendJobs.WithLabelValues(name, "completed").Inc()
			e.metrics.BackendJobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			logger.Debug("job completed", slog.Duration("elapsed", time.Since(start)))
			return res, nil
		case StatusFailed:
			e.metrics.BackendJobs.WithLabelValues(name, "failed").Inc()
			_, rerr := e.backend.Result(ctx, id)
			if rerr == nil {
				rerr = errors.New("no details")
			}
			return nil, qerr.Backend(op, false, fmt.Errorf("job %s failed: %w", id, rerr))
		case StatusCancelled:
			e.metrics.BackendJobs.WithLabelValues(name, "cancelled").Inc()
			return nil, qerr.Backendf(op, false, "job %s was cancelled by the backend", id)
		}

		select {
		case <-ctx.Done():
			e.cancel(id, logger)
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// cancel asks the backend to drop a job whose caller has gone away. The
// caller's context is already done, so a short detached one is used.
func (e *Executor) cancel(id string, logger *slog.Logger) {
	e.metrics.BackendJobs.WithLabelValues(e.backend.Name(), "cancelled").Inc()
	ctx, cancel := context.WithTimeout(context.Background(), cancelGrace)
	defer cancel()
	if err := e.backend.Cancel(ctx, id); err != nil {
		logger.Warn("job cancel failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("job cancelled")
}

// retry runs fn until it succeeds, fails terminally, or the policy gives
// up. Exhausted retries yield a non-retryable BackendError.
func (e *Executor) retry(ctx context.Context, what string, fn func() error) error {
	policy := e.cfg.Retry
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !qerr.IsRetryable(err) {
			return err
		}
		if !policy.retry(err, attempt) {
			return qerr.Backend("backend.Executor."+what, false,
				fmt.Errorf("giving up after %d attempts: %w", attempt, err))
		}
		e.metrics.BackendRetries.WithLabelValues(e.backend.Name()).Inc()
		delay := policy.delay(attempt)
		e.logger.Warn("backend call failed, retrying",
			slog.String("backend", e.backend.Name()),
			slog.String("call", what),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func chunk(circs []*circuit.Circuit, size int) [][]*circuit.Circuit {
	if size <= 0 || size >= len(circs) {
		return [][]*circuit.Circuit{circs}
	}
	var out [][]*circuit.Circuit
	for len(circs) > 0 {
		n := min(size, len(circs))
		out = append(out, circs[:n])
		circs = circs[n:]
	}
	return out
}
