// Package noise emulates imperfect hardware by injecting stochastic error
// channels after ideal gates.
//
// A Profile holds calibration data keyed by physical qubit. A Model binds
// a profile to a register mapping and owns the diagnostic counters; it is
// shared by every simulation that uses it. A Session carries the mutable
// per-evaluation state (per-qubit clocks and the random source) and
// belongs to exactly one device for one circuit evaluation.
//
// Channels are sampled as quantum trajectories: each batch element draws
// one Kraus branch per channel and the state is renormalized, so the
// ensemble average over many runs reproduces the density-matrix channel.
package noise

import (
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/metrics"
)

// Channel names used for counters and metric labels.
const (
	ChannelDepolarizing     = "depolarizing"
	ChannelAmplitudeDamping = "amplitude_damping"
	ChannelPhaseDamping     = "phase_damping"
	ChannelReadout          = "readout"
)

// Counts is a snapshot of the noise counters.
type Counts struct {
	Depolarizing     int64
	AmplitudeDamping int64
	PhaseDamping     int64
	Readout          int64
}

// Total returns the number of channel applications of all kinds.
func (c Counts) Total() int64 {
	return c.Depolarizing + c.AmplitudeDamping + c.PhaseDamping + c.Readout
}

// Add returns the element-wise sum, for aggregating several models.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Depolarizing:     c.Depolarizing + o.Depolarizing,
		AmplitudeDamping: c.AmplitudeDamping + o.AmplitudeDamping,
		PhaseDamping:     c.PhaseDamping + o.PhaseDamping,
		Readout:          c.Readout + o.Readout,
	}
}

type counters struct {
	depolarizing     atomic.Int64
	amplitudeDamping atomic.Int64
	phaseDamping     atomic.Int64
	readout          atomic.Int64
}

// Model applies a Profile to circuits whose wires are placed on physical
// qubits through a RegisterMapping.
type Model struct {
	profile  *Profile
	mapping  *mapping.RegisterMapping
	factor   float64
	enabled  atomic.Bool
	counters counters
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithMapping sets the virtual-to-physical placement used to look up
// per-qubit calibration. Without it wire i is physical qubit i.
func WithMapping(m *mapping.RegisterMapping) Option {
	return func(n *Model) { n.mapping = m }
}

// WithFactor scales every error probability. The profile's own factor is
// multiplied in.
func WithFactor(f float64) Option {
	return func(n *Model) { n.factor *= f }
}

// WithMetrics mirrors counters into Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Model) { n.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Model) { n.logger = l }
}

// New creates an enabled model.
func New(profile *Profile, opts ...Option) *Model {
	m := &Model{
		profile: profile,
		factor:  profile.Factor,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.enabled.Store(true)
	return m
}

// Profile returns the calibration profile.
func (m *Model) Profile() *Profile { return m.profile }

// Mapping returns the register mapping, possibly nil.
func (m *Model) Mapping() *mapping.RegisterMapping { return m.mapping }

// Factor returns the effective probability scale.
func (m *Model) Factor() float64 { return m.factor }

// Enabled reports whether noise is injected.
func (m *Model) Enabled() bool { return m.enabled.Load() }

// SetEnabled toggles injection. It affects only gates applied afterwards.
func (m *Model) SetEnabled(on bool) { m.enabled.Store(on) }

// Counters returns a snapshot of the application counters.
func (m *Model) Counters() Counts {
	return Counts{
		Depolarizing:     m.counters.depolarizing.Load(),
		AmplitudeDamping: m.counters.amplitudeDamping.Load(),
		PhaseDamping:     m.counters.phaseDamping.Load(),
		Readout:          m.counters.readout.Load(),
	}
}

// ResetCounters zeroes the counters.
func (m *Model) ResetCounters() {
	m.counters.depolarizing.Store(0)
	m.counters.amplitudeDamping.Store(0)
	m.counters.phaseDamping.Store(0)
	m.counters.readout.Store(0)
}

// Report logs the counter snapshot.
func (m *Model) Report() {
	c := m.Counters()
	m.logger.Info("noise channel applications",
		slog.String("profile", m.profile.Name),
		slog.Int64("depolarizing", c.Depolarizing),
		slog.Int64("amplitude_damping", c.AmplitudeDamping),
		slog.Int64("phase_damping", c.PhaseDamping),
		slog.Int64("readout", c.Readout),
		slog.Int64("total", c.Total()),
	)
}

// NewSession starts a circuit evaluation with all qubit clocks at zero.
func (m *Model) NewSession(seed int64) *Session {
	return &Session{
		model: m,
		clock: make(map[int]float64),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ReadoutError returns the flip probability of a physical qubit's
// measurement after scaling.
func (m *Model) ReadoutError(physical int) float64 {
	if !m.profile.Channels.Readout {
		return 0
	}
	q, ok := m.profile.Qubit(physical)
	if !ok {
		return 0
	}
	return m.scale(q.ReadoutError)
}

func (m *Model) scale(p float64) float64 {
	return math.Min(1, math.Max(0, p*m.factor))
}

func (m *Model) count(channel string, n int64) {
	if n == 0 {
		return
	}
	switch channel {
	case ChannelDepolarizing:
		m.counters.depolarizing.Add(n)
	case ChannelAmplitudeDamping:
		m.counters.amplitudeDamping.Add(n)
	case ChannelPhaseDamping:
		m.counters.phaseDamping.Add(n)
	case ChannelReadout:
		m.counters.readout.Add(n)
	}
	if m.metrics != nil {
		m.metrics.NoiseApplications.WithLabelValues(channel).Add(float64(n))
	}
}
