// Package device implements the quantum device session: a state vector
// plus an optional operation recorder and noise session.
//
// A device walks a fixed lifecycle per forward pass:
//
//	Building → Frozen → Executed → Terminal
//
// Gates are accepted only while Building. Freezing closes the history so
// it can be translated or measured; measuring marks the device Executed.
// No transition skips Frozen. Reset returns any non-terminal or terminal
// device to Building with a fresh |0…0⟩ state and a fresh noise session.
package device

import (
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/metrics"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/parallel"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

// State is the lifecycle position of a device.
type State int

// Lifecycle states.
const (
	Building State = iota
	Frozen
	Executed
	Terminal
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Frozen:
		return "frozen"
	case Executed:
		return "executed"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Default norm drift thresholds.
const (
	DefaultNormTolerance = 1e-8
	DefaultNormHardLimit = 1e-3
)

// Device is one simulation session. It is not safe for concurrent use;
// independent devices may run concurrently.
type Device struct {
	nWires int
	batch  int
	sv     *statevec.StateVector
	state  State

	recording bool
	history   *OperationHistory

	noise   *noise.Model
	session *noise.Session
	noisy   bool
	seed    int64
	evals   int64

	par      parallel.Config
	warnings *qerr.Warnings
	metrics  *metrics.Metrics
	normTol  float64
	normHard float64
}

// Option configures a Device.
type Option func(*Device)

// WithRecording toggles the operation recorder.
func WithRecording(on bool) Option {
	return func(d *Device) { d.recording = on }
}

// WithNoise attaches a noise model and puts the device in noisy mode.
func WithNoise(m *noise.Model) Option {
	return func(d *Device) {
		d.noise = m
		d.noisy = m != nil
	}
}

// WithParallel sets the batch-parallel config of the kernel.
func WithParallel(cfg parallel.Config) Option {
	return func(d *Device) { d.par = cfg }
}

// WithWarnings routes norm-drift warnings to w.
func WithWarnings(w *qerr.Warnings) Option {
	return func(d *Device) { d.warnings = w }
}

// WithMetrics counts norm-drift warnings.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Device) { d.metrics = m }
}

// WithNormCheck sets the drift above which a warning is recorded and the
// drift above which freezing fails.
func WithNormCheck(tol, hard float64) Option {
	return func(d *Device) {
		d.normTol = tol
		d.normHard = hard
	}
}

// WithSeed seeds the noise sessions. Session k uses seed+k.
func WithSeed(seed int64) Option {
	return func(d *Device) { d.seed = seed }
}

// New creates a Building device with every batch element in |0…0⟩.
func New(nWires, batch int, opts ...Option) (*Device, error) {
	d := &Device{
		nWires:    nWires,
		batch:     batch,
		recording: true,
		par:       parallel.DefaultConfig(),
		normTol:   DefaultNormTolerance,
		normHard:  DefaultNormHardLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	sv, err := statevec.New(nWires, batch, statevec.WithParallel(d.par))
	if err != nil {
		return nil, err
	}
	d.sv = sv
	d.history = NewHistory(nWires)
	d.startSession()
	return d, nil
}

// NWires returns the wire count.
func (d *Device) NWires() int { return d.nWires }

// Batch returns the batch size.
func (d *Device) Batch() int { return d.batch }

// State returns the lifecycle state.
func (d *Device) State() State { return d.state }

// StateVector returns the live state, nil once closed.
func (d *Device) StateVector() *statevec.StateVector { return d.sv }

// Recording reports whether gates are appended to the history.
func (d *Device) Recording() bool { return d.recording }

// SetRecording toggles the recorder for subsequent gates.
func (d *Device) SetRecording(on bool) { d.recording = on }

// NoiseModel returns the attached noise model, possibly nil.
func (d *Device) NoiseModel() *noise.Model { return d.noise }

// NoiseSession returns the noise session of the current evaluation.
func (d *Device) NoiseSession() *noise.Session { return d.session }

// SetNoiseModel replaces the noise model and starts a new session. A nil
// model turns noise off.
func (d *Device) SetNoiseModel(m *noise.Model) {
	d.noise = m
	d.noisy = m != nil
	d.startSession()
}

// Noisy reports whether noise is injected after gates.
func (d *Device) Noisy() bool { return d.noisy && d.noise != nil }

// SetNoisy toggles noise injection for subsequent gates. Already applied
// gates and the recorded history are unaffected.
func (d *Device) SetNoisy(on bool) { d.noisy = on }

// History returns the active operation history.
func (d *Device) History() *OperationHistory { return d.history }

// ResetOpHistory clears the recorder without touching the state vector.
// Repeated calls leave an empty history.
func (d *Device) ResetOpHistory() {
	d.history.Reset()
	if d.state != Building {
		d.history.Freeze()
	}
}

// Segment returns a frozen copy of the history recorded so far and
// clears the recorder, so one continuous simulation can yield separate
// sub-circuits.
func (d *Device) Segment() *OperationHistory {
	seg := d.history.Clone()
	seg.Freeze()
	d.ResetOpHistory()
	return seg
}

// Apply runs one gate: validation, ideal unitary, recording, then noise.
func (d *Device) Apply(spec gates.GateSpec) error {
	const op = "device.Apply"
	if d.state != Building {
		return qerr.State(op, "cannot apply %s: device is %s", spec.Kind, d.state)
	}
	if err := spec.Validate(d.nWires, d.batch); err != nil {
		return err
	}
	if err := d.sv.Apply(spec.Matrices(), spec.Targets, spec.Controls); err != nil {
		return err
	}
	if d.recording {
		if err := d.history.Append(spec); err != nil {
			return err
		}
	}
	if d.Noisy() && d.session != nil {
		if err := d.session.AfterGate(d.sv, spec); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies specs in order, stopping at the first error.
func (d *Device) ApplyAll(specs ...gates.GateSpec) error {
	for _, s := range specs {
		if err := d.Apply(s); err != nil {
			return err
		}
	}
	return nil
}

// Freeze closes the history, lets idle qubits relax up to readout in
// noisy mode and checks the state norm.
func (d *Device) Freeze() error {
	if d.state != Building {
		return qerr.State("device.Freeze", "device is %s, want building", d.state)
	}
	if d.Noisy() && d.session != nil {
		wires := make([]int, d.nWires)
		for w := range wires {
			wires[w] = w
		}
		if err := d.session.BeforeMeasure(d.sv, wires); err != nil {
			return err
		}
	}
	if err := d.checkNorm(); err != nil {
		return err
	}
	d.history.Freeze()
	d.state = Frozen
	return nil
}

// MarkExecuted records that results for the frozen circuit are available.
func (d *Device) MarkExecuted() error {
	if d.state != Frozen {
		return qerr.State("device.MarkExecuted", "device is %s, want frozen", d.state)
	}
	d.state = Executed
	return nil
}

// Close ends the session and releases the state vector.
func (d *Device) Close() {
	d.state = Terminal
	d.sv = nil
	d.session = nil
}

// Reset returns the device to Building with a |0…0⟩ state, an empty
// history and a new noise session whose qubit clocks start at zero.
func (d *Device) Reset() error {
	if d.sv == nil {
		sv, err := statevec.New(d.nWires, d.batch, statevec.WithParallel(d.par))
		if err != nil {
			return err
		}
		d.sv = sv
	} else {
		d.sv.Reset()
	}
	d.history.Reset()
	d.state = Building
	d.startSession()
	return nil
}

func (d *Device) startSession() {
	d.session = nil
	if d.noise == nil {
		return
	}
	d.session = d.noise.NewSession(d.seed + d.evals)
	d.evals++
}

func (d *Device) checkNorm() error {
	drift := d.sv.MaxDrift()
	if drift <= d.normTol {
		return nil
	}
	if d.warnings != nil {
		d.warnings.Add(qerr.Warning{Source: "device", Drift: drift})
	}
	if d.metrics != nil {
		d.metrics.NumericWarnings.Inc()
	}
	if d.normHard > 0 && drift > d.normHard {
		return qerr.Numeric("device.Freeze", "norm drift %.3e exceeds hard limit %.3e", drift, d.normHard)
	}
	return nil
}
