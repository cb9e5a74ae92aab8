// Package hybrid connects local device sessions to backend execution.
//
// A Processor takes the frozen history of a device, or circuits already
// translated from one, runs them through a backend Executor and turns the
// returned counts back into expectation values in virtual-wire order.
package hybrid

import (
	"context"
	"log/slog"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
	"github.com/born-ml/quantumnat/internal/translate"
)

// DefaultShots is the shot count used when none is configured.
const DefaultShots = 8192

// Processor runs device circuits on a backend.
type Processor struct {
	exec      *backend.Executor
	shots     int
	seed      int64
	noiseName string
	logger    *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithShots sets the shots per circuit.
func WithShots(n int) Option {
	return func(p *Processor) { p.shots = n }
}

// WithSeed fixes the sampling seed passed to the backend.
func WithSeed(seed int64) Option {
	return func(p *Processor) { p.seed = seed }
}

// WithNoiseName labels runs with the noise profile the backend emulates.
func WithNoiseName(name string) Option {
	return func(p *Processor) { p.noiseName = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// New returns a Processor running on exec.
func New(exec *backend.Executor, opts ...Option) *Processor {
	p := &Processor{exec: exec, shots: DefaultShots, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Executor returns the executor the processor submits to.
func (p *Processor) Executor() *backend.Executor { return p.exec }

// Shots returns the configured shots per circuit.
func (p *Processor) Shots() int { return p.shots }

// RunDevice translates the device history into one parameterized circuit
// with a measurement stage, binds it per batch element and returns the
// per-wire ⟨Z⟩. A building device is frozen first.
func (p *Processor) RunDevice(ctx context.Context, dev *device.Device) ([][]float64, error) {
	const op = "hybrid.RunDevice"
	if dev.State() == device.Building {
		if err := dev.Freeze(); err != nil {
			return nil, err
		}
	}
	if dev.State() != device.Frozen {
		return nil, qerr.State(op, "device is %s, want frozen", dev.State())
	}

	var m *mapping.RegisterMapping
	if nm := dev.NoiseModel(); nm != nil {
		m = nm.Mapping()
	}
	var opts []translate.Option
	if m != nil {
		opts = append(opts, translate.WithMapping(m))
	}
	body, bindings, err := translate.FromHistoryParameterized(dev.History(), dev.Batch(), opts...)
	if err != nil {
		return nil, err
	}
	circ, err := circuit.Compose(body, translate.MeasurementCircuit(dev.NWires(), m))
	if err != nil {
		return nil, err
	}
	return p.ProcessParameterized(ctx, dev, circ, bindings)
}

// ProcessParameterized binds circ once per batch element and runs the
// bound circuits.
func (p *Processor) ProcessParameterized(ctx context.Context, dev *device.Device, circ *circuit.Circuit, bindings []circuit.Binding) ([][]float64, error) {
	circs := make([]*circuit.Circuit, len(bindings))
	for i, b := range bindings {
		c, err := circ.Bind(b)
		if err != nil {
			return nil, err
		}
		circs[i] = c
	}
	return p.ProcessReadyCircuits(ctx, dev, circs)
}

// ProcessReadyCircuits runs one measured circuit per batch element and
// returns batch × nWires ⟨Z⟩ in virtual-wire order. Each circuit's
// virtual-to-classical table is recovered from its own layout and
// measurements. On success the device is marked executed.
func (p *Processor) ProcessReadyCircuits(ctx context.Context, dev *device.Device, circs []*circuit.Circuit) ([][]float64, error) {
	const op = "hybrid.ProcessReadyCircuits"
	if dev.State() != device.Frozen {
		return nil, qerr.State(op, "device is %s, want frozen", dev.State())
	}
	if len(circs) != dev.Batch() {
		return nil, qerr.Config(op, "%d circuits for batch of %d", len(circs), dev.Batch())
	}

	orders := make([][]int, len(circs))
	for i, c := range circs {
		_, m, err := translate.ToHistory(c)
		if err != nil {
			return nil, err
		}
		order := make([]int, dev.NWires())
		for v := range order {
			cl, ok := m.Classical(v)
			if !ok {
				return nil, qerr.Config(op, "circuit %d does not measure wire %d", i, v)
			}
			order[v] = cl
		}
		orders[i] = order
	}

	res, err := p.exec.Run(ctx, backend.Request{Circuits: circs, Shots: p.shots, Seed: p.seed})
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(circs))
	for i, counts := range res.Counts {
		z, _, err := expval.MarginalZ(counts, orders[i])
		if err != nil {
			return nil, err
		}
		out[i] = z
	}
	if err := dev.MarkExecuted(); err != nil {
		return nil, err
	}
	p.logger.Debug("processed circuits",
		slog.String("backend", res.Backend),
		slog.String("noise", p.noiseName),
		slog.Int("circuits", len(circs)),
		slog.Int("shots", p.shots))
	return out, nil
}

// JointExpval estimates the joint observable obs on each unmeasured
// circuit by rotating into its eigenbasis and measuring. Character i of
// obs acts on virtual wire i.
func (p *Processor) JointExpval(ctx context.Context, circs []*circuit.Circuit, obs expval.Pauli) ([]float64, error) {
	const op = "hybrid.JointExpval"
	ready := make([]*circuit.Circuit, len(circs))
	for i, c := range circs {
		if c.HasMeasurements() {
			return nil, qerr.Config(op, "circuit %d is already measured", i)
		}
		_, m, err := translate.ToHistory(c)
		if err != nil {
			return nil, err
		}
		if len(m.P2V) != obs.Len() {
			return nil, qerr.Config(op, "observable %q on circuit %d with %d wires", obs, i, len(m.P2V))
		}
		wires := make([]int, obs.Len())
		for v := range wires {
			wires[v] = m.Physical(v)
		}
		rc := c.Clone()
		rc.CRegs = []circuit.Register{{Name: circuit.CRegName, Size: obs.Len()}}
		for _, g := range expval.BasisRotation(obs, wires) {
			rc.Append(g.Kind.External(), g.Wires())
		}
		for v, q := range wires {
			rc.Measure(q, v)
		}
		ready[i] = rc
	}

	res, err := p.exec.Run(ctx, backend.Request{Circuits: ready, Shots: p.shots, Seed: p.seed})
	if err != nil {
		return nil, err
	}
	order := make([]int, obs.Len())
	for v := range order {
		order[v] = v
	}
	out := make([]float64, len(ready))
	for i, counts := range res.Counts {
		val, _, err := expval.FromCounts(counts, obs, order)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// Statevectors runs circs on a state-vector backend and returns each
// final state in internal order (wire 0 most significant).
func (p *Processor) Statevectors(ctx context.Context, circs []*circuit.Circuit) ([][]complex128, error) {
	res, err := p.exec.Run(ctx, backend.Request{Circuits: circs, Statevector: true, Seed: p.seed})
	if err != nil {
		return nil, err
	}
	out := make([][]complex128, len(circs))
	for i, le := range res.Statevectors {
		amps, err := statevec.FromLittleEndian(le, circs[i].NumQubits())
		if err != nil {
			return nil, err
		}
		out[i] = amps
	}
	return out, nil
}
