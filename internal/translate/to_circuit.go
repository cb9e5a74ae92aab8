// Package translate converts between operation histories recorded on a
// device and external instruction-list circuits.
//
// History to circuit comes in two modes. Fixed translation bakes the
// numeric parameters of one batch element into the instructions.
// Parameterized translation emits one circuit whose per-element
// parameters are named placeholders, plus one Binding per batch element,
// so a batch is submitted as one structure and many bindings.
//
// Circuit to history parses instructions back into gate specs and
// recovers the register mapping from the circuit's layout and its
// measurements.
package translate

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qerr"
)

type options struct {
	mapping *mapping.RegisterMapping
	batch   int
	name    string
}

// Option configures history translation.
type Option func(*options)

// WithMapping places virtual wires on the physical qubits of m.
func WithMapping(m *mapping.RegisterMapping) Option {
	return func(o *options) { o.mapping = m }
}

// WithBatchIndex selects which parameter row a fixed translation uses.
func WithBatchIndex(b int) Option {
	return func(o *options) { o.batch = b }
}

// WithName sets the circuit name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromHistory emits one instruction per recorded gate with the numeric
// parameters of one batch element.
func FromHistory(hist *device.OperationHistory, opts ...Option) (*circuit.Circuit, error) {
	const op = "translate.FromHistory"
	o := buildOptions(opts)
	c, err := newCircuit(op, hist, o)
	if err != nil {
		return nil, err
	}
	for i, spec := range hist.Ops() {
		if spec.Batched() && o.batch >= len(spec.Params) {
			return nil, qerr.Config(op, "op %d has %d parameter rows, batch index %d", i, len(spec.Params), o.batch)
		}
		kind, params := external(spec.Kind, spec.Row(o.batch), spec.Inverse)
		in := instruction(c, kind, spec.Wires(), o.mapping)
		for _, v := range params {
			in.Params = append(in.Params, circuit.Param{Value: v})
		}
		c.AppendInstruction(in)
	}
	return c, nil
}

// FromHistoryExpand returns one fixed circuit per batch element.
func FromHistoryExpand(hist *device.OperationHistory, batch int, opts ...Option) ([]*circuit.Circuit, error) {
	out := make([]*circuit.Circuit, batch)
	for b := range out {
		c, err := FromHistory(hist, append(slices.Clone(opts), WithBatchIndex(b))...)
		if err != nil {
			return nil, err
		}
		out[b] = c
	}
	return out, nil
}

// ParamName is the placeholder for parameter k of recorded op i.
func ParamName(i, k int) string {
	return fmt.Sprintf("theta_%d_%d", i, k)
}

// FromHistoryParameterized emits one circuit in which every parameter that
// differs across the batch is a placeholder, and one binding per batch
// element. Shared parameters are baked in.
func FromHistoryParameterized(hist *device.OperationHistory, batch int, opts ...Option) (*circuit.Circuit, []circuit.Binding, error) {
	const op = "translate.FromHistoryParameterized"
	if batch < 1 {
		return nil, nil, qerr.Config(op, "batch %d must be positive", batch)
	}
	o := buildOptions(opts)
	c, err := newCircuit(op, hist, o)
	if err != nil {
		return nil, nil, err
	}
	bindings := make([]circuit.Binding, batch)
	for b := range bindings {
		bindings[b] = circuit.Binding{}
	}

	for i, spec := range hist.Ops() {
		if !spec.Batched() {
			kind, params := external(spec.Kind, spec.Row(0), spec.Inverse)
			in := instruction(c, kind, spec.Wires(), o.mapping)
			for _, v := range params {
				in.Params = append(in.Params, circuit.Param{Value: v})
			}
			c.AppendInstruction(in)
			continue
		}
		if len(spec.Params) != batch {
			return nil, nil, qerr.Config(op, "op %d has %d parameter rows for batch of %d", i, len(spec.Params), batch)
		}
		var kind gates.Kind
		for b := 0; b < batch; b++ {
			var params []float64
			kind, params = external(spec.Kind, spec.Row(b), spec.Inverse)
			for k, v := range params {
				bindings[b][ParamName(i, k)] = v
			}
		}
		in := instruction(c, kind, spec.Wires(), o.mapping)
		for k := 0; k < kind.NumParams(); k++ {
			in.Params = append(in.Params, circuit.Param{Symbol: ParamName(i, k)})
		}
		c.AppendInstruction(in)
	}
	return c, bindings, nil
}

// FromDevice translates the history of a device that has left Building.
func FromDevice(dev *device.Device, opts ...Option) (*circuit.Circuit, error) {
	if dev.State() == device.Building {
		return nil, qerr.State("translate.FromDevice", "device is still building")
	}
	if dev.State() == device.Terminal {
		return nil, qerr.State("translate.FromDevice", "device is closed")
	}
	return FromHistory(dev.History(), opts...)
}

// MeasurementCircuit measures every wire into its classical bit: the bit
// from m when m maps classical bits, bit v otherwise. Wires are placed on
// their physical qubits.
func MeasurementCircuit(nWires int, m *mapping.RegisterMapping) *circuit.Circuit {
	nQubits := physicalWidth(nWires, m)
	c := circuit.New(nQubits, nWires)
	c.Name = "measure"
	if m != nil && len(m.P2V) > 0 {
		c.Layout = maps.Clone(m.P2V)
	}
	for v := 0; v < nWires; v++ {
		cl := v
		if m.HasClassical() {
			if mc, ok := m.Classical(v); ok {
				cl = mc
			}
		}
		c.Measure(m.Physical(v), cl)
	}
	return c
}

func newCircuit(op string, hist *device.OperationHistory, o options) (*circuit.Circuit, error) {
	if !hist.Frozen() {
		return nil, qerr.State(op, "history is still being recorded")
	}
	if o.batch < 0 {
		return nil, qerr.Config(op, "negative batch index %d", o.batch)
	}
	for i, spec := range hist.Ops() {
		if err := spec.Validate(hist.NWires(), max(len(spec.Params), 1)); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	c := circuit.New(physicalWidth(hist.NWires(), o.mapping), 0)
	if o.name != "" {
		c.Name = o.name
	}
	if o.mapping != nil && len(o.mapping.P2V) > 0 {
		c.Layout = maps.Clone(o.mapping.P2V)
	}
	return c, nil
}

func physicalWidth(nWires int, m *mapping.RegisterMapping) int {
	n := nWires
	for v := 0; v < nWires; v++ {
		n = max(n, m.Physical(v)+1)
	}
	return n
}

func instruction(c *circuit.Circuit, kind gates.Kind, wires []int, m *mapping.RegisterMapping) circuit.Instruction {
	in := circuit.Instruction{Name: kind.External()}
	for _, w := range wires {
		in.Qubits = append(in.Qubits, c.Qubit(m.Physical(w)))
	}
	return in
}

// external returns the kind and parameters to emit for a gate, expressing
// inverted gates through their adjoint kind or negated parameters.
func external(kind gates.Kind, params []float64, inverse bool) (gates.Kind, []float64) {
	params = slices.Clone(params)
	if !inverse {
		return kind, params
	}
	switch kind {
	case gates.S:
		return gates.SDG, nil
	case gates.SDG:
		return gates.S, nil
	case gates.T:
		return gates.TDG, nil
	case gates.TDG:
		return gates.T, nil
	case gates.SX:
		return gates.SXDG, nil
	case gates.SXDG:
		return gates.SX, nil
	case gates.U2:
		// U2(φ, λ) = U3(π/2, φ, λ).
		return gates.U3, []float64{-math.Pi / 2, -params[1], -params[0]}
	case gates.U3, gates.CU3:
		return kind, []float64{-params[0], -params[2], -params[1]}
	}
	for i := range params {
		params[i] = -params[i]
	}
	return kind, params
}
