package translate

import (
	"fmt"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// ToHistory parses a bound circuit into a frozen history over the
// circuit's qubit indices and infers its register mapping.
//
// Measurements are excluded from the history; they are the only source of
// the physical-to-classical table. The physical-to-virtual table comes
// from the circuit's Layout, or is the identity for untranspiled
// circuits. A circuit without measurements yields empty classical tables.
func ToHistory(c *circuit.Circuit) (*device.OperationHistory, *mapping.RegisterMapping, error) {
	const op = "translate.ToHistory"
	nQubits := c.NumQubits()
	hist := device.NewHistory(nQubits)
	p2c := make(map[int]int)
	measured := make(map[int]bool)

	for i, in := range c.Instructions {
		qubits := make([]int, len(in.Qubits))
		for j, b := range in.Qubits {
			q, err := c.FlatQubit(b)
			if err != nil {
				return nil, nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			qubits[j] = q
		}

		switch in.Name {
		case circuit.OpBarrier:
			continue
		case circuit.OpMeasure:
			if len(qubits) != 1 || len(in.Clbits) != 1 {
				return nil, nil, qerr.Config(op, "instruction %d: measure needs one qubit and one clbit", i)
			}
			cl, err := c.FlatClbit(in.Clbits[0])
			if err != nil {
				return nil, nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			p2c[qubits[0]] = cl
			measured[qubits[0]] = true
			continue
		}

		kind, ok := gates.Lookup(in.Name)
		if !ok {
			return nil, nil, qerr.Config(op, "instruction %d: unsupported gate %q", i, in.Name)
		}
		params := make([]float64, len(in.Params))
		for j, p := range in.Params {
			if p.Symbolic() {
				return nil, nil, qerr.Config(op, "instruction %d: unbound parameter %q", i, p.Symbol)
			}
			params[j] = p.Value
		}
		for _, q := range qubits {
			if measured[q] {
				return nil, nil, qerr.Config(op, "instruction %d: %s acts on qubit %d after it was measured", i, in.Name, q)
			}
		}
		spec := gates.New(kind, qubits, params...)
		if err := spec.Validate(nQubits, 1); err != nil {
			return nil, nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if err := hist.Append(spec); err != nil {
			return nil, nil, err
		}
	}
	hist.Freeze()

	p2v := c.Layout
	if p2v == nil {
		p2v = make(map[int]int, nQubits)
		for q := 0; q < nQubits; q++ {
			p2v[q] = q
		}
	}
	m, err := mapping.FromLayout(p2v, p2c)
	if err != nil {
		return nil, nil, err
	}
	return hist, m, nil
}

// ToVirtual rewrites a history over physical qubits onto virtual wires
// using m. Gates on qubits without a virtual wire are a ConfigError.
func ToVirtual(hist *device.OperationHistory, m *mapping.RegisterMapping, nWires int) (*device.OperationHistory, error) {
	out := device.NewHistory(nWires)
	remap := func(ws []int) ([]int, error) {
		vs := make([]int, len(ws))
		for i, p := range ws {
			v, ok := m.P2V[p]
			if !ok {
				return nil, qerr.Config("translate.ToVirtual", "physical qubit %d holds no virtual wire", p)
			}
			vs[i] = v
		}
		return vs, nil
	}
	for _, spec := range hist.Ops() {
		s := spec.Clone()
		var err error
		if s.Targets, err = remap(spec.Targets); err != nil {
			return nil, err
		}
		if s.Controls, err = remap(spec.Controls); err != nil {
			return nil, err
		}
		if err := out.Append(s); err != nil {
			return nil, err
		}
	}
	out.Freeze()
	return out, nil
}

// ReplayHistory re-applies every recorded gate on dev in order.
func ReplayHistory(dev *device.Device, hist *device.OperationHistory) error {
	if hist.NWires() > dev.NWires() {
		return qerr.Config("translate.ReplayHistory", "history over %d wires, device has %d", hist.NWires(), dev.NWires())
	}
	for i, spec := range hist.Ops() {
		if err := dev.Apply(spec); err != nil {
			return fmt.Errorf("replay op %d: %w", i, err)
		}
	}
	return nil
}
