package circuit

import (
	"slices"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// Transpile places virtual qubit v on physical qubit layout[v] of a
// device with max(layout)+1 qubits, the way a hardware compiler would,
// and records the chosen physical-to-virtual layout on the result.
// Classical bits are unchanged.
func Transpile(c *Circuit, layout []int) (*Circuit, error) {
	const op = "circuit.Transpile"
	if len(layout) != c.NumQubits() {
		return nil, qerr.Config(op, "layout has %d entries for %d qubits", len(layout), c.NumQubits())
	}
	if c.Layout != nil {
		return nil, qerr.Config(op, "circuit %q is already transpiled", c.Name)
	}
	p2v := make(map[int]int, len(layout))
	for v, p := range layout {
		if p < 0 {
			return nil, qerr.Config(op, "virtual qubit %d placed on negative physical qubit %d", v, p)
		}
		if _, dup := p2v[p]; dup {
			return nil, qerr.Config(op, "physical qubit %d used twice", p)
		}
		p2v[p] = v
	}

	out := &Circuit{
		Name:   c.Name,
		QRegs:  []Register{{Name: QRegName, Size: slices.Max(layout) + 1}},
		CRegs:  slices.Clone(c.CRegs),
		Layout: p2v,
	}
	for _, in := range c.Instructions {
		re := Instruction{
			Name:   in.Name,
			Clbits: slices.Clone(in.Clbits),
			Params: slices.Clone(in.Params),
		}
		for _, b := range in.Qubits {
			v, err := c.FlatQubit(b)
			if err != nil {
				return nil, err
			}
			re.Qubits = append(re.Qubits, out.Qubit(layout[v]))
		}
		out.Instructions = append(out.Instructions, re)
	}
	return out, nil
}

// TrivialLayout returns the identity placement of n qubits.
func TrivialLayout(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
