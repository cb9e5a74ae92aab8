// Package mapping holds the correspondence tables between the three index
// spaces a circuit lives in after hardware compilation:
//
//   - virtual wires (the circuit as written),
//   - physical qubits (where the compiler placed them),
//   - classical bits (where measurements land).
//
// Each table is stored with its inverse and must be bijective within its
// domain. The tables must also compose: on every placed physical qubit,
// V2C∘P2V equals P2C, and every wire with a classical bit is placed. An
// empty P2V means wire v sits on physical qubit v. Measured physical
// qubits outside the layout are ancillas.
package mapping

import (
	"maps"
	"slices"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// RegisterMapping is the set of three paired index tables.
type RegisterMapping struct {
	V2C map[int]int
	C2V map[int]int
	P2C map[int]int
	C2P map[int]int
	P2V map[int]int
	V2P map[int]int
}

// New validates and builds a mapping from the forward tables.
func New(v2c, p2c, p2v map[int]int) (*RegisterMapping, error) {
	const op = "mapping.New"
	c2v, err := invert(op, "v2c", v2c)
	if err != nil {
		return nil, err
	}
	c2p, err := invert(op, "p2c", p2c)
	if err != nil {
		return nil, err
	}
	v2p, err := invert(op, "p2v", p2v)
	if err != nil {
		return nil, err
	}
	m := &RegisterMapping{
		V2C: maps.Clone(v2c), C2V: c2v,
		P2C: maps.Clone(p2c), C2P: c2p,
		P2V: maps.Clone(p2v), V2P: v2p,
	}
	if m.V2C == nil {
		m.V2C = map[int]int{}
	}
	if m.P2C == nil {
		m.P2C = map[int]int{}
	}
	if m.P2V == nil {
		m.P2V = map[int]int{}
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

// Identity maps wire i to physical qubit i and classical bit i.
func Identity(n int) *RegisterMapping {
	id := make(map[int]int, n)
	for i := 0; i < n; i++ {
		id[i] = i
	}
	m, _ := New(id, id, id)
	return m
}

// FromLayout derives the virtual-to-classical table from a compiler
// layout (physical → virtual) and the measurement table (physical →
// classical). Physical qubits measured but absent from the layout are
// ancillas and carry no virtual wire.
func FromLayout(p2v, p2c map[int]int) (*RegisterMapping, error) {
	v2c := make(map[int]int, len(p2c))
	for p, c := range p2c {
		if v, ok := p2v[p]; ok {
			v2c[v] = c
		}
	}
	return New(v2c, p2c, p2v)
}

// Check verifies that every table is consistent with its inverse and that
// the tables compose.
func (m *RegisterMapping) Check() error {
	const op = "mapping.Check"
	for _, pair := range []struct {
		name     string
		fwd, inv map[int]int
	}{
		{"v2c", m.V2C, m.C2V},
		{"p2c", m.P2C, m.C2P},
		{"p2v", m.P2V, m.V2P},
	} {
		if len(pair.fwd) != len(pair.inv) {
			return qerr.Config(op, "%s is not bijective", pair.name)
		}
		for k, v := range pair.fwd {
			if back, ok := pair.inv[v]; !ok || back != k {
				return qerr.Config(op, "%s entry %d->%d has no matching inverse", pair.name, k, v)
			}
		}
	}
	if len(m.P2V) == 0 {
		// Without a layout wire v sits on physical qubit v.
		for v, c := range m.V2C {
			if pc, ok := m.P2C[v]; !ok || pc != c {
				return qerr.Config(op, "virtual %d: v2c=%d but p2c of physical %d disagrees", v, c, v)
			}
		}
		return nil
	}
	for v := range m.V2C {
		if _, ok := m.V2P[v]; !ok {
			return qerr.Config(op, "virtual %d has a classical bit but no physical qubit", v)
		}
	}
	for p, v := range m.P2V {
		vc, measured := m.V2C[v]
		pc, ok := m.P2C[p]
		switch {
		case measured && !ok:
			return qerr.Config(op, "physical %d: v2c(p2v)=%d but p2c has no entry", p, vc)
		case !measured && ok:
			return qerr.Config(op, "physical %d: p2c=%d but virtual %d has no classical bit", p, pc, v)
		case measured && vc != pc:
			return qerr.Config(op, "physical %d: v2c(p2v)=%d but p2c=%d", p, vc, pc)
		}
	}
	return nil
}

// Physical returns the physical qubit for virtual wire v, or v itself when
// no layout is recorded for it.
func (m *RegisterMapping) Physical(v int) int {
	if m == nil {
		return v
	}
	if p, ok := m.V2P[v]; ok {
		return p
	}
	return v
}

// Classical returns the classical bit holding virtual wire v.
func (m *RegisterMapping) Classical(v int) (int, bool) {
	if m == nil {
		return v, true
	}
	c, ok := m.V2C[v]
	return c, ok
}

// ComposePhysicalToClassical returns v2c ∘ p2v as a new table.
func (m *RegisterMapping) ComposePhysicalToClassical() map[int]int {
	out := make(map[int]int, len(m.P2V))
	for p, v := range m.P2V {
		if c, ok := m.V2C[v]; ok {
			out[p] = c
		}
	}
	return out
}

// Wires returns the virtual wires with a classical bit, ascending.
func (m *RegisterMapping) Wires() []int {
	return slices.Sorted(maps.Keys(m.V2C))
}

// HasClassical reports whether any measurement is mapped.
func (m *RegisterMapping) HasClassical() bool {
	return m != nil && len(m.P2C) > 0
}

func invert(op, name string, fwd map[int]int) (map[int]int, error) {
	inv := make(map[int]int, len(fwd))
	for k, v := range fwd {
		if k < 0 || v < 0 {
			return nil, qerr.Config(op, "%s has negative index %d->%d", name, k, v)
		}
		if prev, dup := inv[v]; dup {
			return nil, qerr.Config(op, "%s maps both %d and %d to %d", name, prev, k, v)
		}
		inv[v] = k
	}
	return inv, nil
}
