package gates

import (
	"github.com/born-ml/quantumnat/internal/linalg"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// GateSpec describes one gate invocation.
//
// Params holds either no rows (unparameterized kinds), a single row shared
// by every batch element, or one row per batch element.
type GateSpec struct {
	Kind      Kind
	Targets   []int
	Controls  []int
	Params    [][]float64
	Trainable bool
	Inverse   bool
}

// New builds a spec with one shared parameter row.
func New(kind Kind, wires []int, params ...float64) GateSpec {
	nc := kind.NumControls()
	spec := GateSpec{Kind: kind}
	if len(wires) >= nc {
		spec.Controls = append([]int(nil), wires[:nc]...)
		spec.Targets = append([]int(nil), wires[nc:]...)
	} else {
		spec.Targets = append([]int(nil), wires...)
	}
	if len(params) > 0 {
		spec.Params = [][]float64{append([]float64(nil), params...)}
	}
	return spec
}

// Wires returns controls followed by targets, the operand order used on
// the external circuit boundary.
func (g GateSpec) Wires() []int {
	out := make([]int, 0, len(g.Controls)+len(g.Targets))
	out = append(out, g.Controls...)
	return append(out, g.Targets...)
}

// Batched reports whether parameters differ per batch element.
func (g GateSpec) Batched() bool { return len(g.Params) > 1 }

// Row returns the parameter vector for batch element b.
func (g GateSpec) Row(b int) []float64 {
	switch len(g.Params) {
	case 0:
		return nil
	case 1:
		return g.Params[0]
	default:
		return g.Params[b]
	}
}

// Validate checks arity, wire range/distinctness and parameter shape.
func (g GateSpec) Validate(nWires, batch int) error {
	const op = "gates.Validate"
	if !g.Kind.Valid() {
		return qerr.Config(op, "unknown gate kind %d", int(g.Kind))
	}
	if len(g.Targets) != g.Kind.NumTargets() {
		return qerr.Config(op, "%s takes %d target wires, got %d", g.Kind, g.Kind.NumTargets(), len(g.Targets))
	}
	if len(g.Controls) != g.Kind.NumControls() {
		return qerr.Config(op, "%s takes %d control wires, got %d", g.Kind, g.Kind.NumControls(), len(g.Controls))
	}
	seen := make(map[int]bool, g.Kind.NumWires())
	for _, w := range g.Wires() {
		if w < 0 || w >= nWires {
			return qerr.Config(op, "%s wire %d out of range [0, %d)", g.Kind, w, nWires)
		}
		if seen[w] {
			return qerr.Config(op, "%s uses wire %d more than once", g.Kind, w)
		}
		seen[w] = true
	}

	np := g.Kind.NumParams()
	switch {
	case np == 0 && len(g.Params) == 0:
		return nil
	case np == 0:
		return qerr.Config(op, "%s takes no parameters", g.Kind)
	case len(g.Params) != 1 && len(g.Params) != batch:
		return qerr.Config(op, "%s has %d parameter rows for batch of %d", g.Kind, len(g.Params), batch)
	}
	for i, row := range g.Params {
		if len(row) != np {
			return qerr.Config(op, "%s parameter row %d has %d values, want %d", g.Kind, i, len(row), np)
		}
	}
	return nil
}

// Matrices returns the matrices to hand to the kernel: one if the
// parameters are shared, otherwise one per batch element.
func (g GateSpec) Matrices() []linalg.Matrix {
	rows := max(len(g.Params), 1)
	out := make([]linalg.Matrix, rows)
	for b := range out {
		m := g.Kind.Matrix(g.Row(b))
		if g.Inverse {
			m = m.Dagger()
		}
		out[b] = m
	}
	return out
}

// Clone returns a deep copy, so recorded history is isolated from later
// mutation of caller-owned parameter slices.
func (g GateSpec) Clone() GateSpec {
	c := g
	c.Targets = append([]int(nil), g.Targets...)
	c.Controls = append([]int(nil), g.Controls...)
	if g.Params != nil {
		c.Params = make([][]float64, len(g.Params))
		for i, row := range g.Params {
			c.Params[i] = append([]float64(nil), row...)
		}
	}
	return c
}
