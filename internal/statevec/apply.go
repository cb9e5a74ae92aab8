package statevec

import (
	"sort"

	"github.com/born-ml/quantumnat/internal/linalg"
	"github.com/born-ml/quantumnat/internal/parallel"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// layout is the precomputed index geometry of one (targets, controls)
// application.
type layout struct {
	fixed   []int // bit positions of targets and controls, ascending
	ctrl    int   // mask with every control bit set
	offsets []int // offsets[j]: target bits for local index j (targets[0] is the MSB of j)
	groups  int   // number of free-bit assignments
}

func (s *StateVector) layoutFor(op string, dim int, targets, controls []int) (*layout, error) {
	if len(targets) == 0 {
		return nil, qerr.Config(op, "no target wires")
	}
	if dim != 1<<len(targets) {
		return nil, qerr.Config(op, "matrix dimension %d does not act on %d target wires", dim, len(targets))
	}

	seen := make(map[int]bool, len(targets)+len(controls))
	check := func(kind string, w int) error {
		if w < 0 || w >= s.nWires {
			return qerr.Config(op, "%s wire %d out of range [0, %d)", kind, w, s.nWires)
		}
		if seen[w] {
			return qerr.Config(op, "wire %d used more than once", w)
		}
		seen[w] = true
		return nil
	}
	for _, w := range targets {
		if err := check("target", w); err != nil {
			return nil, err
		}
	}
	for _, w := range controls {
		if err := check("control", w); err != nil {
			return nil, err
		}
	}

	l := &layout{offsets: make([]int, dim)}
	for _, w := range controls {
		l.ctrl |= s.mask(w)
	}
	for w := range seen {
		l.fixed = append(l.fixed, s.nWires-1-w)
	}
	sort.Ints(l.fixed)

	k := len(targets)
	for j := 0; j < dim; j++ {
		off := 0
		for t, w := range targets {
			if (j>>(k-1-t))&1 == 1 {
				off |= s.mask(w)
			}
		}
		l.offsets[j] = off
	}
	l.groups = 1 << (s.nWires - len(l.fixed))
	return l, nil
}

// base inserts zero bits at every fixed position of g and sets the
// control bits.
func (l *layout) base(g int) int {
	for _, p := range l.fixed {
		low := g & ((1 << p) - 1)
		g = (g>>p)<<(p+1) | low
	}
	return g | l.ctrl
}

// Apply contracts a gate matrix against the target wires of every batch
// element. Amplitudes where any control wire is 0 are left untouched.
//
// mats holds either one matrix shared by the whole batch or one matrix
// per batch element. The matrix row/column index uses targets[0] as its
// most significant bit. No renormalization is performed.
func (s *StateVector) Apply(mats []linalg.Matrix, targets, controls []int) error {
	const op = "statevec.Apply"
	if len(mats) != 1 && len(mats) != s.batch {
		return qerr.Config(op, "got %d matrices for batch of %d", len(mats), s.batch)
	}
	dim := mats[0].Dim
	for _, m := range mats[1:] {
		if m.Dim != dim {
			return qerr.Config(op, "batched matrices have mixed dimensions %d and %d", dim, m.Dim)
		}
	}
	l, err := s.layoutFor(op, dim, targets, controls)
	if err != nil {
		return err
	}

	parallel.ForBatch(s.batch, l.groups, func(b, lo, hi int) {
		m := mats[0]
		if len(mats) > 1 {
			m = mats[b]
		}
		s.applyGroups(s.Element(b), m, l, lo, hi)
	}, s.par)
	return nil
}

// ApplyElement applies m to batch element b only.
func (s *StateVector) ApplyElement(b int, m linalg.Matrix, targets, controls []int) error {
	const op = "statevec.ApplyElement"
	if b < 0 || b >= s.batch {
		return qerr.Config(op, "batch index %d out of range [0, %d)", b, s.batch)
	}
	l, err := s.layoutFor(op, m.Dim, targets, controls)
	if err != nil {
		return err
	}
	s.applyGroups(s.Element(b), m, l, 0, l.groups)
	return nil
}

func (s *StateVector) applyGroups(el []complex128, m linalg.Matrix, l *layout, lo, hi int) {
	dim := m.Dim
	in := make([]complex128, dim)
	idx := make([]int, dim)

	for g := lo; g < hi; g++ {
		base := l.base(g)
		for j := 0; j < dim; j++ {
			idx[j] = base | l.offsets[j]
			in[j] = el[idx[j]]
		}
		for i := 0; i < dim; i++ {
			row := m.Data[i*dim : (i+1)*dim]
			var sum complex128
			for j, v := range row {
				sum += v * in[j]
			}
			el[idx[i]] = sum
		}
	}
}
