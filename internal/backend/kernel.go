package backend

import (
	"maps"
	"math/rand"
	"slices"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/linalg"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// program is a circuit lowered to flat qubit indices.
type program struct {
	nQubits  int
	nClbits  int
	ops      []gates.GateSpec
	measures map[int]int // qubit -> clbit
}

// lower resolves registers, names and parameters. Gates after a
// measurement on the same qubit are rejected.
func lower(c *circuit.Circuit) (*program, error) {
	const op = "backend.lower"
	p := &program{nQubits: c.NumQubits(), nClbits: c.NumClbits(), measures: map[int]int{}}
	for i, in := range c.Instructions {
		qubits := make([]int, len(in.Qubits))
		for j, b := range in.Qubits {
			q, err := c.FlatQubit(b)
			if err != nil {
				return nil, qerr.Backend(op, false, err)
			}
			qubits[j] = q
		}
		switch in.Name {
		case circuit.OpBarrier:
			continue
		case circuit.OpMeasure:
			if len(qubits) != 1 || len(in.Clbits) != 1 {
				return nil, qerr.Backendf(op, false, "instruction %d: malformed measure", i)
			}
			cl, err := c.FlatClbit(in.Clbits[0])
			if err != nil {
				return nil, qerr.Backend(op, false, err)
			}
			p.measures[qubits[0]] = cl
			continue
		}
		kind, ok := gates.Lookup(in.Name)
		if !ok {
			return nil, qerr.Backendf(op, false, "instruction %d: unsupported gate %q", i, in.Name)
		}
		params := make([]float64, len(in.Params))
		for j, prm := range in.Params {
			if prm.Symbolic() {
				return nil, qerr.Backendf(op, false, "instruction %d: unbound parameter %q", i, prm.Symbol)
			}
			params[j] = prm.Value
		}
		for _, q := range qubits {
			if _, done := p.measures[q]; done {
				return nil, qerr.Backendf(op, false, "instruction %d: gate on measured qubit %d", i, q)
			}
		}
		spec := gates.New(kind, qubits, params...)
		if err := spec.Validate(p.nQubits, 1); err != nil {
			return nil, qerr.Backend(op, false, err)
		}
		p.ops = append(p.ops, spec)
	}
	return p, nil
}

// simulate runs the ideal unitary part of p from |0…0⟩ and returns the
// little-endian state vector.
func (p *program) simulate() []complex128 {
	state := make([]complex128, 1<<p.nQubits)
	state[0] = 1
	for _, spec := range p.ops {
		applyLE(state, spec.Kind.Matrix(spec.Row(0)), spec.Targets, spec.Controls)
	}
	return state
}

// applyLE applies m to a little-endian state: qubit q is bit q of the
// index. Row and column indices of m use targets[0] as their most
// significant bit.
func applyLE(state []complex128, m linalg.Matrix, targets, controls []int) {
	k := len(targets)
	dim := 1 << k
	var tmask, cmask int
	for _, t := range targets {
		tmask |= 1 << t
	}
	for _, c := range controls {
		cmask |= 1 << c
	}
	offsets := make([]int, dim)
	for j := range offsets {
		for t, q := range targets {
			if j>>(k-1-t)&1 == 1 {
				offsets[j] |= 1 << q
			}
		}
	}

	in := make([]complex128, dim)
	for base := range state {
		if base&tmask != 0 || base&cmask != cmask {
			continue
		}
		for j, off := range offsets {
			in[j] = state[base|off]
		}
		for r := 0; r < dim; r++ {
			var sum complex128
			for j := 0; j < dim; j++ {
				sum += m.Data[r*dim+j] * in[j]
			}
			state[base|offsets[r]] = sum
		}
	}
}

// sample draws shots outcomes from a little-endian state and returns
// counts keyed by classical bitstring. flip, when non-nil, may alter the
// measured bit of a qubit.
func (p *program) sample(state []complex128, shots int, rng *rand.Rand, flip func(q, bit int) int) Counts {
	cdf := make([]float64, len(state))
	var acc float64
	for i, a := range state {
		acc += real(a)*real(a) + imag(a)*imag(a)
		cdf[i] = acc
	}
	// Readout flips consume rng draws, so qubits are visited in a fixed order.
	measured := slices.Sorted(maps.Keys(p.measures))
	counts := Counts{}
	clbits := make([]int, p.nClbits)
	for s := 0; s < shots; s++ {
		x := rng.Float64() * acc
		idx := searchCDF(cdf, x)
		clear(clbits)
		for _, q := range measured {
			c := p.measures[q]
			bit := idx >> q & 1
			if flip != nil {
				bit = flip(q, bit)
			}
			clbits[c] = bit
		}
		counts[expval.EncodeBitstring(clbits)]++
	}
	return counts
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func searchCDF(cdf []float64, x float64) int {
	lo, hi := 0, len(cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cdf[mid] < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
