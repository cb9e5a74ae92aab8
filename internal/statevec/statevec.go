// Package statevec implements the batched state-vector store and the gate
// operator kernel that mutates it.
//
// A StateVector holds batch independent registers of n wires, each a
// vector of 2^n complex128 amplitudes. Wire 0 is the most significant bit
// of the amplitude index; Index and Bit are the only places that encode
// this convention, and ToLittleEndian converts to the external
// qubit-0-least-significant ordering.
package statevec

import (
	"math"
	"math/cmplx"

	"github.com/born-ml/quantumnat/internal/parallel"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// MaxWires bounds the register size (2^24 amplitudes per element).
const MaxWires = 24

// StateVector is a (batch, 2^nWires) complex amplitude tensor.
type StateVector struct {
	nWires int
	batch  int
	dim    int
	amps   []complex128 // batch-major, element b at [b*dim, (b+1)*dim)
	par    parallel.Config
}

// Option configures a StateVector.
type Option func(*StateVector)

// WithParallel sets the data-parallel config used by Apply.
func WithParallel(cfg parallel.Config) Option {
	return func(s *StateVector) { s.par = cfg }
}

// New creates a state vector with every batch element in |0...0>.
func New(nWires, batch int, opts ...Option) (*StateVector, error) {
	if nWires < 1 || nWires > MaxWires {
		return nil, qerr.Config("statevec.New", "n_wires %d out of range [1, %d]", nWires, MaxWires)
	}
	if batch < 1 {
		return nil, qerr.Config("statevec.New", "batch size %d must be positive", batch)
	}
	dim := 1 << nWires
	s := &StateVector{
		nWires: nWires,
		batch:  batch,
		dim:    dim,
		amps:   make([]complex128, batch*dim),
		par:    parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s, nil
}

// NWires returns the number of wires.
func (s *StateVector) NWires() int { return s.nWires }

// Batch returns the batch size.
func (s *StateVector) Batch() int { return s.batch }

// Dim returns 2^NWires.
func (s *StateVector) Dim() int { return s.dim }

// Reset puts every element back into |0...0>.
func (s *StateVector) Reset() {
	clear(s.amps)
	for b := 0; b < s.batch; b++ {
		s.amps[b*s.dim] = 1
	}
}

// Element returns the live amplitude slice for batch element b.
// Modifications write through to the state.
func (s *StateVector) Element(b int) []complex128 {
	return s.amps[b*s.dim : (b+1)*s.dim]
}

// Amplitudes returns a copy of element b's amplitudes in internal order.
func (s *StateVector) Amplitudes(b int) []complex128 {
	out := make([]complex128, s.dim)
	copy(out, s.Element(b))
	return out
}

// SetAmplitudes overwrites element b. The vector must have length Dim and
// unit norm within tol.
func (s *StateVector) SetAmplitudes(b int, amps []complex128, tol float64) error {
	if b < 0 || b >= s.batch {
		return qerr.Config("statevec.SetAmplitudes", "batch index %d out of range [0, %d)", b, s.batch)
	}
	if len(amps) != s.dim {
		return qerr.Config("statevec.SetAmplitudes", "got %d amplitudes, want %d", len(amps), s.dim)
	}
	if d := math.Abs(squaredNorm(amps) - 1); d > tol {
		return qerr.Config("statevec.SetAmplitudes", "vector norm deviates from 1 by %.3e", d)
	}
	copy(s.Element(b), amps)
	return nil
}

// Clone returns a deep copy.
func (s *StateVector) Clone() *StateVector {
	c := *s
	c.amps = make([]complex128, len(s.amps))
	copy(c.amps, s.amps)
	return &c
}

// Norms returns the squared norm of every batch element.
func (s *StateVector) Norms() []float64 {
	out := make([]float64, s.batch)
	for b := range out {
		out[b] = squaredNorm(s.Element(b))
	}
	return out
}

// MaxDrift returns the largest |norm^2 - 1| across the batch.
func (s *StateVector) MaxDrift() float64 {
	var drift float64
	for _, n := range s.Norms() {
		drift = math.Max(drift, math.Abs(n-1))
	}
	return drift
}

// Probabilities returns |amp|^2 for every element, shape (batch, dim).
func (s *StateVector) Probabilities() [][]float64 {
	out := make([][]float64, s.batch)
	for b := range out {
		el := s.Element(b)
		p := make([]float64, s.dim)
		for i, a := range el {
			p[i] = real(a)*real(a) + imag(a)*imag(a)
		}
		out[b] = p
	}
	return out
}

// WireProbability returns P(wire == 1) for batch element b.
func (s *StateVector) WireProbability(b, wire int) float64 {
	mask := s.mask(wire)
	var p float64
	for i, a := range s.Element(b) {
		if i&mask != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// Equal reports whether both states have the same shape and every
// amplitude differs by at most tol. tol == 0 demands bit-identical data.
func (s *StateVector) Equal(other *StateVector, tol float64) bool {
	if s.nWires != other.nWires || s.batch != other.batch {
		return false
	}
	for i := range s.amps {
		if tol == 0 {
			if s.amps[i] != other.amps[i] {
				return false
			}
			continue
		}
		if cmplx.Abs(s.amps[i]-other.amps[i]) > tol {
			return false
		}
	}
	return true
}

// Index composes an amplitude index from per-wire bit values
// (bits[w] is wire w).
func Index(bits []int) int {
	idx := 0
	for _, b := range bits {
		idx = idx<<1 | (b & 1)
	}
	return idx
}

// Bit returns the value of wire in amplitude index idx on nWires wires.
func Bit(idx, wire, nWires int) int {
	return (idx >> (nWires - 1 - wire)) & 1
}

func (s *StateVector) mask(wire int) int {
	return 1 << (s.nWires - 1 - wire)
}

func squaredNorm(v []complex128) float64 {
	var sum float64
	for _, a := range v {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}
