// Package expval estimates Pauli-string expectation values, analytically
// from state vectors or statistically from measurement counts.
//
// A Pauli string has one character per wire: character i acts on wire i.
// The functions here are explicit about amplitude ordering. Analytic
// works on the engine's internal order (wire 0 is the most significant
// index bit), AnalyticLittleEndian on external state vectors (qubit 0 is
// the least significant bit). Count keys are external bitstrings with
// classical bit 0 rightmost; DecodeBitstring is the single place that
// reads them.
package expval

import (
	"math"
	"math/bits"
	"strings"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

// Pauli is a validated Pauli string over the alphabet I, X, Y, Z.
type Pauli string

// ParsePauli validates s, accepting lower-case letters.
func ParsePauli(s string) (Pauli, error) {
	if s == "" {
		return "", qerr.Config("expval.ParsePauli", "empty observable")
	}
	up := strings.ToUpper(s)
	for i, r := range up {
		switch r {
		case 'I', 'X', 'Y', 'Z':
		default:
			return "", qerr.Config("expval.ParsePauli", "observable %q: invalid character %q at %d", s, r, i)
		}
	}
	return Pauli(up), nil
}

// MustPauli is ParsePauli for literals.
func MustPauli(s string) Pauli {
	p, err := ParsePauli(s)
	if err != nil {
		panic(err)
	}
	return p
}

// AllZ returns "ZZ…Z" of length n.
func AllZ(n int) Pauli { return Pauli(strings.Repeat("Z", n)) }

// SingleZ returns the string with Z on wire w of n and identity
// elsewhere.
func SingleZ(n, w int) Pauli {
	b := []byte(strings.Repeat("I", n))
	b[w] = 'Z'
	return Pauli(b)
}

// Len returns the number of wires the string acts on.
func (p Pauli) Len() int { return len(p) }

// Support returns the wires with a non-identity factor, ascending.
func (p Pauli) Support() []int {
	var out []int
	for i := 0; i < len(p); i++ {
		if p[i] != 'I' {
			out = append(out, i)
		}
	}
	return out
}

// BasisRotation returns the gates that map the eigenbasis of p onto the
// computational basis, so that measuring in Z afterwards samples p.
// wires[i] is the circuit wire that carries character i.
func BasisRotation(p Pauli, wires []int) []gates.GateSpec {
	var out []gates.GateSpec
	for i := 0; i < len(p); i++ {
		w := wires[i]
		switch p[i] {
		case 'X':
			out = append(out, gates.New(gates.H, []int{w}))
		case 'Y':
			out = append(out, gates.New(gates.SDG, []int{w}), gates.New(gates.H, []int{w}))
		}
	}
	return out
}

// Analytic returns ⟨ψ|P|ψ⟩ for every batch element of sv.
func Analytic(sv *statevec.StateVector, p Pauli) ([]float64, error) {
	n := sv.NWires()
	if p.Len() != n {
		return nil, qerr.Config("expval.Analytic", "observable %s has %d factors for %d wires", p, p.Len(), n)
	}
	out := make([]float64, sv.Batch())
	for b := range out {
		out[b] = expectation(sv.Element(b), p, func(w int) int { return n - 1 - w })
	}
	return out, nil
}

// AnalyticLittleEndian returns ⟨ψ|P|ψ⟩ for an external state vector in
// which qubit 0 is the least significant index bit.
func AnalyticLittleEndian(amps []complex128, p Pauli) (float64, error) {
	if len(amps) != 1<<p.Len() {
		return 0, qerr.Config("expval.AnalyticLittleEndian", "observable %s does not match %d amplitudes", p, len(amps))
	}
	return expectation(amps, p, func(w int) int { return w }), nil
}

// expectation evaluates Σ_i conj(ψ[i⊕x]) · phase(i) · ψ[i], where x flips
// the X and Y wires and phase collects i^{#Y} and the (−1) signs of the
// Y and Z wires. pos maps a wire to its index bit.
func expectation(amps []complex128, p Pauli, pos func(w int) int) float64 {
	var flip, sign int
	nY := 0
	for w := 0; w < len(p); w++ {
		bit := 1 << pos(w)
		switch p[w] {
		case 'X':
			flip |= bit
		case 'Y':
			flip |= bit
			sign |= bit
			nY++
		case 'Z':
			sign |= bit
		}
	}
	phase := [4]complex128{1, 1i, -1, -1i}[nY%4]

	var sum complex128
	for i, a := range amps {
		if a == 0 {
			continue
		}
		v := phase * a
		if bits.OnesCount(uint(i&sign))%2 == 1 {
			v = -v
		}
		c := amps[i^flip]
		sum += complex(real(c), -imag(c)) * v
	}
	return real(sum)
}

// DecodeBitstring converts an external count key to per-classical-bit
// values: out[k] is classical bit k, read from position len−1−k. Spaces
// separating registers are ignored. nClbits ≤ 0 accepts any length.
func DecodeBitstring(key string, nClbits int) ([]int, error) {
	key = strings.ReplaceAll(key, " ", "")
	if nClbits > 0 && len(key) != nClbits {
		return nil, qerr.Config("expval.DecodeBitstring", "key %q has %d bits, want %d", key, len(key), nClbits)
	}
	out := make([]int, len(key))
	for k := range out {
		switch key[len(key)-1-k] {
		case '0':
		case '1':
			out[k] = 1
		default:
			return nil, qerr.Config("expval.DecodeBitstring", "key %q is not binary", key)
		}
	}
	return out, nil
}

// EncodeBitstring is the inverse of DecodeBitstring.
func EncodeBitstring(clbits []int) string {
	var sb strings.Builder
	sb.Grow(len(clbits))
	for k := len(clbits) - 1; k >= 0; k-- {
		sb.WriteByte(byte('0' + clbits[k]&1))
	}
	return sb.String()
}

// FromCounts estimates ⟨P⟩ from counts measured in the eigenbasis of p
// (see BasisRotation). order[i] is the classical bit holding wire i.
// It returns the estimate and the total shot count.
func FromCounts(counts map[string]int, p Pauli, order []int) (float64, int, error) {
	const op = "expval.FromCounts"
	if len(order) != p.Len() {
		return 0, 0, qerr.Config(op, "observable %s has %d factors, order has %d wires", p, p.Len(), len(order))
	}
	support := p.Support()
	var total, acc int
	for key, n := range counts {
		clbits, err := DecodeBitstring(key, 0)
		if err != nil {
			return 0, 0, err
		}
		parity := 0
		for _, w := range support {
			c := order[w]
			if c < 0 || c >= len(clbits) {
				return 0, 0, qerr.Config(op, "wire %d reads classical bit %d outside key %q", w, c, key)
			}
			parity ^= clbits[c]
		}
		if parity == 0 {
			acc += n
		} else {
			acc -= n
		}
		total += n
	}
	if total == 0 {
		return 0, 0, qerr.Numeric(op, "no shots recorded")
	}
	return float64(acc) / float64(total), total, nil
}

// MarginalZ returns ⟨Z⟩ of every wire from Z-basis counts.
func MarginalZ(counts map[string]int, order []int) ([]float64, int, error) {
	out := make([]float64, len(order))
	shots := 0
	for w := range order {
		v, n, err := FromCounts(counts, SingleZ(len(order), w), order)
		if err != nil {
			return nil, 0, err
		}
		out[w] = v
		shots = n
	}
	return out, shots, nil
}

// Method tags how an expectation value was obtained.
type Method int

// Estimation methods.
const (
	MethodAnalytic Method = iota
	MethodSampled
)

func (m Method) String() string {
	if m == MethodSampled {
		return "sampled"
	}
	return "analytic"
}

// Result is a batch of expectation values, Values[b][j] being observable
// j on batch element b.
type Result struct {
	Values      [][]float64
	Observables []string
	Method      Method
	Shots       int
}

// StdErr returns the standard error of Values[b][j]: zero for analytic
// results, sqrt((1−v²)/shots) for sampled ±1 observables.
func (r *Result) StdErr(b, j int) float64 {
	if r.Method == MethodAnalytic || r.Shots == 0 {
		return 0
	}
	v := r.Values[b][j]
	return math.Sqrt(math.Max(0, 1-v*v) / float64(r.Shots))
}
