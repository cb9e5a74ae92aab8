package statevec

import "github.com/born-ml/quantumnat/internal/qerr"

// ToLittleEndian converts an amplitude vector from the internal ordering
// (wire 0 is the most significant index bit) to the external ordering
// (qubit 0 is the least significant index bit). Amplitude i moves to the
// index whose nWires bits are reversed.
//
// Skipping this step flips the sign of odd-parity Pauli expectations
// whenever the observable is not symmetric under wire reversal.
func ToLittleEndian(amps []complex128, nWires int) ([]complex128, error) {
	if len(amps) != 1<<nWires {
		return nil, qerr.Config("statevec.ToLittleEndian", "got %d amplitudes for %d wires", len(amps), nWires)
	}
	out := make([]complex128, len(amps))
	for i, a := range amps {
		out[ReverseBits(i, nWires)] = a
	}
	return out, nil
}

// FromLittleEndian is the inverse of ToLittleEndian. Bit reversal is an
// involution, so both directions share one permutation.
func FromLittleEndian(amps []complex128, nWires int) ([]complex128, error) {
	out, err := ToLittleEndian(amps, nWires)
	if err != nil {
		return nil, qerr.Config("statevec.FromLittleEndian", "got %d amplitudes for %d wires", len(amps), nWires)
	}
	return out, nil
}

// ReverseBits reverses the lowest n bits of i.
func ReverseBits(i, n int) int {
	r := 0
	for k := 0; k < n; k++ {
		r = r<<1 | (i>>k)&1
	}
	return r
}

// LittleEndian returns element b converted to external ordering.
func (s *StateVector) LittleEndian(b int) []complex128 {
	out, _ := ToLittleEndian(s.Element(b), s.nWires)
	return out
}
