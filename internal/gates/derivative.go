package gates

import (
	"math/cmplx"

	"github.com/born-ml/quantumnat/internal/linalg"
	"github.com/born-ml/quantumnat/internal/qerr"
)

const finiteDiffStep = 1e-6

// Derivative returns ∂U/∂params[i] for the target-space matrix of k.
//
// Rotation kinds use the closed form -i/2 · G · U(θ). Phase kinds
// differentiate the single non-constant entry. Everything else falls back
// to a central difference.
func Derivative(k Kind, params []float64, i int) (linalg.Matrix, error) {
	if !k.Valid() || i < 0 || i >= k.NumParams() || len(params) != k.NumParams() {
		return linalg.Matrix{}, qerr.Config("gates.Derivative", "%s has no parameter %d", k, i)
	}

	if g := table[k].generator; g != nil {
		return g.Mul(k.Matrix(params)).Scale(-0.5i), nil
	}

	switch k {
	case P, U1, CP:
		d := linalg.New(2)
		d.Set(1, 1, 1i*cmplx.Exp(complex(0, params[0])))
		return d, nil
	}

	plus := append([]float64(nil), params...)
	minus := append([]float64(nil), params...)
	plus[i] += finiteDiffStep
	minus[i] -= finiteDiffStep
	up, down := k.Matrix(plus), k.Matrix(minus)
	d := linalg.New(up.Dim)
	for j := range d.Data {
		d.Data[j] = (up.Data[j] - down.Data[j]) / complex(2*finiteDiffStep, 0)
	}
	return d, nil
}

// ShiftRule reports whether the two-term parameter-shift rule
// f'(θ) = [f(θ+π/2) - f(θ-π/2)] / 2 is exact for k's parameters.
// It holds for uncontrolled rotations whose generator has eigenvalues ±1,
// and for phase gates that differ from RZ by a global phase.
func ShiftRule(k Kind) bool {
	switch k {
	case RX, RY, RZ, RXX, RYY, RZZ, RZX, P, U1:
		return true
	}
	return false
}
