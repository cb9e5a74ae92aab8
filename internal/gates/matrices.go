package gates

import (
	"math"
	"math/cmplx"

	"github.com/born-ml/quantumnat/internal/linalg"
)

var invSqrt2 = complex(1/math.Sqrt2, 0)

// Fixed single- and two-qubit matrices.
var (
	matI  = linalg.Identity(2)
	matH  = linalg.MustRows([]complex128{invSqrt2, invSqrt2}, []complex128{invSqrt2, -invSqrt2})
	matX  = linalg.MustRows([]complex128{0, 1}, []complex128{1, 0})
	matY  = linalg.MustRows([]complex128{0, -1i}, []complex128{1i, 0})
	matZ  = linalg.MustRows([]complex128{1, 0}, []complex128{0, -1})
	matS  = linalg.MustRows([]complex128{1, 0}, []complex128{0, 1i})
	matT  = linalg.MustRows([]complex128{1, 0}, []complex128{0, cmplx.Exp(1i * math.Pi / 4)})
	matSX = linalg.MustRows(
		[]complex128{0.5 + 0.5i, 0.5 - 0.5i},
		[]complex128{0.5 - 0.5i, 0.5 + 0.5i},
	)
	matSWAP = linalg.MustRows(
		[]complex128{1, 0, 0, 0},
		[]complex128{0, 0, 1, 0},
		[]complex128{0, 1, 0, 0},
		[]complex128{0, 0, 0, 1},
	)

	matXX = matX.Kron(matX)
	matYY = matY.Kron(matY)
	matZZ = matZ.Kron(matZ)
	matZX = matZ.Kron(matX)
)

func constant(m linalg.Matrix) func([]float64) linalg.Matrix {
	return func([]float64) linalg.Matrix { return m }
}

// rotation returns exp(-i θ/2 G) = cos(θ/2) I - i sin(θ/2) G for an
// involutory generator G.
func rotation(g linalg.Matrix) func([]float64) linalg.Matrix {
	return func(p []float64) linalg.Matrix {
		c, s := math.Cos(p[0]/2), math.Sin(p[0]/2)
		m := linalg.Identity(g.Dim).Scale(complex(c, 0))
		for i, v := range g.Data {
			m.Data[i] += complex(0, -s) * v
		}
		return m
	}
}

func phase(p []float64) linalg.Matrix {
	return linalg.MustRows(
		[]complex128{1, 0},
		[]complex128{0, cmplx.Exp(complex(0, p[0]))},
	)
}

func u2(p []float64) linalg.Matrix {
	phi, lam := p[0], p[1]
	return linalg.MustRows(
		[]complex128{invSqrt2, -invSqrt2 * cmplx.Exp(complex(0, lam))},
		[]complex128{invSqrt2 * cmplx.Exp(complex(0, phi)), invSqrt2 * cmplx.Exp(complex(0, phi+lam))},
	)
}

func u3(p []float64) linalg.Matrix {
	theta, phi, lam := p[0], p[1], p[2]
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return linalg.MustRows(
		[]complex128{c, -cmplx.Exp(complex(0, lam)) * s},
		[]complex128{cmplx.Exp(complex(0, phi)) * s, cmplx.Exp(complex(0, phi+lam)) * c},
	)
}
