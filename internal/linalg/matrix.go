// Package linalg provides the small dense complex matrices used as gate
// operators.
package linalg

import (
	"fmt"
	"math/cmplx"
)

// Matrix is a square complex128 matrix stored row-major.
type Matrix struct {
	Dim  int
	Data []complex128
}

// New creates a zero matrix of the given dimension.
func New(dim int) Matrix {
	return Matrix{Dim: dim, Data: make([]complex128, dim*dim)}
}

// FromRows builds a matrix from row slices. Rows must form a square.
func FromRows(rows ...[]complex128) (Matrix, error) {
	n := len(rows)
	m := New(n)
	for i, r := range rows {
		if len(r) != n {
			return Matrix{}, fmt.Errorf("row %d has %d entries, want %d", i, len(r), n)
		}
		copy(m.Data[i*n:(i+1)*n], r)
	}
	return m, nil
}

// MustRows is FromRows for constant tables; it panics on a ragged input.
func MustRows(rows ...[]complex128) Matrix {
	m, err := FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

// Identity returns the dim x dim identity.
func Identity(dim int) Matrix {
	m := New(dim)
	for i := 0; i < dim; i++ {
		m.Data[i*dim+i] = 1
	}
	return m
}

// At returns element (i, j).
func (m Matrix) At(i, j int) complex128 {
	return m.Data[i*m.Dim+j]
}

// Set sets element (i, j).
func (m Matrix) Set(i, j int, v complex128) {
	m.Data[i*m.Dim+j] = v
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	c := New(m.Dim)
	copy(c.Data, m.Data)
	return c
}

// Mul returns m @ other.
// C[i,j] = sum_k A[i,k] * B[k,j]
func (m Matrix) Mul(other Matrix) Matrix {
	n := m.Dim
	c := New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += m.Data[i*n+k] * other.Data[k*n+j]
			}
			c.Data[i*n+j] = sum
		}
	}
	return c
}

// Scale returns s * m.
func (m Matrix) Scale(s complex128) Matrix {
	c := New(m.Dim)
	for i, v := range m.Data {
		c.Data[i] = s * v
	}
	return c
}

// Dagger returns the conjugate transpose.
func (m Matrix) Dagger() Matrix {
	n := m.Dim
	c := New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c.Data[j*n+i] = cmplx.Conj(m.Data[i*n+j])
		}
	}
	return c
}

// Kron returns the Kronecker product m ⊗ other. The left operand occupies
// the most significant index bits.
func (m Matrix) Kron(other Matrix) Matrix {
	a, b := m.Dim, other.Dim
	n := a * b
	c := New(n)
	for i := 0; i < a; i++ {
		for j := 0; j < a; j++ {
			v := m.Data[i*a+j]
			if v == 0 {
				continue
			}
			for k := 0; k < b; k++ {
				for l := 0; l < b; l++ {
					c.Data[(i*b+k)*n+j*b+l] = v * other.Data[k*b+l]
				}
			}
		}
	}
	return c
}

// MulVec returns m @ v.
func (m Matrix) MulVec(v []complex128) []complex128 {
	n := m.Dim
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for k := 0; k < n; k++ {
			sum += m.Data[i*n+k] * v[k]
		}
		out[i] = sum
	}
	return out
}

// ApproxEqual compares element-wise within tol.
func (m Matrix) ApproxEqual(other Matrix, tol float64) bool {
	if m.Dim != other.Dim {
		return false
	}
	for i := range m.Data {
		if cmplx.Abs(m.Data[i]-other.Data[i]) > tol {
			return false
		}
	}
	return true
}

// IsUnitary reports whether m† m = I within tol.
func (m Matrix) IsUnitary(tol float64) bool {
	return m.Dagger().Mul(m).ApproxEqual(Identity(m.Dim), tol)
}

// NumQubits returns log2(Dim), or -1 if Dim is not a power of two.
func (m Matrix) NumQubits() int {
	n := 0
	for d := m.Dim; d > 1; d >>= 1 {
		if d&1 != 0 {
			return -1
		}
		n++
	}
	if m.Dim < 1 {
		return -1
	}
	return n
}
