package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hadamard() Matrix {
	s := complex(1/math.Sqrt2, 0)
	return MustRows(
		[]complex128{s, s},
		[]complex128{s, -s},
	)
}

func TestFromRows_Ragged(t *testing.T) {
	_, err := FromRows([]complex128{1, 0}, []complex128{0})
	require.Error(t, err)
}

func TestMul_HH(t *testing.T) {
	h := hadamard()
	assert.True(t, h.Mul(h).ApproxEqual(Identity(2), 1e-12))
}

func TestDagger(t *testing.T) {
	m := MustRows(
		[]complex128{1, 2i},
		[]complex128{3 + 1i, 4},
	)
	d := m.Dagger()
	assert.Equal(t, complex(1, 0), d.At(0, 0))
	assert.Equal(t, complex(3, -1), d.At(0, 1))
	assert.Equal(t, complex(0, -2), d.At(1, 0))
}

func TestKron_Ordering(t *testing.T) {
	x := MustRows([]complex128{0, 1}, []complex128{1, 0})
	id := Identity(2)

	// X ⊗ I flips the most significant bit: |00> -> |10>.
	out := x.Kron(id).MulVec([]complex128{1, 0, 0, 0})
	assert.Equal(t, []complex128{0, 0, 1, 0}, out)

	// I ⊗ X flips the least significant bit: |00> -> |01>.
	out = id.Kron(x).MulVec([]complex128{1, 0, 0, 0})
	assert.Equal(t, []complex128{0, 1, 0, 0}, out)
}

func TestIsUnitary(t *testing.T) {
	assert.True(t, hadamard().IsUnitary(1e-12))
	assert.True(t, hadamard().Kron(hadamard()).IsUnitary(1e-12))

	notUnitary := MustRows([]complex128{1, 1}, []complex128{0, 1})
	assert.False(t, notUnitary.IsUnitary(1e-9))
}

func TestNumQubits(t *testing.T) {
	assert.Equal(t, 0, Identity(1).NumQubits())
	assert.Equal(t, 1, Identity(2).NumQubits())
	assert.Equal(t, 3, Identity(8).NumQubits())
	assert.Equal(t, -1, Identity(3).NumQubits())
}
