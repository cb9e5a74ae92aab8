package gates

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParams(k Kind) []float64 {
	p := make([]float64, k.NumParams())
	for i := range p {
		p[i] = 0.3 + 0.7*float64(i)
	}
	return p
}

func TestAllKindsUnitary(t *testing.T) {
	for _, k := range Kinds() {
		m := k.Matrix(sampleParams(k))
		assert.Equal(t, 1<<k.NumTargets(), m.Dim, k.String())
		assert.True(t, m.IsUnitary(1e-12), "%s is not unitary", k)
	}
}

func TestLookup(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := Lookup(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)

		got, ok = Lookup(k.External())
		require.True(t, ok, k.External())
		assert.Equal(t, k, got)
	}

	k, ok := Lookup("CX")
	assert.True(t, ok)
	assert.Equal(t, CNOT, k)

	k, ok = Lookup("toffoli")
	assert.True(t, ok)
	assert.Equal(t, CCX, k)

	_, ok = Lookup("not-a-gate")
	assert.False(t, ok)
}

func TestKnownMatrices(t *testing.T) {
	// RX(π) = -iX
	rx := RX.Matrix([]float64{math.Pi})
	assert.InDelta(t, 0, real(rx.At(0, 0)), 1e-12)
	assert.InDelta(t, -1, imag(rx.At(0, 1)), 1e-12)

	// U3(θ, 0, 0) = RY(θ)
	assert.True(t, U3.Matrix([]float64{0.4, 0, 0}).ApproxEqual(RY.Matrix([]float64{0.4}), 1e-12))

	// SX² = X
	assert.True(t, SX.Matrix(nil).Mul(SX.Matrix(nil)).ApproxEqual(X.Matrix(nil), 1e-12))

	// RZZ(θ) is diagonal.
	rzz := RZZ.Matrix([]float64{0.9})
	assert.InDelta(t, 0, real(rzz.At(0, 1)), 1e-12)
	assert.InDelta(t, 0, imag(rzz.At(0, 1)), 1e-12)
}

func TestNewSplitsControls(t *testing.T) {
	g := New(CCX, []int{3, 1, 0})
	assert.Equal(t, []int{3, 1}, g.Controls)
	assert.Equal(t, []int{0}, g.Targets)
	assert.Equal(t, []int{3, 1, 0}, g.Wires())
	require.NoError(t, g.Validate(4, 1))

	r := New(CRX, []int{0, 2}, 0.5)
	assert.Equal(t, [][]float64{{0.5}}, r.Params)
	require.NoError(t, r.Validate(3, 8))
}

func TestValidate(t *testing.T) {
	cases := map[string]GateSpec{
		"out of range":       New(H, []int{4}),
		"negative":           New(H, []int{-1}),
		"duplicate":          New(CNOT, []int{1, 1}),
		"missing params":     New(RX, []int{0}),
		"unexpected params":  New(H, []int{0}, 1.0),
		"wrong param count":  New(U3, []int{0}, 1.0, 2.0),
		"wrong target count": {Kind: SWAP, Targets: []int{0}},
		"bad batch rows":     {Kind: RY, Targets: []int{0}, Params: [][]float64{{1}, {2}, {3}}},
		"unknown kind":       {Kind: Kind(999), Targets: []int{0}},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			err := spec.Validate(4, 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, qerr.ErrConfig))
		})
	}

	batched := GateSpec{Kind: RY, Targets: []int{0}, Params: [][]float64{{1}, {2}}}
	require.NoError(t, batched.Validate(1, 2))
	assert.True(t, batched.Batched())
	assert.Len(t, batched.Matrices(), 2)
}

func TestInverse(t *testing.T) {
	g := New(RX, []int{0}, 0.7)
	g.Inverse = true
	m := g.Matrices()[0]
	assert.True(t, m.Mul(RX.Matrix([]float64{0.7})).ApproxEqual(I.Matrix(nil), 1e-12))
}

func TestCloneIsolatesParams(t *testing.T) {
	params := []float64{0.1}
	g := New(RY, []int{0}, params...)
	c := g.Clone()
	g.Params[0][0] = 5
	assert.Equal(t, 0.1, c.Params[0][0])
}

func TestDerivative_MatchesFiniteDifference(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Parameterized() {
			continue
		}
		params := sampleParams(k)
		for i := 0; i < k.NumParams(); i++ {
			d, err := Derivative(k, params, i)
			require.NoError(t, err)

			const h = 1e-5
			plus := append([]float64(nil), params...)
			minus := append([]float64(nil), params...)
			plus[i] += h
			minus[i] -= h
			up, down := k.Matrix(plus), k.Matrix(minus)
			for j := range d.Data {
				fd := (up.Data[j] - down.Data[j]) / complex(2*h, 0)
				assert.InDelta(t, real(fd), real(d.Data[j]), 1e-6, "%s param %d", k, i)
				assert.InDelta(t, imag(fd), imag(d.Data[j]), 1e-6, "%s param %d", k, i)
			}
		}
	}

	_, err := Derivative(H, nil, 0)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestShiftRule(t *testing.T) {
	assert.True(t, ShiftRule(RY))
	assert.True(t, ShiftRule(RZZ))
	assert.False(t, ShiftRule(CRX))
	assert.False(t, ShiftRule(H))
}
