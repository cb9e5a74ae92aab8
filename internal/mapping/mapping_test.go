package mapping

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	m := Identity(4)
	require.NoError(t, m.Check())
	assert.Equal(t, 2, m.Physical(2))
	c, ok := m.Classical(3)
	assert.True(t, ok)
	assert.Equal(t, 3, c)
	assert.Equal(t, []int{0, 1, 2, 3}, m.Wires())
}

func TestNew_RejectsNonBijective(t *testing.T) {
	_, err := New(map[int]int{0: 1, 1: 1}, nil, nil)
	assert.True(t, errors.Is(err, qerr.ErrConfig))

	_, err = New(nil, map[int]int{-1: 0}, nil)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestNew_RejectsInconsistentComposition(t *testing.T) {
	// p0 holds v1 and v1 is read from c0, so p0 must be measured into c0.
	_, err := New(
		map[int]int{1: 0, 0: 1},
		map[int]int{0: 0, 1: 1},
		map[int]int{0: 1, 1: 0},
	)
	require.NoError(t, err)

	_, err = New(
		map[int]int{1: 0, 0: 1},
		map[int]int{0: 1, 1: 0},
		map[int]int{0: 1, 1: 0},
	)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestNew_CompositionTable(t *testing.T) {
	tests := []struct {
		name          string
		v2c, p2c, p2v map[int]int
		wantErr       bool
	}{
		{"identity", map[int]int{0: 0, 1: 1}, map[int]int{0: 0, 1: 1}, map[int]int{0: 0, 1: 1}, false},
		{"layout only", nil, nil, map[int]int{1: 0, 0: 1}, false},
		{"ancilla measured", map[int]int{0: 0}, map[int]int{2: 0, 4: 1}, map[int]int{2: 0}, false},
		{"placed wire not measured", map[int]int{0: 0}, map[int]int{0: 0}, map[int]int{0: 0, 1: 1}, false},
		{"composed bit missing from p2c", map[int]int{0: 0}, map[int]int{}, map[int]int{0: 0}, true},
		{"p2c on unmeasured wire", nil, map[int]int{1: 0}, map[int]int{0: 0, 1: 1}, true},
		{"classical wire not placed", map[int]int{0: 0, 5: 1}, map[int]int{0: 0}, map[int]int{0: 0}, true},
		{"no layout", map[int]int{0: 1, 1: 0}, map[int]int{0: 1, 1: 0, 2: 2}, nil, false},
		{"no layout, composed bit missing", map[int]int{0: 0}, map[int]int{}, nil, true},
		{"crossed bits", map[int]int{0: 0, 1: 1}, map[int]int{0: 1, 1: 0}, map[int]int{0: 0, 1: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.v2c, tt.p2c, tt.p2v)
			if tt.wantErr {
				assert.True(t, errors.Is(err, qerr.ErrConfig), "got %v", err)
				return
			}
			require.NoError(t, err)
			composed := m.ComposePhysicalToClassical()
			for p := range m.P2V {
				assert.Equal(t, m.P2C[p], composed[p], "physical %d", p)
			}
		})
	}
}

// Composing virtual→classical with physical→virtual must reproduce
// physical→classical with integer equality for every valid mapping.
func TestCompositionLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		nVirtual := 1 + rng.Intn(6)
		nPhysical := nVirtual + rng.Intn(4)

		// Random placement of virtual wires onto physical qubits.
		phys := rng.Perm(nPhysical)[:nVirtual]
		p2v := make(map[int]int, nVirtual)
		for v, p := range phys {
			p2v[p] = v
		}

		// Measure every placed qubit into a random classical bit.
		clbits := rng.Perm(nVirtual)
		p2c := make(map[int]int, nVirtual)
		for i, p := range phys {
			p2c[p] = clbits[i]
		}

		m, err := FromLayout(p2v, p2c)
		require.NoError(t, err)

		composed := m.ComposePhysicalToClassical()
		require.Equal(t, len(p2c), len(composed))
		for p, c := range p2c {
			assert.Equal(t, c, composed[p], "trial %d physical %d", trial, p)
		}
		for v := 0; v < nVirtual; v++ {
			assert.Equal(t, m.P2C[m.Physical(v)], m.V2C[v])
		}
	}
}

func TestFromLayout_AncillaAndNoMeasurement(t *testing.T) {
	// Physical qubit 3 is measured but holds no virtual wire.
	m, err := FromLayout(map[int]int{2: 0, 0: 1}, map[int]int{2: 0, 0: 1, 3: 2})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 0, 1: 1}, m.V2C)
	assert.Equal(t, 2, m.Physical(0))

	empty, err := FromLayout(map[int]int{0: 0, 1: 1}, nil)
	require.NoError(t, err)
	assert.False(t, empty.HasClassical())
	assert.Empty(t, empty.V2C)
	_, ok := empty.Classical(0)
	assert.False(t, ok)
}

func TestNilMappingIsIdentity(t *testing.T) {
	var m *RegisterMapping
	assert.Equal(t, 5, m.Physical(5))
	c, ok := m.Classical(2)
	assert.True(t, ok)
	assert.Equal(t, 2, c)
	assert.False(t, m.HasClassical())
}
