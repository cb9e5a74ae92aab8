package translate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qerr"
)

func recorded(t *testing.T, n, batch int, build func(d *device.Device)) *device.Device {
	t.Helper()
	d, err := device.New(n, batch)
	require.NoError(t, err)
	build(d)
	require.NoError(t, d.Freeze())
	return d
}

func TestFromHistory_RequiresFrozen(t *testing.T) {
	d, err := device.New(2, 1)
	require.NoError(t, err)
	require.NoError(t, d.H(0))

	_, err = FromHistory(d.History())
	assert.True(t, errors.Is(err, qerr.ErrState))
	_, err = FromDevice(d)
	assert.True(t, errors.Is(err, qerr.ErrState))

	d.Close()
	_, err = FromDevice(d)
	assert.True(t, errors.Is(err, qerr.ErrState))
}

func TestFromHistory_Fixed(t *testing.T) {
	d := recorded(t, 3, 2, func(d *device.Device) {
		require.NoError(t, d.H(0))
		require.NoError(t, d.CNOT(0, 2))
		require.NoError(t, d.GateBatched(gates.RX, []int{1}, [][]float64{{0.1}, {0.2}}, true))
	})

	c, err := FromDevice(d, WithBatchIndex(1), WithName("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", c.Name)
	assert.Equal(t, 3, c.NumQubits())
	assert.Zero(t, c.NumClbits())
	require.Len(t, c.Instructions, 3)

	assert.Equal(t, "h", c.Instructions[0].Name)
	assert.Equal(t, "cx", c.Instructions[1].Name)
	assert.Equal(t, []circuit.Bit{{Reg: "q", Index: 0}, {Reg: "q", Index: 2}}, c.Instructions[1].Qubits)
	assert.Equal(t, []circuit.Param{{Value: 0.2}}, c.Instructions[2].Params)

	_, err = FromHistory(d.History(), WithBatchIndex(5))
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestFromHistory_SubstitutesPhysicalQubits(t *testing.T) {
	d := recorded(t, 2, 1, func(d *device.Device) {
		require.NoError(t, d.CNOT(0, 1))
	})
	m, err := mapping.New(nil, nil, map[int]int{3: 0, 1: 1})
	require.NoError(t, err)

	c, err := FromHistory(d.History(), WithMapping(m))
	require.NoError(t, err)
	assert.Equal(t, 4, c.NumQubits())
	assert.Equal(t, []circuit.Bit{{Reg: "q", Index: 3}, {Reg: "q", Index: 1}}, c.Instructions[0].Qubits)
	assert.Equal(t, map[int]int{3: 0, 1: 1}, c.Layout)
}

func TestFromHistoryParameterized(t *testing.T) {
	rows := [][]float64{{0.1}, {0.2}, {0.3}}
	d := recorded(t, 2, 3, func(d *device.Device) {
		require.NoError(t, d.GateBatched(gates.RY, []int{0}, rows, false))
		require.NoError(t, d.RZ(1, 0.5))
		require.NoError(t, d.GateBatched(gates.CRX, []int{0, 1}, rows, true))
	})

	c, bindings, err := FromHistoryParameterized(d.History(), 3)
	require.NoError(t, err)
	require.Len(t, bindings, 3)
	assert.Equal(t, []string{ParamName(0, 0), ParamName(2, 0)}, c.Parameters())
	assert.Equal(t, []circuit.Param{{Value: 0.5}}, c.Instructions[1].Params, "shared parameter baked in")
	assert.Equal(t, 0.3, bindings[2][ParamName(2, 0)])

	expanded, err := FromHistoryExpand(d.History(), 3)
	require.NoError(t, err)
	for b := range bindings {
		bound, err := c.Bind(bindings[b])
		require.NoError(t, err)
		assert.Equal(t, expanded[b].Instructions, bound.Instructions, "batch %d", b)
	}

	_, _, err = FromHistoryParameterized(d.History(), 2)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestToHistory_RoundTrip(t *testing.T) {
	d := recorded(t, 3, 1, func(d *device.Device) {
		require.NoError(t, d.H(2))
		require.NoError(t, d.U3(0, 0.1, 0.2, 0.3))
		require.NoError(t, d.CRX(2, 1, 0.4))
		require.NoError(t, d.Gate(gates.CCX, []int{0, 1, 2}))
	})
	c, err := FromHistory(d.History())
	require.NoError(t, err)

	hist, m, err := ToHistory(c)
	require.NoError(t, err)
	assert.True(t, hist.Frozen())
	require.Equal(t, d.History().Len(), hist.Len())
	for i, want := range d.History().Ops() {
		got := hist.Op(i)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Targets, got.Targets)
		assert.Equal(t, want.Controls, got.Controls)
		assert.Equal(t, want.Params, got.Params)
	}
	assert.False(t, m.HasClassical(), "no measurements, no classical side")
	assert.Empty(t, m.V2C)
}

func TestToHistory_InfersMappingFromTranspiledCircuit(t *testing.T) {
	c := circuit.New(3, 3)
	c.Append("h", []int{0})
	c.Append("cx", []int{0, 1})
	c.Append("rz", []int{2}, 0.7)
	c.MeasureAll()

	tc, err := circuit.Transpile(c, []int{2, 4, 0})
	require.NoError(t, err)

	hist, m, err := ToHistory(tc)
	require.NoError(t, err)
	assert.Equal(t, 5, hist.NWires())
	assert.Equal(t, []int{2}, hist.Op(0).Targets)

	assert.Equal(t, map[int]int{2: 0, 4: 1, 0: 2}, m.P2C)
	assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 2}, m.V2C)
	assert.Equal(t, 4, m.Physical(1))
	for p, cl := range m.P2C {
		assert.Equal(t, cl, m.V2C[m.P2V[p]])
	}

	virt, err := ToVirtual(hist, m, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, virt.Op(1).Controls)
	assert.Equal(t, []int{1}, virt.Op(1).Targets)
	assert.Equal(t, []int{2}, virt.Op(2).Targets)
}

func TestToHistory_Errors(t *testing.T) {
	unbound := circuit.New(1, 0)
	unbound.AppendInstruction(circuit.Instruction{Name: "rx", Qubits: []circuit.Bit{{Reg: "q"}}, Params: []circuit.Param{{Symbol: "a"}}})
	_, _, err := ToHistory(unbound)
	assert.True(t, errors.Is(err, qerr.ErrConfig))

	unknown := circuit.New(1, 0)
	unknown.Append("warp", []int{0})
	_, _, err = ToHistory(unknown)
	assert.True(t, errors.Is(err, qerr.ErrConfig))

	mid := circuit.New(1, 1)
	mid.Measure(0, 0)
	mid.Append("x", []int{0})
	_, _, err = ToHistory(mid)
	assert.True(t, errors.Is(err, qerr.ErrConfig))

	arity := circuit.New(2, 0)
	arity.Append("cx", []int{0})
	_, _, err = ToHistory(arity)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestInverseTranslation(t *testing.T) {
	specs := []gates.GateSpec{
		gates.New(gates.S, []int{0}),
		gates.New(gates.SX, []int{1}),
		gates.New(gates.RX, []int{0}, 0.4),
		gates.New(gates.U2, []int{1}, 0.3, -0.9),
		gates.New(gates.U3, []int{0}, 0.1, 0.5, 1.2),
		gates.New(gates.CP, []int{0, 1}, 0.8),
	}
	for _, spec := range specs {
		inv := spec.Clone()
		inv.Inverse = true

		d := recorded(t, 2, 1, func(d *device.Device) {
			require.NoError(t, d.Apply(spec))
			require.NoError(t, d.Apply(inv))
		})
		c, err := FromHistory(d.History())
		require.NoError(t, err)
		hist, _, err := ToHistory(c)
		require.NoError(t, err)

		replay, err := device.New(2, 1)
		require.NoError(t, err)
		require.NoError(t, ReplayHistory(replay, hist))
		states, err := replay.States1D()
		require.NoError(t, err)
		assert.InDelta(t, 1, real(states[0][0]), 1e-12, spec.Kind.String())
		assert.InDelta(t, 0, imag(states[0][0]), 1e-12, spec.Kind.String())
	}
}

func TestMeasurementCircuit(t *testing.T) {
	c := MeasurementCircuit(2, nil)
	require.Len(t, c.Instructions, 2)
	assert.Equal(t, []circuit.Bit{{Reg: "c", Index: 1}}, c.Instructions[1].Clbits)

	m, err := mapping.New(map[int]int{0: 1, 1: 0}, map[int]int{3: 1, 0: 0}, map[int]int{3: 0, 0: 1})
	require.NoError(t, err)
	c = MeasurementCircuit(2, m)
	assert.Equal(t, 4, c.NumQubits())
	assert.Equal(t, []circuit.Bit{{Reg: "q", Index: 3}}, c.Instructions[0].Qubits)
	assert.Equal(t, []circuit.Bit{{Reg: "c", Index: 1}}, c.Instructions[0].Clbits)

	_, inferred, err := ToHistory(c)
	require.NoError(t, err)
	assert.Equal(t, m.V2C, inferred.V2C)
}

func TestReplayHistory(t *testing.T) {
	d := recorded(t, 2, 1, func(d *device.Device) {
		require.NoError(t, d.RY(0, math.Pi/3))
		require.NoError(t, d.CNOT(0, 1))
	})
	want, err := d.States1D()
	require.NoError(t, err)

	replay, err := device.New(2, 1)
	require.NoError(t, err)
	require.NoError(t, ReplayHistory(replay, d.History()))
	got, err := replay.States1D()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	small, err := device.New(1, 1)
	require.NoError(t, err)
	assert.True(t, errors.Is(ReplayHistory(small, d.History()), qerr.ErrConfig))
}
