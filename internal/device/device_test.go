package device

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/metrics"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/parallel"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

func newDevice(t *testing.T, n, batch int, opts ...Option) *Device {
	t.Helper()
	d, err := New(n, batch, opts...)
	require.NoError(t, err)
	return d
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0, 1)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
	_, err = New(2, 0)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestApply_RecordsInOrder(t *testing.T) {
	d := newDevice(t, 3, 1)
	require.NoError(t, d.H(0))
	require.NoError(t, d.CNOT(0, 2))
	require.NoError(t, d.RY(1, 0.25))

	h := d.History()
	require.Equal(t, 3, h.Len())
	assert.Equal(t, gates.H, h.Op(0).Kind)
	assert.Equal(t, gates.CNOT, h.Op(1).Kind)
	assert.Equal(t, []int{0}, h.Op(1).Controls)
	assert.Equal(t, []int{2}, h.Op(1).Targets)
	assert.Equal(t, [][]float64{{0.25}}, h.Op(2).Params)
	assert.Equal(t, 3, h.NWires())
}

func TestApply_RecordingOff(t *testing.T) {
	d := newDevice(t, 1, 1, WithRecording(false))
	require.NoError(t, d.X(0))
	assert.Zero(t, d.History().Len())

	d.SetRecording(true)
	require.NoError(t, d.X(0))
	assert.Equal(t, 1, d.History().Len())
}

func TestApply_ValidatesWires(t *testing.T) {
	d := newDevice(t, 2, 1)
	err := d.CNOT(0, 2)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
	err = d.CNOT(1, 1)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
	assert.Zero(t, d.History().Len(), "rejected gates are not recorded")
}

func TestApply_HistoryIsolatedFromCallerSlices(t *testing.T) {
	d := newDevice(t, 1, 2)
	params := [][]float64{{0.1}, {0.2}}
	require.NoError(t, d.GateBatched(gates.RX, []int{0}, params, true))
	params[0][0] = 9

	op := d.History().Op(0)
	assert.Equal(t, 0.1, op.Params[0][0])
	assert.True(t, op.Trainable)
	assert.Equal(t, 2, d.History().Batch())
}

func TestResetOpHistory_Idempotent(t *testing.T) {
	d := newDevice(t, 2, 1)
	require.NoError(t, d.H(0))
	before, err := d.States1D()
	require.NoError(t, err)

	d.ResetOpHistory()
	assert.Zero(t, d.History().Len())
	d.ResetOpHistory()
	assert.Zero(t, d.History().Len())

	after, err := d.States1D()
	require.NoError(t, err)
	assert.Equal(t, before, after, "state vector is untouched")
}

func TestSegment(t *testing.T) {
	d := newDevice(t, 2, 1)
	require.NoError(t, d.RY(0, 0.3))
	require.NoError(t, d.RY(1, 0.4))
	enc := d.Segment()
	require.NoError(t, d.CNOT(0, 1))

	assert.True(t, enc.Frozen())
	assert.Equal(t, 2, enc.Len())
	assert.Equal(t, 1, d.History().Len())
	assert.False(t, d.History().Frozen())
}

func TestLifecycle(t *testing.T) {
	d := newDevice(t, 2, 1)
	assert.Equal(t, Building, d.State())

	err := d.MarkExecuted()
	assert.True(t, errors.Is(err, qerr.ErrState), "cannot skip frozen")

	require.NoError(t, d.H(0))
	require.NoError(t, d.Freeze())
	assert.Equal(t, Frozen, d.State())
	assert.True(t, d.History().Frozen())

	err = d.X(1)
	assert.True(t, errors.Is(err, qerr.ErrState))
	assert.True(t, errors.Is(d.Freeze(), qerr.ErrState))

	require.NoError(t, d.MarkExecuted())
	assert.Equal(t, Executed, d.State())

	d.Close()
	assert.Equal(t, Terminal, d.State())
	assert.Nil(t, d.StateVector())
	_, err = d.ExpvalZ()
	assert.True(t, errors.Is(err, qerr.ErrState))
	_, err = d.States1D()
	assert.True(t, errors.Is(err, qerr.ErrState))

	require.NoError(t, d.Reset())
	assert.Equal(t, Building, d.State())
	assert.Zero(t, d.History().Len())
	states, err := d.States1D()
	require.NoError(t, err)
	assert.Equal(t, complex(1, 0), states[0][0])
}

func TestMeasure_PassesThroughFrozen(t *testing.T) {
	d := newDevice(t, 2, 1)
	require.NoError(t, d.X(0))

	z, err := d.ExpvalZ()
	require.NoError(t, err)
	assert.Equal(t, Executed, d.State())
	assert.True(t, d.History().Frozen())
	assert.InDelta(t, -1, z[0][0], 1e-12)
	assert.InDelta(t, 1, z[0][1], 1e-12)

	// Results stay readable after execution.
	res, err := d.Expval("ZZ", "IZ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZ", "IZ"}, res.Observables)
	assert.InDelta(t, -1, res.Values[0][0], 1e-12)
	assert.Equal(t, expval.MethodAnalytic, res.Method)
}

func TestExpvalZ_Batched(t *testing.T) {
	d := newDevice(t, 1, 3)
	thetas := [][]float64{{0}, {math.Pi / 2}, {math.Pi}}
	require.NoError(t, d.GateBatched(gates.RY, []int{0}, thetas, false))
	z, err := d.ExpvalZ()
	require.NoError(t, err)
	assert.InDelta(t, 1, z[0][0], 1e-12)
	assert.InDelta(t, 0, z[1][0], 1e-12)
	assert.InDelta(t, -1, z[2][0], 1e-12)
}

// With noise disabled, replaying the same sequence must give bit-identical
// amplitudes regardless of parallelism.
func TestNoiseOffDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	type step struct {
		kind   gates.Kind
		wires  []int
		params []float64
	}
	var seq []step
	pool := []gates.Kind{gates.H, gates.RX, gates.RY, gates.RZ, gates.CNOT, gates.CRX, gates.U3, gates.SWAP}
	for i := 0; i < 60; i++ {
		k := pool[rng.Intn(len(pool))]
		wires := rng.Perm(4)[:k.NumWires()]
		params := make([]float64, k.NumParams())
		for j := range params {
			params[j] = rng.Float64() * 2 * math.Pi
		}
		seq = append(seq, step{k, wires, params})
	}

	model := noise.New(noise.FakeQuito())
	model.SetEnabled(false)

	run := func(par parallel.Config) [][]complex128 {
		d := newDevice(t, 4, 8, WithParallel(par), WithNoise(model), WithSeed(3))
		for _, s := range seq {
			require.NoError(t, d.Gate(s.kind, s.wires, s.params...))
		}
		states, err := d.States1D()
		require.NoError(t, err)
		return states
	}

	first := run(parallel.Sequential())
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run(parallel.Sequential()))
	}
	assert.Equal(t, first, run(parallel.Config{Enabled: true, NumWorkers: 4, MinWork: 1}))
	assert.Zero(t, model.Counters().Total())
}

func TestSetNoisy_DoesNotRewriteHistory(t *testing.T) {
	model := noise.New(noise.FakeQuito(), noise.WithFactor(100))
	d := newDevice(t, 2, 4, WithNoise(model), WithSeed(1))

	d.SetNoisy(false)
	require.NoError(t, d.H(0))
	require.NoError(t, d.CNOT(0, 1))
	assert.Zero(t, model.Counters().Total())

	d.SetNoisy(true)
	require.NoError(t, d.CNOT(0, 1))
	assert.Greater(t, model.Counters().Total(), int64(0))

	h := d.History()
	require.Equal(t, 3, h.Len())
	assert.Equal(t, gates.CNOT, h.Op(2).Kind, "only the ideal gate is recorded")
}

func TestReset_RestartsNoiseClocks(t *testing.T) {
	model := noise.New(noise.FakeQuito())
	d := newDevice(t, 2, 1, WithNoise(model))
	require.NoError(t, d.SX(0))
	assert.Greater(t, d.NoiseSession().Clock(0), 0.0)

	require.NoError(t, d.Reset())
	assert.Zero(t, d.NoiseSession().Clock(0))
}

func TestSample(t *testing.T) {
	d := newDevice(t, 2, 1)
	require.NoError(t, d.X(0))
	counts, err := d.Sample(100, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{statevec.Index([]int{1, 0}): 100}, counts[0])

	_, err = d.Sample(0, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}

func TestSample_ReadoutNoise(t *testing.T) {
	model := noise.New(noise.FakeQuito())
	d := newDevice(t, 1, 1, WithNoise(model), WithSeed(5))
	counts, err := d.Sample(20000, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	// Qubit 0 of the profile flips about 4% of readouts.
	flipped := float64(counts[0][1]) / 20000
	assert.InDelta(t, 0.0398, flipped, 0.01)
	assert.Equal(t, int64(counts[0][1]), model.Counters().Readout)
}

func TestFreeze_NormDrift(t *testing.T) {
	w := qerr.NewWarnings()
	m := metrics.New(nil)
	d := newDevice(t, 1, 1, WithWarnings(w), WithMetrics(m), WithNormCheck(1e-10, 0.5))
	require.NoError(t, d.StateVector().SetAmplitudes(0, []complex128{1.001, 0}, 1))

	require.NoError(t, d.Freeze())
	assert.Equal(t, 1, w.Total())

	d2 := newDevice(t, 1, 1, WithWarnings(w), WithNormCheck(1e-10, 1e-3))
	require.NoError(t, d2.StateVector().SetAmplitudes(0, []complex128{2, 0}, 5))
	err := d2.Freeze()
	assert.True(t, errors.Is(err, qerr.ErrNumeric))
	assert.Equal(t, 2, w.Total())
}
