package hybrid

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
	"github.com/born-ml/quantumnat/internal/translate"
)

func newProcessor(shots int, seed int64) *Processor {
	cfg := backend.DefaultExecutorConfig()
	cfg.PollInterval = time.Millisecond
	exec := backend.NewExecutor(backend.NewSimulator(), backend.WithExecutorConfig(cfg))
	return New(exec, WithShots(shots), WithSeed(seed))
}

// randomCircuit applies ops random gates that fit on n wires.
func randomCircuit(t *testing.T, dev *device.Device, rng *rand.Rand, ops int) {
	t.Helper()
	var pool []gates.Kind
	for _, k := range gates.Kinds() {
		if k.NumWires() <= dev.NWires() {
			pool = append(pool, k)
		}
	}
	for i := 0; i < ops; i++ {
		k := pool[rng.Intn(len(pool))]
		wires := rng.Perm(dev.NWires())[:k.NumWires()]
		params := make([]float64, k.NumParams())
		for j := range params {
			params[j] = (rng.Float64()*2 - 1) * math.Pi
		}
		require.NoError(t, dev.Gate(k, wires, params...))
	}
}

func randomPauli(rng *rand.Rand, n int) expval.Pauli {
	const chars = "IXYZ"
	b := make([]byte, n)
	for i := range b {
		b[i] = chars[rng.Intn(len(chars))]
	}
	b[rng.Intn(n)] = "XYZ"[rng.Intn(3)]
	return expval.MustPauli(string(b))
}

func TestRoundTrip_AnalyticMatchesBackendStatevector(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(0, 1)
	rng := rand.New(rand.NewSource(7))

	for n := 1; n <= 6; n++ {
		dev, err := device.New(n, 1)
		require.NoError(t, err)
		randomCircuit(t, dev, rng, 25)
		require.NoError(t, dev.Freeze())

		c, err := translate.FromDevice(dev)
		require.NoError(t, err)
		svs, err := proc.Statevectors(ctx, []*circuit.Circuit{c})
		require.NoError(t, err)

		local := dev.StateVector().Amplitudes(0)
		require.Len(t, svs[0], len(local))
		for i := range local {
			assert.InDelta(t, real(local[i]), real(svs[0][i]), 1e-9, "n=%d re %d", n, i)
			assert.InDelta(t, imag(local[i]), imag(svs[0][i]), 1e-9, "n=%d im %d", n, i)
		}

		remote, err := statevec.New(n, 1)
		require.NoError(t, err)
		require.NoError(t, remote.SetAmplitudes(0, svs[0], 1e-9))
		for j := 0; j < 4; j++ {
			p := randomPauli(rng, n)
			want, err := expval.Analytic(dev.StateVector(), p)
			require.NoError(t, err)
			got, err := expval.Analytic(remote, p)
			require.NoError(t, err)
			assert.InDelta(t, want[0], got[0], 1e-5, "n=%d %s", n, p)
		}
	}
}

func TestJointExpval_SampledMatchesAnalytic(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(100_000, 5)
	rng := rand.New(rand.NewSource(3))

	for n := 1; n <= 3; n++ {
		dev, err := device.New(n, 1)
		require.NoError(t, err)
		randomCircuit(t, dev, rng, 12)
		require.NoError(t, dev.Freeze())
		c, err := translate.FromDevice(dev)
		require.NoError(t, err)

		p := randomPauli(rng, n)
		want, err := expval.Analytic(dev.StateVector(), p)
		require.NoError(t, err)
		got, err := proc.JointExpval(ctx, []*circuit.Circuit{c}, p)
		require.NoError(t, err)
		assert.InDelta(t, want[0], got[0], 0.01, "n=%d %s", n, p)
	}
}

func TestEndianness_XOnWireZero(t *testing.T) {
	ctx := context.Background()
	dev, err := device.New(2, 1)
	require.NoError(t, err)
	require.NoError(t, dev.X(0))
	require.NoError(t, dev.Freeze())

	local := dev.StateVector().Amplitudes(0)
	assert.Equal(t, complex(1, 0), local[2], "wire 0 is the most significant bit")

	c, err := translate.FromDevice(dev)
	require.NoError(t, err)
	proc := newProcessor(0, 1)
	res, err := proc.Executor().Run(ctx, backend.Request{Circuits: []*circuit.Circuit{c}, Statevector: true})
	require.NoError(t, err)
	raw := res.Statevectors[0]
	assert.Equal(t, complex(1, 0), raw[1], "qubit 0 is the least significant bit")

	converted, err := statevec.ToLittleEndian(local, 2)
	require.NoError(t, err)
	assert.Equal(t, raw, converted)

	back, err := proc.Statevectors(ctx, []*circuit.Circuit{c})
	require.NoError(t, err)
	assert.Equal(t, local, back[0])
}

func TestRunDevice_BatchedWithLayout(t *testing.T) {
	ctx := context.Background()
	m, err := mapping.New(
		map[int]int{0: 0, 1: 1, 2: 2},
		map[int]int{2: 0, 0: 1, 1: 2},
		map[int]int{2: 0, 0: 1, 1: 2},
	)
	require.NoError(t, err)
	model := noise.New(noise.FakeQuito(), noise.WithMapping(m))
	model.SetEnabled(false)

	dev, err := device.New(3, 3, device.WithNoise(model))
	require.NoError(t, err)
	require.NoError(t, dev.GateBatched(gates.RY, []int{0}, [][]float64{{0.3}, {1.2}, {2.5}}, true))
	require.NoError(t, dev.RX(2, 0.9))
	require.NoError(t, dev.CNOT(0, 1))

	var want [][]float64
	for w := 0; w < 3; w++ {
		z, err := expval.Analytic(dev.StateVector(), expval.SingleZ(3, w))
		require.NoError(t, err)
		want = append(want, z)
	}

	proc := newProcessor(100_000, 9)
	got, err := proc.RunDevice(ctx, dev)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for b := range got {
		require.Len(t, got[b], 3)
		for w := range got[b] {
			assert.InDelta(t, want[w][b], got[b][w], 0.02, "batch %d wire %d", b, w)
		}
	}
	assert.Equal(t, device.Executed, dev.State())
}

func TestProcessReadyCircuits_Errors(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(10, 1)

	dev, err := device.New(2, 2)
	require.NoError(t, err)
	_, err = proc.ProcessReadyCircuits(ctx, dev, nil)
	assert.True(t, errors.Is(err, qerr.ErrState), "building device")

	require.NoError(t, dev.Freeze())
	c := circuit.New(2, 2)
	c.MeasureAll()
	_, err = proc.ProcessReadyCircuits(ctx, dev, []*circuit.Circuit{c})
	assert.True(t, errors.Is(err, qerr.ErrConfig), "one circuit for batch of two")

	partial := circuit.New(2, 1)
	partial.Measure(0, 0)
	_, err = proc.ProcessReadyCircuits(ctx, dev, []*circuit.Circuit{partial, partial})
	assert.True(t, errors.Is(err, qerr.ErrConfig), "wire 1 unmeasured")

	_, err = proc.JointExpval(ctx, []*circuit.Circuit{c}, expval.MustPauli("ZZ"))
	assert.True(t, errors.Is(err, qerr.ErrConfig), "already measured")

	dev.Close()
	_, err = proc.RunDevice(ctx, dev)
	assert.True(t, errors.Is(err, qerr.ErrState), "closed device")
}
