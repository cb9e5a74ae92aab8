package qnn

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/hybrid"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// QFC model defaults.
const (
	QFCWires          = 4
	DefaultQFCEncoder = "4x4_ryzxy"
	DefaultRandomOps  = 50
)

// QFCModel is the four-wire classifier: an angle encoder, a trainable
// layer and a Z measurement on every wire reduced to two logits.
//
// A model is not safe for concurrent use.
type QFCModel struct {
	encoder *Encoder
	layer   Module
	measure *MeasureAll

	noise   *noise.Model
	proc    *hybrid.Processor
	devOpts []device.Option

	seed   int64
	evals  int64
	logger *slog.Logger
}

type modelConfig struct {
	seed      int64
	randomOps int
	encoder   string
	devOpts   []device.Option
	logger    *slog.Logger
}

// ModelOption configures a QFCModel.
type ModelOption func(*modelConfig)

// WithModelSeed seeds layer initialization and noise sessions.
func WithModelSeed(seed int64) ModelOption {
	return func(c *modelConfig) { c.seed = seed }
}

// WithRandomOps sets the size of the random layer.
func WithRandomOps(n int) ModelOption {
	return func(c *modelConfig) { c.randomOps = n }
}

// WithEncoderName selects an entry of EncoderOpLists.
func WithEncoderName(name string) ModelOption {
	return func(c *modelConfig) { c.encoder = name }
}

// WithDeviceOptions passes options to every device the model creates.
func WithDeviceOptions(opts ...device.Option) ModelOption {
	return func(c *modelConfig) { c.devOpts = append(c.devOpts, opts...) }
}

// WithModelLogger sets the logger.
func WithModelLogger(l *slog.Logger) ModelOption {
	return func(c *modelConfig) { c.logger = l }
}

// NewQFCModel builds the classifier with freshly initialized weights.
func NewQFCModel(opts ...ModelOption) (*QFCModel, error) {
	cfg := modelConfig{
		randomOps: DefaultRandomOps,
		encoder:   DefaultQFCEncoder,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	enc, err := NewEncoder(cfg.encoder)
	if err != nil {
		return nil, err
	}
	layer, err := NewQFCLayer(cfg.randomOps, cfg.seed)
	if err != nil {
		return nil, err
	}
	return &QFCModel{
		encoder: enc,
		layer:   layer,
		measure: NewMeasureAll(),
		devOpts: cfg.devOpts,
		seed:    cfg.seed,
		logger:  cfg.logger,
	}, nil
}

// NewQFCLayer returns the default trainable layer: a random layer over
// all four wires followed by rx(0), ry(1), rz(3), crx(0,2), h(3), sx(2)
// and cnot(3,0).
func NewQFCLayer(randomOps int, seed int64) (Sequential, error) {
	wires := []int{0, 1, 2, 3}
	random, err := NewRandomLayer(randomOps, wires, seed)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed + 1))
	layer := Sequential{random}
	for _, t := range []struct {
		name  string
		kind  gates.Kind
		wires []int
	}{
		{"rx0", gates.RX, []int{0}},
		{"ry0", gates.RY, []int{1}},
		{"rz0", gates.RZ, []int{3}},
		{"crx0", gates.CRX, []int{0, 2}},
	} {
		op, err := NewTrainableOp(t.name, t.kind, t.wires, rng)
		if err != nil {
			return nil, err
		}
		layer = append(layer, op)
	}
	return append(layer,
		NewFixedOp(gates.H, []int{3}),
		NewFixedOp(gates.SX, []int{2}),
		NewFixedOp(gates.CNOT, []int{3, 0}),
	), nil
}

// Encoder returns the input encoder.
func (m *QFCModel) Encoder() *Encoder { return m.encoder }

// Layer returns the trainable layer.
func (m *QFCModel) Layer() Module { return m.layer }

// ReplaceLayer swaps the trainable layer.
func (m *QFCModel) ReplaceLayer(layer Module) { m.layer = layer }

// Measure returns the measurement stage.
func (m *QFCModel) Measure() *MeasureAll { return m.measure }

// Parameters returns the trainable parameters.
func (m *QFCModel) Parameters() []*Parameter { return m.layer.Parameters() }

// NoiseModel returns the attached noise model, possibly nil.
func (m *QFCModel) NoiseModel() *noise.Model { return m.noise }

// SetNoiseModel attaches nm to every device the model creates and orders
// measurement columns by its mapping. Nil detaches.
func (m *QFCModel) SetNoiseModel(nm *noise.Model) {
	m.noise = nm
	if nm == nil {
		m.measure.SetMapping(nil)
		return
	}
	m.measure.SetMapping(nm.Mapping())
}

// SetProcessor sets the processor used when Forward runs on a backend.
func (m *QFCModel) SetProcessor(p *hybrid.Processor) { m.proc = p }

// Processor returns the backend processor, possibly nil.
func (m *QFCModel) Processor() *hybrid.Processor { return m.proc }

// Forward encodes x, applies the layer and returns (batch, 2)
// log-probabilities. With useBackend the recorded circuit runs on the
// processor's backend; the noise model then only supplies the mapping.
func (m *QFCModel) Forward(ctx context.Context, x [][]float64, useBackend bool) ([][]float64, error) {
	const op = "qnn.QFCModel.Forward"
	if len(x) == 0 {
		return nil, qerr.Config(op, "empty batch")
	}
	if useBackend && m.proc == nil {
		return nil, qerr.Config(op, "no processor configured for backend execution")
	}

	dev, err := m.newDevice(len(x), useBackend)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	if err := m.encoder.Encode(dev, x); err != nil {
		return nil, err
	}
	if err := m.layer.Forward(dev); err != nil {
		return nil, err
	}

	var z [][]float64
	if useBackend {
		raw, err := m.proc.RunDevice(ctx, dev)
		if err != nil {
			return nil, err
		}
		z = m.measure.Reorder(raw)
	} else {
		z, err = m.measure.Measure(dev)
		if err != nil {
			return nil, err
		}
	}
	m.logger.Debug("qfc forward",
		slog.Int("batch", len(x)),
		slog.Bool("backend", useBackend),
		slog.Int("ops", dev.History().Len()))
	return LogSoftmax(PairSums(z)), nil
}

// Loss returns the mean NLL of Forward on (x, targets).
func (m *QFCModel) Loss(ctx context.Context, x [][]float64, targets []int, useBackend bool) (float64, error) {
	logp, err := m.Forward(ctx, x, useBackend)
	if err != nil {
		return 0, err
	}
	return NLLLoss(logp, targets)
}

func (m *QFCModel) newDevice(batch int, useBackend bool) (*device.Device, error) {
	opts := slices.Clone(m.devOpts)
	opts = append(opts, device.WithSeed(m.seed+m.evals))
	m.evals++
	if m.noise != nil {
		opts = append(opts, device.WithNoise(m.noise))
	}
	dev, err := device.New(QFCWires, batch, opts...)
	if err != nil {
		return nil, err
	}
	if useBackend {
		dev.SetNoisy(false)
	}
	return dev, nil
}

// PairSums splits each row in two halves and sums each half, turning
// per-wire ⟨Z⟩ into two logits.
func PairSums(z [][]float64) [][]float64 {
	out := make([][]float64, len(z))
	for b, row := range z {
		half := len(row) / 2
		var lo, hi float64
		for i, v := range row {
			if i < half {
				lo += v
			} else {
				hi += v
			}
		}
		out[b] = []float64{lo, hi}
	}
	return out
}
