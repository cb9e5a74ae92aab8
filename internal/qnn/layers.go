package qnn

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/translate"
)

// DefaultRandomPool is the gate pool of a RandomLayer built without one.
var DefaultRandomPool = []gates.Kind{gates.RX, gates.RY, gates.RZ, gates.CNOT}

// RandomLayer is a fixed random sequence of gates drawn from a pool. The
// sequence depends only on the seed; parameterized gates are trainable.
type RandomLayer struct {
	ops []*Op
}

// NewRandomLayer draws nOps gates from pool onto random distinct wires.
func NewRandomLayer(nOps int, wires []int, seed int64, pool ...gates.Kind) (*RandomLayer, error) {
	const op = "qnn.NewRandomLayer"
	if nOps < 0 {
		return nil, qerr.Config(op, "negative op count %d", nOps)
	}
	if len(pool) == 0 {
		pool = DefaultRandomPool
	}
	for _, k := range pool {
		if k.NumWires() > len(wires) {
			return nil, qerr.Config(op, "%s needs %d wires, layer has %d", k, k.NumWires(), len(wires))
		}
	}

	rng := rand.New(rand.NewSource(seed))
	l := &RandomLayer{ops: make([]*Op, 0, nOps)}
	for i := 0; i < nOps; i++ {
		k := pool[rng.Intn(len(pool))]
		perm := rng.Perm(len(wires))[:k.NumWires()]
		ws := make([]int, len(perm))
		for j, p := range perm {
			ws[j] = wires[p]
		}
		if !k.Parameterized() {
			l.ops = append(l.ops, NewFixedOp(k, ws))
			continue
		}
		o, err := NewTrainableOp(fmt.Sprintf("random.%d.%s", i, k), k, ws, rng)
		if err != nil {
			return nil, err
		}
		l.ops = append(l.ops, o)
	}
	return l, nil
}

// Ops returns the drawn gates.
func (l *RandomLayer) Ops() []*Op { return l.ops }

// Forward implements Module.
func (l *RandomLayer) Forward(dev *device.Device) error {
	for i, o := range l.ops {
		if err := o.Forward(dev); err != nil {
			return fmt.Errorf("random op %d: %w", i, err)
		}
	}
	return nil
}

// Parameters implements Module.
func (l *RandomLayer) Parameters() []*Parameter {
	var out []*Parameter
	for _, o := range l.ops {
		out = append(out, o.Parameters()...)
	}
	return out
}

// HistoryLayer replays a recorded or translated gate sequence. Every
// parameterized gate becomes trainable, initialized from its recorded
// values.
type HistoryLayer struct {
	specs  []gates.GateSpec
	params []*Parameter
}

// NewHistoryLayer builds a layer from hist. Gates recorded with
// per-batch parameters are rejected since layer weights are shared.
func NewHistoryLayer(hist *device.OperationHistory) (*HistoryLayer, error) {
	l := &HistoryLayer{}
	for i, spec := range hist.Ops() {
		if spec.Batched() {
			return nil, qerr.Config("qnn.NewHistoryLayer", "op %d (%s) has per-batch parameters", i, spec.Kind)
		}
		s := spec.Clone()
		s.Trainable = false
		var p *Parameter
		if s.Kind.Parameterized() {
			p = NewParameter(fmt.Sprintf("history.%d.%s", i, s.Kind), s.Kind, s.Row(0)...)
		}
		l.specs = append(l.specs, s)
		l.params = append(l.params, p)
	}
	return l, nil
}

// FromCircuit builds a layer from a possibly transpiled circuit. Gates are
// moved back onto virtual wires, and the returned mapping is the one the
// circuit's layout and measurements imply.
func FromCircuit(c *circuit.Circuit) (*HistoryLayer, *mapping.RegisterMapping, error) {
	hist, m, err := translate.ToHistory(c)
	if err != nil {
		return nil, nil, err
	}
	virtual, err := translate.ToVirtual(hist, m, len(m.P2V))
	if err != nil {
		return nil, nil, err
	}
	l, err := NewHistoryLayer(virtual)
	if err != nil {
		return nil, nil, err
	}
	return l, m, nil
}

// Len returns the number of gates.
func (l *HistoryLayer) Len() int { return len(l.specs) }

// Forward implements Module.
func (l *HistoryLayer) Forward(dev *device.Device) error {
	for i, spec := range l.specs {
		s := spec.Clone()
		if p := l.params[i]; p != nil {
			s.Params = [][]float64{slices.Clone(p.Values)}
			s.Trainable = true
		}
		if err := dev.Apply(s); err != nil {
			return fmt.Errorf("history op %d: %w", i, err)
		}
	}
	return nil
}

// Parameters implements Module.
func (l *HistoryLayer) Parameters() []*Parameter {
	var out []*Parameter
	for _, p := range l.params {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
