package qnn

import (
	"fmt"
	"slices"

	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// EncoderOp loads one input feature as the angle of a gate. Input is -1
// for gates without a feature.
type EncoderOp struct {
	Kind  gates.Kind
	Wires []int
	Input int
}

// EncoderOpLists holds the named encoding schemes.
var EncoderOpLists = map[string][]EncoderOp{
	"4x4_ryzxy": rotationBlocks(4, gates.RY, gates.RZ, gates.RX, gates.RY),
	"4x4_rzsx":  rzsxBlocks(4, 4),
	"2x8_ryzxyzxyz": rotationBlocks(2,
		gates.RY, gates.RZ, gates.RX, gates.RY, gates.RZ, gates.RX, gates.RY, gates.RZ),
}

// rotationBlocks applies one block per kind, each block a rotation on
// every wire with consecutive features.
func rotationBlocks(nWires int, kinds ...gates.Kind) []EncoderOp {
	var ops []EncoderOp
	for _, k := range kinds {
		for w := 0; w < nWires; w++ {
			ops = append(ops, EncoderOp{Kind: k, Wires: []int{w}, Input: len(ops)})
		}
	}
	return ops
}

// rzsxBlocks alternates RZ feature layers with fixed SX layers.
func rzsxBlocks(nWires, blocks int) []EncoderOp {
	var ops []EncoderOp
	feature := 0
	for b := 0; b < blocks; b++ {
		for w := 0; w < nWires; w++ {
			ops = append(ops, EncoderOp{Kind: gates.RZ, Wires: []int{w}, Input: feature})
			feature++
		}
		if b == blocks-1 {
			break
		}
		for w := 0; w < nWires; w++ {
			ops = append(ops, EncoderOp{Kind: gates.SX, Wires: []int{w}, Input: -1})
		}
	}
	return ops
}

// Encoder writes classical features into rotation angles.
type Encoder struct {
	Name string
	Ops  []EncoderOp
}

// NewEncoder returns the named encoder from EncoderOpLists.
func NewEncoder(name string) (*Encoder, error) {
	ops, ok := EncoderOpLists[name]
	if !ok {
		return nil, qerr.Config("qnn.NewEncoder", "unknown encoder %q", name)
	}
	return &Encoder{Name: name, Ops: slices.Clone(ops)}, nil
}

// Features returns the number of input features consumed.
func (e *Encoder) Features() int {
	n := 0
	for _, op := range e.Ops {
		n = max(n, op.Input+1)
	}
	return n
}

// Encode applies the encoder to dev with one feature row per batch
// element.
func (e *Encoder) Encode(dev *device.Device, x [][]float64) error {
	const op = "qnn.Encoder.Encode"
	if len(x) != dev.Batch() {
		return qerr.Config(op, "%d input rows for batch of %d", len(x), dev.Batch())
	}
	need := e.Features()
	for b, row := range x {
		if len(row) < need {
			return qerr.Config(op, "row %d has %d features, %s needs %d", b, len(row), e.Name, need)
		}
	}
	for i, eo := range e.Ops {
		if eo.Input < 0 {
			if err := dev.Gate(eo.Kind, eo.Wires); err != nil {
				return fmt.Errorf("encoder op %d: %w", i, err)
			}
			continue
		}
		rows := make([][]float64, len(x))
		for b, row := range x {
			rows[b] = []float64{row[eo.Input]}
		}
		if err := dev.GateBatched(eo.Kind, eo.Wires, rows, false); err != nil {
			return fmt.Errorf("encoder op %d: %w", i, err)
		}
	}
	return nil
}
