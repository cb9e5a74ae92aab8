package device

import (
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// OperationHistory is the ordered log of gate invocations of one circuit
// segment. Replay order is invocation order; entries are never reordered.
type OperationHistory struct {
	nWires int
	ops    []gates.GateSpec
	frozen bool
}

// NewHistory returns an empty, open history.
func NewHistory(nWires int) *OperationHistory {
	return &OperationHistory{nWires: nWires}
}

// NWires returns the wire count of the device that produced the history.
func (h *OperationHistory) NWires() int { return h.nWires }

// Len returns the number of recorded gates.
func (h *OperationHistory) Len() int { return len(h.ops) }

// Op returns the i-th recorded gate.
func (h *OperationHistory) Op(i int) gates.GateSpec { return h.ops[i] }

// Ops returns the recorded gates. The slice must not be modified.
func (h *OperationHistory) Ops() []gates.GateSpec { return h.ops }

// Frozen reports whether the history is closed for appending.
func (h *OperationHistory) Frozen() bool { return h.frozen }

// Freeze closes the history.
func (h *OperationHistory) Freeze() { h.frozen = true }

// Append records a gate. The spec is cloned so later changes to the
// caller's slices cannot rewrite history.
func (h *OperationHistory) Append(spec gates.GateSpec) error {
	if h.frozen {
		return qerr.State("device.OperationHistory.Append", "history is frozen")
	}
	h.ops = append(h.ops, spec.Clone())
	return nil
}

// Reset empties and reopens the history. Calling it repeatedly is a
// no-op.
func (h *OperationHistory) Reset() {
	h.ops = nil
	h.frozen = false
}

// Clone returns a deep copy.
func (h *OperationHistory) Clone() *OperationHistory {
	c := &OperationHistory{nWires: h.nWires, frozen: h.frozen}
	if h.ops != nil {
		c.ops = make([]gates.GateSpec, len(h.ops))
		for i, op := range h.ops {
			c.ops[i] = op.Clone()
		}
	}
	return c
}

// Batch returns the largest number of per-element parameter rows among
// the recorded gates, or 1 if every gate is shared.
func (h *OperationHistory) Batch() int {
	n := 1
	for _, op := range h.ops {
		n = max(n, len(op.Params))
	}
	return n
}
