// Package circuit is the external circuit boundary: an ordered
// instruction list over named quantum and classical registers.
//
// Qubits and classical bits are addressed by (register, index) pairs; a
// register's bits are numbered globally in declaration order. Instruction
// parameters are either numeric or named placeholders that a Binding
// resolves before execution. Hardware compilation is modeled by
// Transpile, which records the physical-to-virtual layout it chose.
package circuit

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// Instruction names with special handling.
const (
	OpMeasure = "measure"
	OpBarrier = "barrier"
)

// Register is a named group of qubits or classical bits.
type Register struct {
	Name string
	Size int
}

// Bit addresses one bit of a register.
type Bit struct {
	Reg   string
	Index int
}

// Param is one instruction parameter: numeric when Symbol is empty.
type Param struct {
	Value  float64
	Symbol string
}

// Symbolic reports whether the parameter is a placeholder.
func (p Param) Symbolic() bool { return p.Symbol != "" }

func (p Param) String() string {
	if p.Symbolic() {
		return p.Symbol
	}
	return fmt.Sprintf("%g", p.Value)
}

// Instruction is one gate, measurement or barrier.
type Instruction struct {
	Name   string
	Qubits []Bit
	Clbits []Bit
	Params []Param
}

// Circuit is an instruction list over registers.
type Circuit struct {
	Name         string
	QRegs        []Register
	CRegs        []Register
	Instructions []Instruction

	// Layout maps physical qubit to virtual wire. Nil until Transpile runs.
	Layout map[int]int
}

// Binding assigns values to placeholder symbols.
type Binding map[string]float64

// Default register names.
const (
	QRegName = "q"
	CRegName = "c"
)

// New creates a circuit with one quantum register "q" and, when nClbits >
// 0, one classical register "c".
func New(nQubits, nClbits int) *Circuit {
	c := &Circuit{Name: "circuit-" + uuid.NewString()[:8]}
	if nQubits > 0 {
		c.QRegs = []Register{{Name: QRegName, Size: nQubits}}
	}
	if nClbits > 0 {
		c.CRegs = []Register{{Name: CRegName, Size: nClbits}}
	}
	return c
}

// NumQubits returns the total qubit count.
func (c *Circuit) NumQubits() int { return regSize(c.QRegs) }

// NumClbits returns the total classical bit count.
func (c *Circuit) NumClbits() int { return regSize(c.CRegs) }

func regSize(regs []Register) int {
	n := 0
	for _, r := range regs {
		n += r.Size
	}
	return n
}

// Qubit returns the bit of global qubit index i.
func (c *Circuit) Qubit(i int) Bit { return unflat(c.QRegs, i) }

// Clbit returns the bit of global classical index i.
func (c *Circuit) Clbit(i int) Bit { return unflat(c.CRegs, i) }

func unflat(regs []Register, i int) Bit {
	for _, r := range regs {
		if i < r.Size {
			return Bit{Reg: r.Name, Index: i}
		}
		i -= r.Size
	}
	return Bit{Reg: "", Index: i}
}

// FlatQubit returns the global index of a qubit.
func (c *Circuit) FlatQubit(b Bit) (int, error) { return flat(c.QRegs, b, "qubit") }

// FlatClbit returns the global index of a classical bit.
func (c *Circuit) FlatClbit(b Bit) (int, error) { return flat(c.CRegs, b, "clbit") }

func flat(regs []Register, b Bit, kind string) (int, error) {
	off := 0
	for _, r := range regs {
		if r.Name == b.Reg {
			if b.Index < 0 || b.Index >= r.Size {
				return 0, qerr.Config("circuit.Flat", "%s %s[%d] out of range", kind, b.Reg, b.Index)
			}
			return off + b.Index, nil
		}
		off += r.Size
	}
	return 0, qerr.Config("circuit.Flat", "unknown %s register %q", kind, b.Reg)
}

// Append adds a gate on global qubit indices with numeric parameters.
func (c *Circuit) Append(name string, qubits []int, params ...float64) {
	in := Instruction{Name: name, Qubits: make([]Bit, len(qubits))}
	for i, q := range qubits {
		in.Qubits[i] = c.Qubit(q)
	}
	for _, v := range params {
		in.Params = append(in.Params, Param{Value: v})
	}
	c.Instructions = append(c.Instructions, in)
}

// AppendInstruction adds a prepared instruction.
func (c *Circuit) AppendInstruction(in Instruction) {
	c.Instructions = append(c.Instructions, in)
}

// Measure records qubit q into classical bit cl (global indices).
func (c *Circuit) Measure(q, cl int) {
	c.Instructions = append(c.Instructions, Instruction{
		Name:   OpMeasure,
		Qubits: []Bit{c.Qubit(q)},
		Clbits: []Bit{c.Clbit(cl)},
	})
}

// MeasureAll measures qubit i into classical bit i, adding a classical
// register when the circuit has too few bits.
func (c *Circuit) MeasureAll() {
	n := c.NumQubits()
	if missing := n - c.NumClbits(); missing > 0 {
		name := CRegName
		if slices.ContainsFunc(c.CRegs, func(r Register) bool { return r.Name == name }) {
			name = "meas"
		}
		c.CRegs = append(c.CRegs, Register{Name: name, Size: missing})
	}
	c.Barrier()
	for q := 0; q < n; q++ {
		c.Measure(q, q)
	}
}

// Barrier adds a barrier across every qubit.
func (c *Circuit) Barrier() {
	in := Instruction{Name: OpBarrier}
	for q := 0; q < c.NumQubits(); q++ {
		in.Qubits = append(in.Qubits, c.Qubit(q))
	}
	c.Instructions = append(c.Instructions, in)
}

// HasMeasurements reports whether any instruction is a measurement.
func (c *Circuit) HasMeasurements() bool {
	return slices.ContainsFunc(c.Instructions, func(in Instruction) bool { return in.Name == OpMeasure })
}

// Parameters returns the placeholder symbols, sorted.
func (c *Circuit) Parameters() []string {
	set := make(map[string]bool)
	for _, in := range c.Instructions {
		for _, p := range in.Params {
			if p.Symbolic() {
				set[p.Symbol] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Bind returns a copy with every placeholder replaced by its value. A
// placeholder without a value is a ConfigError.
func (c *Circuit) Bind(b Binding) (*Circuit, error) {
	out := c.Clone()
	for i := range out.Instructions {
		for j, p := range out.Instructions[i].Params {
			if !p.Symbolic() {
				continue
			}
			v, ok := b[p.Symbol]
			if !ok {
				return nil, qerr.Config("circuit.Bind", "no value for parameter %q", p.Symbol)
			}
			out.Instructions[i].Params[j] = Param{Value: v}
		}
	}
	return out, nil
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Name:   c.Name,
		QRegs:  slices.Clone(c.QRegs),
		CRegs:  slices.Clone(c.CRegs),
		Layout: maps.Clone(c.Layout),
	}
	out.Instructions = make([]Instruction, len(c.Instructions))
	for i, in := range c.Instructions {
		out.Instructions[i] = Instruction{
			Name:   in.Name,
			Qubits: slices.Clone(in.Qubits),
			Clbits: slices.Clone(in.Clbits),
			Params: slices.Clone(in.Params),
		}
	}
	return out
}

// Compose concatenates circuits over the same qubits, e.g. an encoder, a
// variational layer and a measurement stage. Qubits are matched by global
// index; the widest classical layout is kept.
func Compose(parts ...*Circuit) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, qerr.Config("circuit.Compose", "nothing to compose")
	}
	out := parts[0].Clone()
	for _, p := range parts[1:] {
		if p.NumQubits() != out.NumQubits() {
			return nil, qerr.Config("circuit.Compose", "%q has %d qubits, want %d", p.Name, p.NumQubits(), out.NumQubits())
		}
		if p.NumClbits() > out.NumClbits() {
			out.CRegs = slices.Clone(p.CRegs)
		}
		if p.Layout != nil {
			out.Layout = maps.Clone(p.Layout)
		}
		for _, in := range p.Instructions {
			re, err := out.remap(p, in)
			if err != nil {
				return nil, err
			}
			out.Instructions = append(out.Instructions, re)
		}
	}
	return out, nil
}

// remap rewrites in, addressed in src's registers, into c's registers.
func (c *Circuit) remap(src *Circuit, in Instruction) (Instruction, error) {
	re := Instruction{Name: in.Name, Params: slices.Clone(in.Params)}
	for _, b := range in.Qubits {
		i, err := src.FlatQubit(b)
		if err != nil {
			return re, err
		}
		re.Qubits = append(re.Qubits, c.Qubit(i))
	}
	for _, b := range in.Clbits {
		i, err := src.FlatClbit(b)
		if err != nil {
			return re, err
		}
		if i >= c.NumClbits() {
			return re, qerr.Config("circuit.Compose", "classical bit %d out of range", i)
		}
		re.Clbits = append(re.Clbits, c.Clbit(i))
	}
	return re, nil
}
