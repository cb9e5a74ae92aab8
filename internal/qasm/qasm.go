// Package qasm reads and writes the OpenQASM 2.0 subset used on the
// external circuit boundary: register declarations, gates with numeric
// parameter expressions, barriers and measurements.
package qasm

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

// MaxRegisterBits bounds the total width of the quantum registers, and
// separately of the classical registers, a program may declare.
const MaxRegisterBits = statevec.MaxWires

const header = "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n"

var (
	regDeclRegex = regexp.MustCompile(`^(qreg|creg)\s+([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\((.*)\))?\s*(.*)$`)
	bitRegex     = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\[\s*(\d+)\s*\])?$`)
)

// Emit renders c as OpenQASM 2.0. Symbolic parameters must be bound first.
func Emit(c *circuit.Circuit) (string, error) {
	var sb strings.Builder
	sb.WriteString(header)
	for _, r := range c.QRegs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", r.Name, r.Size)
	}
	for _, r := range c.CRegs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name, r.Size)
	}

	for i, in := range c.Instructions {
		switch in.Name {
		case circuit.OpMeasure:
			if len(in.Qubits) != 1 || len(in.Clbits) != 1 {
				return "", qerr.Config("qasm.Emit", "instruction %d: malformed measure", i)
			}
			fmt.Fprintf(&sb, "measure %s -> %s;\n", bit(in.Qubits[0]), bit(in.Clbits[0]))
			continue
		}

		sb.WriteString(in.Name)
		if len(in.Params) > 0 {
			vals := make([]string, len(in.Params))
			for j, p := range in.Params {
				if p.Symbolic() {
					return "", qerr.Config("qasm.Emit", "instruction %d: unbound parameter %q", i, p.Symbol)
				}
				vals[j] = strconv.FormatFloat(p.Value, 'g', -1, 64)
			}
			fmt.Fprintf(&sb, "(%s)", strings.Join(vals, ","))
		}
		qs := make([]string, len(in.Qubits))
		for j, q := range in.Qubits {
			qs[j] = bit(q)
		}
		fmt.Fprintf(&sb, " %s;\n", strings.Join(qs, ","))
	}
	return sb.String(), nil
}

func bit(b circuit.Bit) string {
	return fmt.Sprintf("%s[%d]", b.Reg, b.Index)
}

// Parse reads OpenQASM 2.0 source. Comments, the version line and
// include directives are skipped. Gate names are kept as written; the
// translator decides whether it supports them.
func Parse(src string) (*circuit.Circuit, error) {
	c := &circuit.Circuit{Name: "qasm"}
	regs := map[string]bool{}
	declared := map[string]int{}

	for n, stmt := range statements(src) {
		if strings.HasPrefix(stmt, "OPENQASM") || strings.HasPrefix(stmt, "include") {
			continue
		}
		fail := func(format string, args ...any) error {
			return qerr.Config("qasm.Parse", "statement %d %q: %s", n+1, stmt, fmt.Sprintf(format, args...))
		}

		if m := regDeclRegex.FindStringSubmatch(stmt); m != nil {
			if regs[m[2]] {
				return nil, fail("register redeclared")
			}
			regs[m[2]] = true
			size, err := strconv.Atoi(m[3])
			if err != nil {
				return nil, fail("register size: %v", err)
			}
			if size < 1 {
				return nil, fail("empty register")
			}
			if declared[m[1]]+size > MaxRegisterBits {
				return nil, fail("%s of size %d exceeds %d bits in total", m[1], size, MaxRegisterBits)
			}
			declared[m[1]] += size
			r := circuit.Register{Name: m[2], Size: size}
			if m[1] == "qreg" {
				c.QRegs = append(c.QRegs, r)
			} else {
				c.CRegs = append(c.CRegs, r)
			}
			continue
		}

		if m := measureRegex.FindStringSubmatch(stmt); m != nil {
			qs, err := operands(c.QRegs, m[1])
			if err != nil {
				return nil, fail("%v", err)
			}
			cs, err := operands(c.CRegs, m[2])
			if err != nil {
				return nil, fail("%v", err)
			}
			if len(qs) != len(cs) {
				return nil, fail("measures %d qubits into %d bits", len(qs), len(cs))
			}
			for i := range qs {
				c.AppendInstruction(circuit.Instruction{
					Name:   circuit.OpMeasure,
					Qubits: []circuit.Bit{qs[i]},
					Clbits: []circuit.Bit{cs[i]},
				})
			}
			continue
		}

		m := gateRegex.FindStringSubmatch(stmt)
		if m == nil {
			return nil, fail("unrecognized statement")
		}
		name := strings.ToLower(m[1])
		in := circuit.Instruction{Name: name}
		if strings.TrimSpace(m[2]) != "" {
			for _, expr := range strings.Split(m[2], ",") {
				v, err := Eval(expr)
				if err != nil {
					return nil, fail("%v", err)
				}
				in.Params = append(in.Params, circuit.Param{Value: v})
			}
		}
		var args [][]circuit.Bit
		for _, arg := range strings.Split(m[3], ",") {
			bits, err := operands(c.QRegs, arg)
			if err != nil {
				return nil, fail("%v", err)
			}
			args = append(args, bits)
		}
		if name == circuit.OpBarrier {
			for _, a := range args {
				in.Qubits = append(in.Qubits, a...)
			}
			c.AppendInstruction(in)
			continue
		}
		expanded, err := broadcast(in, args)
		if err != nil {
			return nil, fail("%v", err)
		}
		for _, e := range expanded {
			c.AppendInstruction(e)
		}
	}
	return c, nil
}

// statements strips comments and splits src on semicolons.
func statements(src string) []string {
	var clean strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		clean.WriteString(line)
		clean.WriteByte(' ')
	}
	var out []string
	for _, s := range strings.Split(clean.String(), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// operands resolves "r[i]" to one bit or "r" to every bit of the
// register.
func operands(regs []circuit.Register, s string) ([]circuit.Bit, error) {
	m := bitRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("bad operand %q", s)
	}
	for _, r := range regs {
		if r.Name != m[1] {
			continue
		}
		if m[2] == "" {
			out := make([]circuit.Bit, r.Size)
			for i := range out {
				out[i] = circuit.Bit{Reg: r.Name, Index: i}
			}
			return out, nil
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil || idx >= r.Size {
			return nil, fmt.Errorf("%s[%d] out of range", r.Name, idx)
		}
		return []circuit.Bit{{Reg: r.Name, Index: idx}}, nil
	}
	return nil, fmt.Errorf("unknown register %q", m[1])
}

// broadcast applies a gate over whole-register arguments element-wise.
func broadcast(in circuit.Instruction, args [][]circuit.Bit) ([]circuit.Instruction, error) {
	width := 1
	for _, a := range args {
		if len(a) > 1 {
			if width > 1 && len(a) != width {
				return nil, fmt.Errorf("register arguments of different sizes")
			}
			width = len(a)
		}
	}
	out := make([]circuit.Instruction, width)
	for k := range out {
		e := circuit.Instruction{Name: in.Name, Params: slices.Clone(in.Params)}
		for _, a := range args {
			if len(a) == 1 {
				e.Qubits = append(e.Qubits, a[0])
			} else {
				e.Qubits = append(e.Qubits, a[k])
			}
		}
		out[k] = e
	}
	return out, nil
}
