package qasm

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/qerr"
)

func TestEval(t *testing.T) {
	cases := map[string]float64{
		"0.5":          0.5,
		"pi":           math.Pi,
		"-pi/2":        -math.Pi / 2,
		"pi*3/4":       3 * math.Pi / 4,
		"2*(1+pi)":     2 * (1 + math.Pi),
		"1e-3":         1e-3,
		"2.5E+2":       250,
		"-2^2":         -4,
		"2^-1":         0.5,
		"cos(0) + 1":   2,
		"sqrt(4)*-1":   -2,
		" - - 3 ":      3,
		"sin(pi/2)^2":  1,
		"ln(exp(1.5))": 1.5,
	}
	for expr, want := range cases {
		got, err := Eval(expr)
		require.NoError(t, err, expr)
		assert.InDelta(t, want, got, 1e-12, expr)
	}

	for _, bad := range []string{"", "pi pi", "(1", "foo", "1/0", "sin", "2*"} {
		_, err := Eval(bad)
		assert.Error(t, err, bad)
	}
}

func TestParse(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";
// A Bell pair plus rotations.
qreg q[2];
qreg anc[1];
creg c0[1];
creg c1[1];

h q[0];
cx q[0], q[1];
rz(-pi/4) anc[0]; // trailing comment
U3(0.1, pi, 2*pi) q[1];
barrier q, anc;
measure q[0] -> c0[0];
measure q[1] -> c1[0];
`
	c, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumQubits())
	assert.Equal(t, 2, c.NumClbits())
	require.Len(t, c.Instructions, 7)

	assert.Equal(t, "cx", c.Instructions[1].Name)
	assert.Equal(t, []circuit.Bit{{Reg: "q", Index: 0}, {Reg: "q", Index: 1}}, c.Instructions[1].Qubits)
	assert.Equal(t, []circuit.Bit{{Reg: "anc", Index: 0}}, c.Instructions[2].Qubits)
	assert.InDelta(t, -math.Pi/4, c.Instructions[2].Params[0].Value, 1e-15)
	assert.Equal(t, "u3", c.Instructions[3].Name)
	assert.Len(t, c.Instructions[3].Params, 3)
	assert.Len(t, c.Instructions[4].Qubits, 3)

	m := c.Instructions[6]
	assert.Equal(t, circuit.OpMeasure, m.Name)
	cl, err := c.FlatClbit(m.Clbits[0])
	require.NoError(t, err)
	assert.Equal(t, 1, cl)
}

func TestParse_Broadcast(t *testing.T) {
	c, err := Parse("qreg a[3]; qreg b[3]; creg c[3]; h a; cx a, b; measure a -> c;")
	require.NoError(t, err)
	require.Len(t, c.Instructions, 9)
	assert.Equal(t, []circuit.Bit{{Reg: "a", Index: 2}, {Reg: "b", Index: 2}}, c.Instructions[5].Qubits)
	assert.Equal(t, circuit.OpMeasure, c.Instructions[8].Name)
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"qreg q[1]; h r[0];",
		"qreg q[1]; h q[1];",
		"qreg q[1]; qreg q[2];",
		"qreg q[2]; creg c[1]; measure q -> c;",
		"qreg q[1]; rx(pi/) q[0];",
		"qreg q[2]; qreg r[3]; cx q, r;",
	} {
		_, err := Parse(src)
		assert.True(t, errors.Is(err, qerr.ErrConfig), src)
	}
}

func TestParse_RegisterBounds(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"huge", "qreg q[2000000000]; h q;"},
		{"overflow", "qreg q[99999999999999999999999]; h q;"},
		{"empty", "qreg q[0];"},
		{"total", "qreg a[20]; qreg b[5];"},
		{"classical", "qreg q[1]; creg c[100000000]; measure q[0] -> c[0];"},
		{"index overflow", "qreg q[2]; h q[99999999999999999999999];"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			assert.True(t, errors.Is(err, qerr.ErrConfig), "got %v", err)
		})
	}

	c, err := Parse("qreg a[20]; qreg b[4]; creg c[24]; h a; measure b[3] -> c[23];")
	require.NoError(t, err)
	assert.Equal(t, MaxRegisterBits, c.NumQubits())
	assert.Equal(t, MaxRegisterBits, c.NumClbits())
}

func TestEmitParseRoundTrip(t *testing.T) {
	c := circuit.New(3, 3)
	c.Append("h", []int{0})
	c.Append("cx", []int{0, 2})
	c.Append("u3", []int{1}, 0.1, -2.5e-7, math.Pi)
	c.Append("rzz", []int{1, 2}, 1/3.0)
	c.MeasureAll()

	src, err := Emit(c)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, "OPENQASM 2.0;"))
	assert.Contains(t, src, "cx q[0],q[2];")
	assert.Contains(t, src, "measure q[2] -> c[2];")

	back, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, c.QRegs, back.QRegs)
	assert.Equal(t, c.CRegs, back.CRegs)
	assert.Equal(t, c.Instructions, back.Instructions, "parameters survive exactly")
}

func TestEmit_RejectsSymbolic(t *testing.T) {
	c := circuit.New(1, 0)
	c.AppendInstruction(circuit.Instruction{Name: "rx", Qubits: []circuit.Bit{{Reg: "q"}}, Params: []circuit.Param{{Symbol: "a"}}})
	_, err := Emit(c)
	assert.True(t, errors.Is(err, qerr.ErrConfig))
}
