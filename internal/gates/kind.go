// Package gates defines the closed set of gate kinds the engine can
// apply, record and translate.
//
// Each Kind has one entry in a dispatch table holding its arity, its
// parameter count and the function that builds its unitary from a
// parameter vector. Controlled kinds store the matrix of the target
// operation only; the kernel restricts it to the controls-equal-1
// subspace. Adding a gate kind means adding a constant and a table row.
package gates

import (
	"strings"

	"github.com/born-ml/quantumnat/internal/linalg"
)

// Kind identifies a gate.
type Kind int

// Gate kinds.
const (
	I Kind = iota
	H
	X
	Y
	Z
	S
	SDG
	T
	TDG
	SX
	SXDG
	RX
	RY
	RZ
	P
	U1
	U2
	U3
	RXX
	RYY
	RZZ
	RZX
	CNOT
	CY
	CZ
	SWAP
	CRX
	CRY
	CRZ
	CP
	CU3
	CCX
	CSWAP

	numKinds
)

// info is one dispatch table row.
type info struct {
	name      string // canonical lower-case name
	external  string // instruction name on the external circuit boundary
	targets   int
	controls  int
	params    int
	matrix    func(params []float64) linalg.Matrix
	generator *linalg.Matrix // G for U(θ) = exp(-iθ/2 G); nil if not a rotation
}

var table [numKinds]info

func init() {
	table = [numKinds]info{
		I:     {name: "i", external: "id", targets: 1, matrix: constant(matI)},
		H:     {name: "h", external: "h", targets: 1, matrix: constant(matH)},
		X:     {name: "x", external: "x", targets: 1, matrix: constant(matX)},
		Y:     {name: "y", external: "y", targets: 1, matrix: constant(matY)},
		Z:     {name: "z", external: "z", targets: 1, matrix: constant(matZ)},
		S:     {name: "s", external: "s", targets: 1, matrix: constant(matS)},
		SDG:   {name: "sdg", external: "sdg", targets: 1, matrix: constant(matS.Dagger())},
		T:     {name: "t", external: "t", targets: 1, matrix: constant(matT)},
		TDG:   {name: "tdg", external: "tdg", targets: 1, matrix: constant(matT.Dagger())},
		SX:    {name: "sx", external: "sx", targets: 1, matrix: constant(matSX)},
		SXDG:  {name: "sxdg", external: "sxdg", targets: 1, matrix: constant(matSX.Dagger())},
		RX:    {name: "rx", external: "rx", targets: 1, params: 1, matrix: rotation(matX), generator: &matX},
		RY:    {name: "ry", external: "ry", targets: 1, params: 1, matrix: rotation(matY), generator: &matY},
		RZ:    {name: "rz", external: "rz", targets: 1, params: 1, matrix: rotation(matZ), generator: &matZ},
		P:     {name: "p", external: "p", targets: 1, params: 1, matrix: phase},
		U1:    {name: "u1", external: "u1", targets: 1, params: 1, matrix: phase},
		U2:    {name: "u2", external: "u2", targets: 1, params: 2, matrix: u2},
		U3:    {name: "u3", external: "u3", targets: 1, params: 3, matrix: u3},
		RXX:   {name: "rxx", external: "rxx", targets: 2, params: 1, matrix: rotation(matXX), generator: &matXX},
		RYY:   {name: "ryy", external: "ryy", targets: 2, params: 1, matrix: rotation(matYY), generator: &matYY},
		RZZ:   {name: "rzz", external: "rzz", targets: 2, params: 1, matrix: rotation(matZZ), generator: &matZZ},
		RZX:   {name: "rzx", external: "rzx", targets: 2, params: 1, matrix: rotation(matZX), generator: &matZX},
		CNOT:  {name: "cnot", external: "cx", targets: 1, controls: 1, matrix: constant(matX)},
		CY:    {name: "cy", external: "cy", targets: 1, controls: 1, matrix: constant(matY)},
		CZ:    {name: "cz", external: "cz", targets: 1, controls: 1, matrix: constant(matZ)},
		SWAP:  {name: "swap", external: "swap", targets: 2, matrix: constant(matSWAP)},
		CRX:   {name: "crx", external: "crx", targets: 1, controls: 1, params: 1, matrix: rotation(matX), generator: &matX},
		CRY:   {name: "cry", external: "cry", targets: 1, controls: 1, params: 1, matrix: rotation(matY), generator: &matY},
		CRZ:   {name: "crz", external: "crz", targets: 1, controls: 1, params: 1, matrix: rotation(matZ), generator: &matZ},
		CP:    {name: "cp", external: "cp", targets: 1, controls: 1, params: 1, matrix: phase},
		CU3:   {name: "cu3", external: "cu3", targets: 1, controls: 1, params: 3, matrix: u3},
		CCX:   {name: "ccx", external: "ccx", targets: 1, controls: 2, matrix: constant(matX)},
		CSWAP: {name: "cswap", external: "cswap", targets: 2, controls: 1, matrix: constant(matSWAP)},
	}

	byName = make(map[string]Kind, 2*int(numKinds))
	for k := Kind(0); k < numKinds; k++ {
		byName[table[k].name] = k
		byName[table[k].external] = k
	}
	for alias, k := range aliases {
		byName[alias] = k
	}
}

var byName map[string]Kind

var aliases = map[string]Kind{
	"identity":  I,
	"hadamard":  H,
	"paulix":    X,
	"pauliy":    Y,
	"pauliz":    Z,
	"cx":        CNOT,
	"toffoli":   CCX,
	"fredkin":   CSWAP,
	"phase":     P,
	"u":         U3,
	"cu1":       CP,
	"cphase":    CP,
	"sdag":      SDG,
	"tdag":      TDG,
	"sxdag":     SXDG,
	"rotx":      RX,
	"roty":      RY,
	"rotz":      RZ,
	"multicnot": CCX,
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for k := range out {
		out[k] = Kind(k)
	}
	return out
}

// Lookup maps a gate name (case-insensitive, canonical, external or alias)
// to its kind.
func Lookup(name string) (Kind, bool) {
	k, ok := byName[strings.ToLower(name)]
	return k, ok
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

// String returns the canonical name.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return table[k].name
}

// External returns the instruction name used on the external circuit.
func (k Kind) External() string { return table[k].external }

// NumTargets returns the number of target wires.
func (k Kind) NumTargets() int { return table[k].targets }

// NumControls returns the number of control wires.
func (k Kind) NumControls() int { return table[k].controls }

// NumWires returns controls + targets.
func (k Kind) NumWires() int { return table[k].targets + table[k].controls }

// NumParams returns the length of the parameter vector.
func (k Kind) NumParams() int { return table[k].params }

// Parameterized reports whether the kind takes parameters.
func (k Kind) Parameterized() bool { return table[k].params > 0 }

// Matrix builds the target-space unitary for one parameter vector.
func (k Kind) Matrix(params []float64) linalg.Matrix {
	return table[k].matrix(params)
}
