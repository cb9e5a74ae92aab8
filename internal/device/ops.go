package device

import "github.com/born-ml/quantumnat/internal/gates"

// Gate applies kind on wires (controls first) with shared parameters.
func (d *Device) Gate(kind gates.Kind, wires []int, params ...float64) error {
	return d.Apply(gates.New(kind, wires, params...))
}

// GateBatched applies kind with one parameter row per batch element.
func (d *Device) GateBatched(kind gates.Kind, wires []int, params [][]float64, trainable bool) error {
	spec := gates.New(kind, wires)
	spec.Params = params
	spec.Trainable = trainable
	return d.Apply(spec)
}

func (d *Device) H(w int) error  { return d.Gate(gates.H, []int{w}) }
func (d *Device) X(w int) error  { return d.Gate(gates.X, []int{w}) }
func (d *Device) Y(w int) error  { return d.Gate(gates.Y, []int{w}) }
func (d *Device) Z(w int) error  { return d.Gate(gates.Z, []int{w}) }
func (d *Device) S(w int) error  { return d.Gate(gates.S, []int{w}) }
func (d *Device) T(w int) error  { return d.Gate(gates.T, []int{w}) }
func (d *Device) SX(w int) error { return d.Gate(gates.SX, []int{w}) }

func (d *Device) RX(w int, theta float64) error { return d.Gate(gates.RX, []int{w}, theta) }
func (d *Device) RY(w int, theta float64) error { return d.Gate(gates.RY, []int{w}, theta) }
func (d *Device) RZ(w int, theta float64) error { return d.Gate(gates.RZ, []int{w}, theta) }

func (d *Device) U3(w int, theta, phi, lambda float64) error {
	return d.Gate(gates.U3, []int{w}, theta, phi, lambda)
}

func (d *Device) CNOT(control, target int) error { return d.Gate(gates.CNOT, []int{control, target}) }
func (d *Device) CZ(control, target int) error   { return d.Gate(gates.CZ, []int{control, target}) }
func (d *Device) SWAP(a, b int) error            { return d.Gate(gates.SWAP, []int{a, b}) }

func (d *Device) CRX(control, target int, theta float64) error {
	return d.Gate(gates.CRX, []int{control, target}, theta)
}
