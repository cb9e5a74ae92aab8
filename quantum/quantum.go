// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package quantum

import (
	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/mapping"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/qasm"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
	"github.com/born-ml/quantumnat/internal/translate"
)

// Device

// Device is a batched simulation session.
type Device = device.Device

// DeviceOption configures a Device.
type DeviceOption = device.Option

// DeviceState is the lifecycle position of a device.
type DeviceState = device.State

// OperationHistory is the ordered record of applied gates.
type OperationHistory = device.OperationHistory

// Lifecycle states.
const (
	Building = device.Building
	Frozen   = device.Frozen
	Executed = device.Executed
	Terminal = device.Terminal
)

// NewDevice creates a Building device with every batch element in |0…0⟩.
//
// Example:
//
//	dev, err := quantum.NewDevice(4, 32, quantum.WithNoise(model))
func NewDevice(nWires, batch int, opts ...DeviceOption) (*Device, error) {
	return device.New(nWires, batch, opts...)
}

// WithNoise attaches a noise model to a device.
func WithNoise(m *NoiseModel) DeviceOption { return device.WithNoise(m) }

// WithSeed seeds the device's noise sessions.
func WithSeed(seed int64) DeviceOption { return device.WithSeed(seed) }

// WithRecording toggles the operation recorder.
func WithRecording(on bool) DeviceOption { return device.WithRecording(on) }

// StateVector is the batched amplitude store.
type StateVector = statevec.StateVector

// MaxWires is the largest supported register.
const MaxWires = statevec.MaxWires

// ToLittleEndian converts device-ordered amplitudes to backend order.
func ToLittleEndian(amps []complex128, nWires int) ([]complex128, error) {
	return statevec.ToLittleEndian(amps, nWires)
}

// FromLittleEndian converts backend-ordered amplitudes to device order.
func FromLittleEndian(amps []complex128, nWires int) ([]complex128, error) {
	return statevec.FromLittleEndian(amps, nWires)
}

// Gates

// GateKind identifies a gate.
type GateKind = gates.Kind

// GateSpec describes one gate invocation.
type GateSpec = gates.GateSpec

// NewGate builds a spec with one shared parameter row.
func NewGate(kind GateKind, wires []int, params ...float64) GateSpec {
	return gates.New(kind, wires, params...)
}

// LookupGate resolves an external gate name.
func LookupGate(name string) (GateKind, bool) { return gates.Lookup(name) }

// GateKinds lists every supported gate.
func GateKinds() []GateKind { return gates.Kinds() }

// Circuits

// Circuit is an instruction list over named registers.
type Circuit = circuit.Circuit

// Binding assigns values to parameter placeholders.
type Binding = circuit.Binding

// NewCircuit creates a circuit with registers "q" and "c".
func NewCircuit(nQubits, nClbits int) *Circuit { return circuit.New(nQubits, nClbits) }

// Compose concatenates circuits over the same qubits.
func Compose(parts ...*Circuit) (*Circuit, error) { return circuit.Compose(parts...) }

// Transpile places virtual qubit v on physical qubit layout[v].
func Transpile(c *Circuit, layout []int) (*Circuit, error) { return circuit.Transpile(c, layout) }

// EmitQASM renders a circuit as OpenQASM 2.0.
func EmitQASM(c *Circuit) (string, error) { return qasm.Emit(c) }

// ParseQASM reads an OpenQASM 2.0 program.
func ParseQASM(src string) (*Circuit, error) { return qasm.Parse(src) }

// Translation

// RegisterMapping holds the virtual, physical and classical index tables.
type RegisterMapping = mapping.RegisterMapping

// NewMapping validates and builds a mapping from its forward tables.
func NewMapping(v2c, p2c, p2v map[int]int) (*RegisterMapping, error) {
	return mapping.New(v2c, p2c, p2v)
}

// TranslateOption configures history-to-circuit translation.
type TranslateOption = translate.Option

// WithMapping places wires on physical qubits during translation.
func WithMapping(m *RegisterMapping) TranslateOption { return translate.WithMapping(m) }

// FromDevice translates a frozen device's history for batch element 0.
func FromDevice(dev *Device, opts ...TranslateOption) (*Circuit, error) {
	return translate.FromDevice(dev, opts...)
}

// FromHistoryParameterized translates a history into one circuit with
// placeholders and one binding per batch element.
func FromHistoryParameterized(hist *OperationHistory, batch int, opts ...TranslateOption) (*Circuit, []Binding, error) {
	return translate.FromHistoryParameterized(hist, batch, opts...)
}

// MeasurementCircuit measures every wire into its classical bit.
func MeasurementCircuit(nWires int, m *RegisterMapping) *Circuit {
	return translate.MeasurementCircuit(nWires, m)
}

// ToHistory parses a bound circuit and infers its register mapping.
func ToHistory(c *Circuit) (*OperationHistory, *RegisterMapping, error) {
	return translate.ToHistory(c)
}

// Estimation

// Pauli is a Pauli string; character i acts on wire i.
type Pauli = expval.Pauli

// ParsePauli validates a Pauli string.
func ParsePauli(s string) (Pauli, error) { return expval.ParsePauli(s) }

// Analytic evaluates p on every batch element of sv.
func Analytic(sv *StateVector, p Pauli) ([]float64, error) { return expval.Analytic(sv, p) }

// FromCounts estimates p from backend counts.
func FromCounts(counts map[string]int, p Pauli, order []int) (float64, int, error) {
	return expval.FromCounts(counts, p, order)
}

// Noise

// NoiseProfile is immutable calibration data.
type NoiseProfile = noise.Profile

// NoiseModel injects a profile's channels into device sessions.
type NoiseModel = noise.Model

// NoiseOption configures a NoiseModel.
type NoiseOption = noise.Option

// NewNoiseModel builds a model from a profile.
func NewNoiseModel(p *NoiseProfile, opts ...NoiseOption) *NoiseModel { return noise.New(p, opts...) }

// LoadNoiseProfile reads and validates a YAML profile.
func LoadNoiseProfile(path string) (*NoiseProfile, error) { return noise.LoadProfile(path) }

// BuiltinNoiseProfile returns a bundled profile by name.
func BuiltinNoiseProfile(name string) (*NoiseProfile, error) { return noise.Builtin(name) }

// Errors

// Error sentinels for errors.Is.
var (
	ErrConfig  = qerr.ErrConfig
	ErrState   = qerr.ErrState
	ErrBackend = qerr.ErrBackend
	ErrNumeric = qerr.ErrNumeric
)

// IsRetryable reports whether err is a retryable backend error.
func IsRetryable(err error) bool { return qerr.IsRetryable(err) }
