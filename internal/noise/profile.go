package noise

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// Channels toggles the error categories a profile contributes.
type Channels struct {
	Depolarizing bool `yaml:"depolarizing"`
	Thermal      bool `yaml:"thermal"`
	Readout      bool `yaml:"readout"`
}

// QubitCalibration is per-physical-qubit calibration data. Times are in
// seconds.
type QubitCalibration struct {
	Qubit        int     `yaml:"qubit" validate:"gte=0"`
	T1           float64 `yaml:"t1" validate:"gt=0"`
	T2           float64 `yaml:"t2" validate:"gt=0"`
	ReadoutError float64 `yaml:"readout_error" validate:"gte=0,lte=1"`
}

// GateCalibration is the error rate and duration of one gate on one
// qubit tuple. An empty Qubits list applies to every tuple.
type GateCalibration struct {
	Gate     string  `yaml:"gate" validate:"required"`
	Qubits   []int   `yaml:"qubits" validate:"dive,gte=0"`
	Error    float64 `yaml:"error" validate:"gte=0,lte=1"`
	Duration float64 `yaml:"duration" validate:"gte=0"`
}

// Defaults apply to gates without a calibration entry.
type Defaults struct {
	SingleQubitError    float64 `yaml:"single_qubit_error" validate:"gte=0,lte=1"`
	TwoQubitError       float64 `yaml:"two_qubit_error" validate:"gte=0,lte=1"`
	SingleQubitDuration float64 `yaml:"single_qubit_duration" validate:"gte=0"`
	TwoQubitDuration    float64 `yaml:"two_qubit_duration" validate:"gte=0"`
}

// Profile maps gates and qubits to error channel parameters. It is loaded
// once and read-only during simulation, so one profile may back many
// concurrent simulations.
type Profile struct {
	Name         string             `yaml:"name" validate:"required"`
	Factor       float64            `yaml:"factor" validate:"gte=0"`
	Channels     Channels           `yaml:"channels"`
	Qubits       []QubitCalibration `yaml:"qubits" validate:"dive"`
	Gates        []GateCalibration  `yaml:"gates" validate:"dive"`
	Default      Defaults           `yaml:"default"`
	IgnoredGates []string           `yaml:"ignored_gates"`

	qubits  map[int]QubitCalibration
	gates   map[gateKey]GateCalibration
	ignored map[gates.Kind]bool
}

type gateKey struct {
	kind   gates.Kind
	qubits string // "" for the wildcard entry
}

var profileValidate = validator.New()

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	p := &Profile{Factor: 1}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, qerr.Config("noise.ParseProfile", "decode yaml: %v", err)
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProfile reads a YAML profile from disk.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qerr.Config("noise.LoadProfile", "read %s: %v", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// init validates the profile and builds its lookup indexes.
func (p *Profile) init() error {
	const op = "noise.Profile"
	if err := profileValidate.Struct(p); err != nil {
		return qerr.Config(op, "%v", err)
	}

	p.qubits = make(map[int]QubitCalibration, len(p.Qubits))
	for _, q := range p.Qubits {
		if _, dup := p.qubits[q.Qubit]; dup {
			return qerr.Config(op, "qubit %d calibrated twice", q.Qubit)
		}
		if q.T2 > 2*q.T1 {
			return qerr.Config(op, "qubit %d has T2 %.3g > 2*T1 %.3g", q.Qubit, q.T2, 2*q.T1)
		}
		p.qubits[q.Qubit] = q
	}

	p.gates = make(map[gateKey]GateCalibration, len(p.Gates))
	for _, g := range p.Gates {
		kind, ok := gates.Lookup(g.Gate)
		if !ok {
			return qerr.Config(op, "unknown gate %q", g.Gate)
		}
		if len(g.Qubits) != 0 && len(g.Qubits) != kind.NumWires() {
			return qerr.Config(op, "gate %s calibrated on %d qubits, want %d", g.Gate, len(g.Qubits), kind.NumWires())
		}
		key := gateKey{kind: kind, qubits: qubitsKey(g.Qubits)}
		if _, dup := p.gates[key]; dup {
			return qerr.Config(op, "gate %s on %v calibrated twice", g.Gate, g.Qubits)
		}
		p.gates[key] = g
	}

	p.ignored = make(map[gates.Kind]bool, len(p.IgnoredGates))
	for _, name := range p.IgnoredGates {
		kind, ok := gates.Lookup(name)
		if !ok {
			return qerr.Config(op, "unknown ignored gate %q", name)
		}
		p.ignored[kind] = true
	}
	return nil
}

// Qubit returns the calibration of a physical qubit.
func (p *Profile) Qubit(q int) (QubitCalibration, bool) {
	c, ok := p.qubits[q]
	return c, ok
}

// Gate returns the error rate and duration of kind on the given physical
// qubits: exact entry first, then the wildcard entry, then the defaults.
func (p *Profile) Gate(kind gates.Kind, qubits []int) (errRate, duration float64) {
	if g, ok := p.gates[gateKey{kind: kind, qubits: qubitsKey(qubits)}]; ok {
		return g.Error, g.Duration
	}
	if g, ok := p.gates[gateKey{kind: kind}]; ok {
		return g.Error, g.Duration
	}
	if kind.NumWires() > 1 {
		return p.Default.TwoQubitError, p.Default.TwoQubitDuration
	}
	return p.Default.SingleQubitError, p.Default.SingleQubitDuration
}

// Ignored reports whether kind never receives noise.
func (p *Profile) Ignored(kind gates.Kind) bool {
	return p.ignored[kind]
}

// NumQubits returns one more than the largest calibrated qubit.
func (p *Profile) NumQubits() int {
	n := 0
	for q := range p.qubits {
		n = max(n, q+1)
	}
	return n
}

func qubitsKey(qs []int) string {
	if len(qs) == 0 {
		return ""
	}
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprint(q)
	}
	return strings.Join(parts, ",")
}
