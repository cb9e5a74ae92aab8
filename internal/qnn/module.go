// Package qnn builds trainable quantum layers on top of a device.
//
// A Module applies gates to a device during a forward pass; the device
// records them, so the same pass can be evaluated locally or translated
// and sent to a backend. Parameters are plain float slices with a
// gradient buffer filled by ParameterShift; the optimizer lives in
// internal/optim.
package qnn

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// Parameter is a trainable parameter vector of one gate.
type Parameter struct {
	Name   string
	Kind   gates.Kind // Gate the values feed; selects the gradient rule.
	Values []float64
	Grad   []float64
}

// NewParameter returns a parameter with a zeroed gradient.
func NewParameter(name string, kind gates.Kind, values ...float64) *Parameter {
	return &Parameter{
		Name:   name,
		Kind:   kind,
		Values: slices.Clone(values),
		Grad:   make([]float64, len(values)),
	}
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	clear(p.Grad)
}

// Module is a layer that applies gates to a device.
type Module interface {
	Forward(dev *device.Device) error
	Parameters() []*Parameter
}

// Sequential applies modules in order.
type Sequential []Module

// Forward implements Module.
func (s Sequential) Forward(dev *device.Device) error {
	for i, m := range s {
		if err := m.Forward(dev); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Parameters implements Module.
func (s Sequential) Parameters() []*Parameter {
	var out []*Parameter
	for _, m := range s {
		out = append(out, m.Parameters()...)
	}
	return out
}

// Op is a single gate, either with its own trainable parameter or with
// fixed values.
type Op struct {
	Kind  gates.Kind
	Wires []int
	Param *Parameter
	Fixed []float64
}

// NewTrainableOp returns a gate whose parameters are drawn uniformly from
// [-π, π).
func NewTrainableOp(name string, kind gates.Kind, wires []int, rng *rand.Rand) (*Op, error) {
	if !kind.Parameterized() {
		return nil, qerr.Config("qnn.NewTrainableOp", "%s has no parameters", kind)
	}
	values := make([]float64, kind.NumParams())
	for i := range values {
		values[i] = rng.Float64()*2*math.Pi - math.Pi
	}
	return &Op{Kind: kind, Wires: slices.Clone(wires), Param: NewParameter(name, kind, values...)}, nil
}

// NewFixedOp returns a gate with constant parameters.
func NewFixedOp(kind gates.Kind, wires []int, params ...float64) *Op {
	return &Op{Kind: kind, Wires: slices.Clone(wires), Fixed: slices.Clone(params)}
}

// Forward implements Module.
func (o *Op) Forward(dev *device.Device) error {
	if o.Param == nil {
		return dev.Gate(o.Kind, o.Wires, o.Fixed...)
	}
	spec := gates.New(o.Kind, o.Wires, o.Param.Values...)
	spec.Trainable = true
	return dev.Apply(spec)
}

// Parameters implements Module.
func (o *Op) Parameters() []*Parameter {
	if o.Param == nil {
		return nil
	}
	return []*Parameter{o.Param}
}
