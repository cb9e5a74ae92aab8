package qnn

import (
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/mapping"
)

// MeasureAll reads ⟨Z⟩ on every wire. With a mapping, column c of the
// result holds the wire measured into classical bit c.
type MeasureAll struct {
	mapping *mapping.RegisterMapping
}

// NewMeasureAll returns a measurement in wire order.
func NewMeasureAll() *MeasureAll { return &MeasureAll{} }

// SetMapping sets the classical ordering applied by Reorder.
func (m *MeasureAll) SetMapping(rm *mapping.RegisterMapping) { m.mapping = rm }

// Mapping returns the current mapping, possibly nil.
func (m *MeasureAll) Mapping() *mapping.RegisterMapping { return m.mapping }

// Measure evaluates ⟨Z⟩ analytically on dev and reorders it.
func (m *MeasureAll) Measure(dev *device.Device) ([][]float64, error) {
	z, err := dev.ExpvalZ()
	if err != nil {
		return nil, err
	}
	return m.Reorder(z), nil
}

// Reorder permutes wire-ordered columns into classical-bit order. Bits
// without a mapped wire keep their own column.
func (m *MeasureAll) Reorder(z [][]float64) [][]float64 {
	if !m.mapping.HasClassical() {
		return z
	}
	out := make([][]float64, len(z))
	for b, row := range z {
		r := make([]float64, len(row))
		for c := range r {
			v, ok := m.mapping.C2V[c]
			if !ok || v >= len(row) {
				v = c
			}
			r[c] = row[v]
		}
		out[b] = r
	}
	return out
}
