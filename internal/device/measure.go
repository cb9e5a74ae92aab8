package device

import (
	"math/rand"
	"sort"

	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/qerr"
	"github.com/born-ml/quantumnat/internal/statevec"
)

// measure moves a Building device through Frozen so local measurement
// observes a closed circuit. Executed devices may be read again.
func (d *Device) measure(op string) error {
	switch d.state {
	case Building:
		if err := d.Freeze(); err != nil {
			return err
		}
		return d.MarkExecuted()
	case Frozen:
		return d.MarkExecuted()
	case Executed:
		return nil
	}
	return qerr.State(op, "device is %s", d.state)
}

// ExpvalZ returns ⟨Z_w⟩ for every batch element and wire, shape
// (batch, nWires).
func (d *Device) ExpvalZ() ([][]float64, error) {
	if err := d.measure("device.ExpvalZ"); err != nil {
		return nil, err
	}
	out := make([][]float64, d.batch)
	for b := range out {
		row := make([]float64, d.nWires)
		for w := range row {
			row[w] = 1 - 2*d.sv.WireProbability(b, w)
		}
		out[b] = row
	}
	return out, nil
}

// Expval evaluates Pauli observables analytically on every batch element.
func (d *Device) Expval(observables ...expval.Pauli) (*expval.Result, error) {
	if err := d.measure("device.Expval"); err != nil {
		return nil, err
	}
	res := &expval.Result{
		Values:      make([][]float64, d.batch),
		Observables: make([]string, len(observables)),
		Method:      expval.MethodAnalytic,
	}
	for b := range res.Values {
		res.Values[b] = make([]float64, len(observables))
	}
	for j, p := range observables {
		res.Observables[j] = string(p)
		vals, err := expval.Analytic(d.sv, p)
		if err != nil {
			return nil, err
		}
		for b, v := range vals {
			res.Values[b][j] = v
		}
	}
	return res, nil
}

// Probabilities returns the basis-state probabilities in internal order.
func (d *Device) Probabilities() ([][]float64, error) {
	if err := d.measure("device.Probabilities"); err != nil {
		return nil, err
	}
	return d.sv.Probabilities(), nil
}

// Sample draws shots outcomes per batch element and returns counts keyed
// by internal amplitude index. In noisy mode each measured bit passes
// through the readout channel of its physical qubit.
func (d *Device) Sample(shots int, rng *rand.Rand) ([]map[int]int, error) {
	const op = "device.Sample"
	if shots < 1 {
		return nil, qerr.Config(op, "shots %d must be positive", shots)
	}
	if err := d.measure(op); err != nil {
		return nil, err
	}
	readout := d.Noisy() && d.session != nil && d.noise.Profile().Channels.Readout

	probs := d.sv.Probabilities()
	out := make([]map[int]int, d.batch)
	cdf := make([]float64, d.sv.Dim())
	for b := range out {
		var acc float64
		for i, p := range probs[b] {
			acc += p
			cdf[i] = acc
		}
		counts := make(map[int]int)
		for s := 0; s < shots; s++ {
			idx := sort.SearchFloat64s(cdf, rng.Float64()*acc)
			idx = min(idx, len(cdf)-1)
			if readout {
				idx = d.readout(idx)
			}
			counts[idx]++
		}
		out[b] = counts
	}
	return out, nil
}

func (d *Device) readout(idx int) int {
	m := d.noise.Mapping()
	for w := 0; w < d.nWires; w++ {
		bit := statevec.Bit(idx, w, d.nWires)
		if d.session.ReadoutFlip(m.Physical(w), bit) != bit {
			idx ^= 1 << (d.nWires - 1 - w)
		}
	}
	return idx
}

// States1D returns a copy of every element's amplitudes in internal
// order. It does not change the lifecycle state.
func (d *Device) States1D() ([][]complex128, error) {
	if d.sv == nil {
		return nil, qerr.State("device.States1D", "device is %s", d.state)
	}
	out := make([][]complex128, d.batch)
	for b := range out {
		out[b] = d.sv.Amplitudes(b)
	}
	return out, nil
}
