package noise

import (
	"math"
	"math/rand"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/linalg"
	"github.com/born-ml/quantumnat/internal/statevec"
)

var paulis = [3]linalg.Matrix{
	gates.X.Matrix(nil),
	gates.Y.Matrix(nil),
	gates.Z.Matrix(nil),
}

// Session is the mutable noise state of one circuit evaluation. It is not
// safe for concurrent use; every device owns its own session.
type Session struct {
	model *Model
	clock map[int]float64 // physical qubit -> elapsed time in seconds
	rng   *rand.Rand
}

// Model returns the model the session samples from.
func (s *Session) Model() *Model { return s.model }

// Clock returns the elapsed time on a physical qubit.
func (s *Session) Clock(physical int) float64 { return s.clock[physical] }

// AfterGate injects the error channels of spec into every batch element
// of sv. The gate itself must already have been applied.
func (s *Session) AfterGate(sv *statevec.StateVector, spec gates.GateSpec) error {
	m := s.model
	if !m.Enabled() || m.profile.Ignored(spec.Kind) {
		return nil
	}

	wires := spec.Wires()
	physical := make([]int, len(wires))
	for i, w := range wires {
		physical[i] = m.mapping.Physical(w)
	}
	errRate, duration := m.profile.Gate(spec.Kind, physical)

	// Multi-qubit gates start once every operand is free; the others idle
	// until then.
	var start float64
	for _, p := range physical {
		start = max(start, s.clock[p])
	}
	exposure := make([]float64, len(physical))
	for i, p := range physical {
		exposure[i] = start - s.clock[p] + duration
		s.clock[p] = start + duration
	}

	if m.profile.Channels.Depolarizing {
		if err := s.depolarize(sv, wires, m.scale(errRate)); err != nil {
			return err
		}
	}
	if m.profile.Channels.Thermal {
		for i, w := range wires {
			q, ok := m.profile.Qubit(physical[i])
			if !ok || exposure[i] <= 0 {
				continue
			}
			if err := s.relax(sv, w, q, exposure[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// BeforeMeasure relaxes each of wires from its own clock up to the latest
// clock in the session, when the register is read out. Qubits that went
// idle after their last gate decay for the time they waited.
func (s *Session) BeforeMeasure(sv *statevec.StateVector, wires []int) error {
	m := s.model
	if !m.Enabled() || !m.profile.Channels.Thermal {
		return nil
	}
	var end float64
	for _, t := range s.clock {
		end = max(end, t)
	}
	for _, w := range wires {
		p := m.mapping.Physical(w)
		idle := end - s.clock[p]
		if idle <= 0 {
			continue
		}
		s.clock[p] = end
		q, ok := m.profile.Qubit(p)
		if !ok {
			continue
		}
		if err := s.relax(sv, w, q, idle); err != nil {
			return err
		}
	}
	return nil
}

// depolarize applies a uniformly random Pauli to each operand with a
// per-qubit probability chosen so that at least one error occurs with
// probability p.
func (s *Session) depolarize(sv *statevec.StateVector, wires []int, p float64) error {
	if p <= 0 {
		return nil
	}
	perQubit := 1 - math.Pow(1-p, 1/float64(len(wires)))
	var n int64
	for b := 0; b < sv.Batch(); b++ {
		for _, w := range wires {
			if s.rng.Float64() >= perQubit {
				continue
			}
			pauli := paulis[s.rng.Intn(len(paulis))]
			if err := sv.ApplyElement(b, pauli, []int{w}, nil); err != nil {
				return err
			}
			n++
		}
	}
	s.model.count(ChannelDepolarizing, n)
	return nil
}

// relax samples amplitude damping followed by pure dephasing on one wire
// after it has been exposed for t seconds.
func (s *Session) relax(sv *statevec.StateVector, wire int, q QubitCalibration, t float64) error {
	m := s.model
	gamma := m.scale(1 - math.Exp(-t/q.T1))

	var pz float64
	if rate := 1/q.T2 - 1/(2*q.T1); rate > 0 {
		pz = m.scale((1 - math.Exp(-t*rate)) / 2)
	}

	var jumps, flips int64
	for b := 0; b < sv.Batch(); b++ {
		if gamma > 0 {
			jumped, err := s.dampElement(sv, b, wire, gamma)
			if err != nil {
				return err
			}
			if jumped {
				jumps++
			}
		}
		if pz > 0 && s.rng.Float64() < pz {
			if err := sv.ApplyElement(b, paulis[2], []int{wire}, nil); err != nil {
				return err
			}
			flips++
		}
	}
	m.count(ChannelAmplitudeDamping, jumps)
	m.count(ChannelPhaseDamping, flips)
	return nil
}

// dampElement picks one amplitude damping Kraus branch for batch element
// b and renormalizes. It reports whether the decay branch was taken.
func (s *Session) dampElement(sv *statevec.StateVector, b, wire int, gamma float64) (bool, error) {
	p1 := sv.WireProbability(b, wire)
	if p1 == 0 {
		return false, nil
	}
	pJump := gamma * p1
	k := linalg.New(2)
	jumped := s.rng.Float64() < pJump
	if jumped {
		// K1 = sqrt(γ)|0⟩⟨1| divided by sqrt(γ·p1).
		k.Set(0, 1, complex(1/math.Sqrt(p1), 0))
	} else {
		// K0 = |0⟩⟨0| + sqrt(1-γ)|1⟩⟨1| divided by sqrt(1-γ·p1).
		norm := math.Sqrt(1 - pJump)
		k.Set(0, 0, complex(1/norm, 0))
		k.Set(1, 1, complex(math.Sqrt(1-gamma)/norm, 0))
	}
	return jumped, sv.ApplyElement(b, k, []int{wire}, nil)
}

// ReadoutFlip returns bit, flipped with the readout error probability of
// the physical qubit it was measured on.
func (s *Session) ReadoutFlip(physical, bit int) int {
	p := s.model.ReadoutError(physical)
	if p > 0 && s.rng.Float64() < p {
		s.model.count(ChannelReadout, 1)
		return bit ^ 1
	}
	return bit
}

// Rand exposes the session's random source for sampling that must share
// its seed.
func (s *Session) Rand() *rand.Rand { return s.rng }
