package qnn

import (
	"math"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// Shift rule constants.
const (
	finiteDiffStep = 1e-5

	// Four-term rule for controlled rotations, whose generator has
	// eigenvalues {0, ±1/2}.
	fourTermNear = math.Pi / 2
	fourTermFar  = 3 * math.Pi / 2
)

var (
	fourTermPlus  = (math.Sqrt2 + 1) / (4 * math.Sqrt2)
	fourTermMinus = (math.Sqrt2 - 1) / (4 * math.Sqrt2)
)

// LogSoftmax returns row-wise log-softmax.
func LogSoftmax(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for b, row := range x {
		m := math.Inf(-1)
		for _, v := range row {
			m = max(m, v)
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(v - m)
		}
		lse := m + math.Log(sum)
		r := make([]float64, len(row))
		for i, v := range row {
			r[i] = v - lse
		}
		out[b] = r
	}
	return out
}

// Softmax returns row-wise softmax.
func Softmax(x [][]float64) [][]float64 {
	out := LogSoftmax(x)
	for _, row := range out {
		for i := range row {
			row[i] = math.Exp(row[i])
		}
	}
	return out
}

// NLLLoss returns the mean negative log-likelihood of targets under the
// log-probabilities logp.
func NLLLoss(logp [][]float64, targets []int) (float64, error) {
	const op = "qnn.NLLLoss"
	if len(logp) != len(targets) || len(logp) == 0 {
		return 0, qerr.Config(op, "%d rows for %d targets", len(logp), len(targets))
	}
	var sum float64
	for b, t := range targets {
		if t < 0 || t >= len(logp[b]) {
			return 0, qerr.Config(op, "target %d out of range for %d classes", t, len(logp[b]))
		}
		sum -= logp[b][t]
	}
	return sum / float64(len(targets)), nil
}

// Accuracy returns the fraction of rows whose argmax equals the target.
func Accuracy(scores [][]float64, targets []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	hit := 0
	for b, row := range scores {
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		if b < len(targets) && best == targets[b] {
			hit++
		}
	}
	return float64(hit) / float64(len(scores))
}

// ParameterShift adds ∂f/∂p.Values[i] to p.Grad[i]. Kinds satisfying the
// two-term rule use shifts of ±π/2, controlled rotations use the
// four-term rule, everything else a central difference. f must be
// deterministic for the result to be exact; with sampled f it is an
// unbiased estimate.
func ParameterShift(f func() (float64, error), p *Parameter) error {
	if len(p.Grad) != len(p.Values) {
		p.Grad = make([]float64, len(p.Values))
	}
	eval := func(i int, shift float64) (float64, error) {
		orig := p.Values[i]
		p.Values[i] = orig + shift
		defer func() { p.Values[i] = orig }()
		return f()
	}
	for i := range p.Values {
		var g float64
		switch {
		case gates.ShiftRule(p.Kind):
			up, err := eval(i, math.Pi/2)
			if err != nil {
				return err
			}
			down, err := eval(i, -math.Pi/2)
			if err != nil {
				return err
			}
			g = (up - down) / 2
		case p.Kind == gates.CRX || p.Kind == gates.CRY || p.Kind == gates.CRZ:
			var terms [4]float64
			for j, s := range []float64{fourTermNear, -fourTermNear, fourTermFar, -fourTermFar} {
				v, err := eval(i, s)
				if err != nil {
					return err
				}
				terms[j] = v
			}
			g = fourTermPlus*(terms[0]-terms[1]) - fourTermMinus*(terms[2]-terms[3])
		default:
			up, err := eval(i, finiteDiffStep)
			if err != nil {
				return err
			}
			down, err := eval(i, -finiteDiffStep)
			if err != nil {
				return err
			}
			g = (up - down) / (2 * finiteDiffStep)
		}
		p.Grad[i] += g
	}
	return nil
}

// Gradients runs ParameterShift for every parameter.
func Gradients(f func() (float64, error), params []*Parameter) error {
	for _, p := range params {
		if err := ParameterShift(f, p); err != nil {
			return err
		}
	}
	return nil
}
