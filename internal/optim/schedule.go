package optim

import "math"

// CosineAnnealing anneals the learning rate of an optimizer from its
// initial value to a floor along half a cosine over tMax steps:
//
//	lr_t = eta_min + (lr_0 - eta_min) * (1 + cos(π t / tMax)) / 2
//
// After tMax steps the rate stays at the floor.
type CosineAnnealing struct {
	opt    Optimizer
	base   float64
	etaMin float64
	tMax   int
	t      int
}

// NewCosineAnnealing wraps opt, taking its current rate as lr_0.
func NewCosineAnnealing(opt Optimizer, tMax int, etaMin float64) *CosineAnnealing {
	return &CosineAnnealing{opt: opt, base: opt.GetLR(), etaMin: etaMin, tMax: max(tMax, 1)}
}

// Step advances the schedule and sets the optimizer's rate.
func (c *CosineAnnealing) Step() {
	c.t = min(c.t+1, c.tMax)
	lr := c.etaMin + (c.base-c.etaMin)*(1+math.Cos(math.Pi*float64(c.t)/float64(c.tMax)))/2
	c.opt.SetLR(lr)
}

// LastLR returns the rate set by the last Step.
func (c *CosineAnnealing) LastLR() float64 {
	return c.opt.GetLR()
}
