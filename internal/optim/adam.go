package optim

import (
	"math"

	"github.com/born-ml/quantumnat/internal/qnn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	g   = gradient + weight_decay * param               // L2 penalty
//	m_t = beta1 * m_{t-1} + (1-beta1) * g               // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²              // Second moment
//	m_hat = m_t / (1 - beta1^t)                         // Bias correction
//	v_hat = v_t / (1 - beta2^t)                         // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)    // Parameter update
//
// Rotation angles are periodic, so Adam's per-coordinate step size suits
// the flat regions parameter-shift gradients often report.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params      []*qnn.Parameter
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	t           int                          // Timestep for bias correction
	m           map[*qnn.Parameter][]float64 // First moment estimates
	v           map[*qnn.Parameter][]float64 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR          float64    // Learning rate (default: 0.001)
	Betas       [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps         float64    // Term for numerical stability (default: 1e-8)
	WeightDecay float64    // L2 penalty (default: 0)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(params []*qnn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make(map[*qnn.Parameter][]float64),
		v:           make(map[*qnn.Parameter][]float64),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// Parameters whose gradient buffer does not match their values are
// skipped.
func (a *Adam) Step() {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		if !hasGrad(param) {
			continue
		}
		m, ok := a.m[param]
		if !ok {
			m = make([]float64, len(param.Values))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float64, len(param.Values))
			a.v[param] = v
		}
		a.updateParameter(param, m, v, biasCorrection1, biasCorrection2)
	}
}

// updateParameter performs Adam update for a single parameter.
func (a *Adam) updateParameter(param *qnn.Parameter, m, v []float64, biasCorrection1, biasCorrection2 float64) {
	for i := range param.Values {
		g := param.Grad[i] + a.weightDecay*param.Values[i]

		m[i] = a.beta1*m[i] + (1.0-a.beta1)*g
		v[i] = a.beta2*v[i] + (1.0-a.beta2)*g*g

		mHat := m[i] / biasCorrection1
		vHat := v[i] / biasCorrection2

		param.Values[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	zeroGrad(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam) GetTimestep() int {
	return a.t
}
