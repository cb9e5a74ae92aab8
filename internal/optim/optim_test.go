package optim_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/optim"
	"github.com/born-ml/quantumnat/internal/qnn"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := qnn.NewParameter("x", gates.RX, 2.0)
	optimizer := optim.NewSGD([]*qnn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	param.Grad[0] = 1.0
	optimizer.Step()

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if !floatEqual(param.Values[0], 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want %f", param.Values[0], 1.9)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	param := qnn.NewParameter("x", gates.RX, 1.0)
	optimizer := optim.NewSGD([]*qnn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1, x = 1 - 0.1 = 0.9
	param.Grad[0] = 1.0
	optimizer.Step()
	if !floatEqual(param.Values[0], 0.9, 1e-12) {
		t.Errorf("step 1: got %f, want 0.9", param.Values[0])
	}

	// Step 2: v = 0.9 + 1 = 1.9, x = 0.9 - 0.19 = 0.71
	optimizer.Step()
	if !floatEqual(param.Values[0], 0.71, 1e-12) {
		t.Errorf("step 2: got %f, want 0.71", param.Values[0])
	}
}

// TestSGD_StateDict tests velocity export and restore.
func TestSGD_StateDict(t *testing.T) {
	param := qnn.NewParameter("x", gates.RY, 1.0, 2.0)
	optimizer := optim.NewSGD([]*qnn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	param.Grad[0], param.Grad[1] = 1, -1
	optimizer.Step()

	state := optimizer.StateDict()
	if len(state["velocity.0"]) != 2 {
		t.Fatalf("velocity.0 = %v, want 2 entries", state["velocity.0"])
	}

	restored := optim.NewSGD([]*qnn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.5})
	if err := restored.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	before := param.Values[0]
	restored.Step()
	// v = 0.5 * 1 + 1 = 1.5
	if !floatEqual(param.Values[0], before-0.15, 1e-12) {
		t.Errorf("restored momentum step: got %f, want %f", param.Values[0], before-0.15)
	}

	if err := restored.LoadStateDict(map[string][]float64{"velocity.0": {1}}); err == nil {
		t.Error("expected length mismatch error")
	}
}

// TestAdam_FirstStep tests that the first Adam step moves by lr·sign(grad).
func TestAdam_FirstStep(t *testing.T) {
	param := qnn.NewParameter("x", gates.RZ, 1.0, -1.0)
	optimizer := optim.NewAdam([]*qnn.Parameter{param}, optim.AdamConfig{LR: 0.1})

	param.Grad[0], param.Grad[1] = 0.5, -3
	optimizer.Step()

	if !floatEqual(param.Values[0], 0.9, 1e-6) {
		t.Errorf("x[0]: got %f, want 0.9", param.Values[0])
	}
	if !floatEqual(param.Values[1], -0.9, 1e-6) {
		t.Errorf("x[1]: got %f, want -0.9", param.Values[1])
	}
	if optimizer.GetTimestep() != 1 {
		t.Errorf("timestep: got %d, want 1", optimizer.GetTimestep())
	}
}

// TestAdam_WeightDecay tests the L2 penalty with a zero gradient.
func TestAdam_WeightDecay(t *testing.T) {
	param := qnn.NewParameter("x", gates.RX, 2.0)
	optimizer := optim.NewAdam([]*qnn.Parameter{param}, optim.AdamConfig{LR: 0.1, WeightDecay: 0.1})
	optimizer.Step()

	if !floatEqual(param.Values[0], 1.9, 1e-6) {
		t.Errorf("decayed: got %f, want 1.9", param.Values[0])
	}
}

// TestAdam_SkipsMissingGradient tests that parameters without a matching
// gradient buffer are left alone.
func TestAdam_SkipsMissingGradient(t *testing.T) {
	param := &qnn.Parameter{Name: "x", Kind: gates.RX, Values: []float64{1}}
	optimizer := optim.NewAdam([]*qnn.Parameter{param}, optim.AdamConfig{})
	optimizer.Step()
	if param.Values[0] != 1 {
		t.Errorf("got %f, want 1", param.Values[0])
	}
}

// TestCosineAnnealing tests the schedule endpoints and midpoint.
func TestCosineAnnealing(t *testing.T) {
	optimizer := optim.NewSGD(nil, optim.SGDConfig{LR: 0.1})
	sched := optim.NewCosineAnnealing(optimizer, 4, 0)

	want := []float64{0.1 * (1 + math.Cos(math.Pi/4)) / 2, 0.05, 0.1 * (1 + math.Cos(3*math.Pi/4)) / 2, 0, 0}
	for i, w := range want {
		sched.Step()
		if !floatEqual(sched.LastLR(), w, 1e-12) {
			t.Errorf("step %d: lr %f, want %f", i+1, sched.LastLR(), w)
		}
	}
}

// TestZeroGrad tests that gradients are cleared.
func TestZeroGrad(t *testing.T) {
	param := qnn.NewParameter("x", gates.RX, 1.0)
	param.Grad[0] = 3
	var opt optim.Optimizer = optim.NewAdam([]*qnn.Parameter{param}, optim.AdamConfig{})
	opt.ZeroGrad()
	if param.Grad[0] != 0 {
		t.Errorf("grad not cleared: %f", param.Grad[0])
	}
}

// TestTraining_ParameterShiftReducesLoss trains a small classifier with
// exact gradients.
func TestTraining_ParameterShiftReducesLoss(t *testing.T) {
	ctx := context.Background()
	model, err := qnn.NewQFCModel(qnn.WithRandomOps(4), qnn.WithModelSeed(5))
	if err != nil {
		t.Fatalf("NewQFCModel: %v", err)
	}

	rng := rand.New(rand.NewSource(2))
	x := make([][]float64, 4)
	targets := make([]int, len(x))
	for b := range x {
		x[b] = make([]float64, 16)
		for i := range x[b] {
			x[b][i] = rng.Float64() * math.Pi
		}
		targets[b] = b % 2
	}
	loss := func() (float64, error) { return model.Loss(ctx, x, targets, false) }

	initial, err := loss()
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.05})
	for step := 0; step < 15; step++ {
		optimizer.ZeroGrad()
		if err := qnn.Gradients(loss, model.Parameters()); err != nil {
			t.Fatalf("gradients: %v", err)
		}
		optimizer.Step()
	}
	final, err := loss()
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if final >= initial {
		t.Errorf("loss did not decrease: %f -> %f", initial, final)
	}
}
