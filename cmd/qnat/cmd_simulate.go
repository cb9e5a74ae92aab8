package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/circuit"
	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/expval"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/hybrid"
	"github.com/born-ml/quantumnat/internal/translate"
)

// newExecutor builds the configured backend and wraps it in an executor.
func (a *app) newExecutor(ctx context.Context) (*backend.Executor, error) {
	b, err := a.cfg.NewBackend(ctx, a.metrics, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("using backend", slog.String("backend", b.Name()))
	return backend.NewExecutor(b,
		backend.WithExecutorConfig(a.cfg.ExecutorConfig()),
		backend.WithExecutorMetrics(a.metrics),
		backend.WithExecutorLogger(a.logger),
	), nil
}

// newProcessor wraps the configured executor.
func (a *app) newProcessor(ctx context.Context, shots int) (*hybrid.Processor, error) {
	exec, err := a.newExecutor(ctx)
	if err != nil {
		return nil, err
	}
	if shots <= 0 {
		shots = a.cfg.Backend.Shots
	}
	return hybrid.New(exec,
		hybrid.WithShots(shots),
		hybrid.WithSeed(a.cfg.Seed),
		hybrid.WithNoiseName(a.cfg.Noise.Profile),
		hybrid.WithLogger(a.logger),
	), nil
}

// deviceOptions returns the engine settings every device shares.
func (a *app) deviceOptions() []device.Option {
	return []device.Option{
		device.WithParallel(a.cfg.ParallelConfig()),
		device.WithNormCheck(a.cfg.Engine.NormTolerance, a.cfg.Engine.NormHardLimit),
		device.WithWarnings(a.warnings),
		device.WithMetrics(a.metrics),
		device.WithSeed(a.cfg.Seed),
	}
}

// applyRandomGates applies ops random gates that fit on the device.
func applyRandomGates(dev *device.Device, rng *rand.Rand, ops int) error {
	var pool []gates.Kind
	for _, k := range gates.Kinds() {
		if k.NumWires() <= dev.NWires() && k != gates.I {
			pool = append(pool, k)
		}
	}
	for i := 0; i < ops; i++ {
		k := pool[rng.Intn(len(pool))]
		wires := rng.Perm(dev.NWires())[:k.NumWires()]
		params := make([]float64, k.NumParams())
		for j := range params {
			params[j] = (rng.Float64()*2 - 1) * math.Pi
		}
		if err := dev.Gate(k, wires, params...); err != nil {
			return err
		}
	}
	return nil
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		wires      int
		ops        int
		seed       int64
		shots      int
		observable string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a random circuit and compare the analytic and sampled expectation",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs := expval.AllZ(wires)
			if observable != "" {
				p, err := expval.ParsePauli(observable)
				if err != nil {
					return err
				}
				obs = p
			}

			dev, err := device.New(wires, 1, a.deviceOptions()...)
			if err != nil {
				return err
			}
			defer dev.Close()
			if err := applyRandomGates(dev, rand.New(rand.NewSource(seed)), ops); err != nil {
				return err
			}
			res, err := dev.Expval(obs)
			if err != nil {
				return err
			}
			analytic := res.Values[0][0]

			circ, err := translate.FromDevice(dev)
			if err != nil {
				return err
			}
			proc, err := a.newProcessor(cmd.Context(), shots)
			if err != nil {
				return err
			}
			sampled, err := proc.JointExpval(cmd.Context(), []*circuit.Circuit{circ}, obs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "observable  %s\n", obs)
			fmt.Fprintf(out, "gates       %d\n", dev.History().Len())
			fmt.Fprintf(out, "analytic    %+.6f\n", analytic)
			fmt.Fprintf(out, "sampled     %+.6f  (%d shots)\n", sampled[0], proc.Shots())
			fmt.Fprintf(out, "difference  %.6f\n", math.Abs(analytic-sampled[0]))
			return nil
		},
	}
	cmd.Flags().IntVar(&wires, "wires", 3, "number of wires")
	cmd.Flags().IntVar(&ops, "ops", 20, "number of random gates")
	cmd.Flags().Int64Var(&seed, "seed", 1, "circuit seed")
	cmd.Flags().IntVar(&shots, "shots", 0, "shots per circuit (default from config)")
	cmd.Flags().StringVar(&observable, "observable", "", "Pauli string, character i on wire i (default all Z)")
	return cmd
}
