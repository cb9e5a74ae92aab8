package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/device"
	"github.com/born-ml/quantumnat/internal/gates"
	"github.com/born-ml/quantumnat/internal/noise"
)

func newCrossvalCmd(a *app) *cobra.Command {
	var (
		wires      int
		ops        int
		batch      int
		seed       int64
		shots      int
		localNoise bool
	)
	cmd := &cobra.Command{
		Use:   "crossval",
		Short: "Compare local per-wire <Z> against the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.deviceOptions()
			var model *noise.Model
			if localNoise {
				m, err := a.cfg.NoiseModel(noise.WithLogger(a.logger), noise.WithMetrics(a.metrics))
				if err != nil {
					return err
				}
				model = m
				opts = append(opts, device.WithNoise(model))
			}

			dev, err := device.New(wires, batch, opts...)
			if err != nil {
				return err
			}
			defer dev.Close()

			rng := rand.New(rand.NewSource(seed))
			for w := 0; w < wires; w++ {
				angles := make([][]float64, batch)
				for b := range angles {
					angles[b] = []float64{rng.Float64() * math.Pi}
				}
				if err := dev.GateBatched(gates.RY, []int{w}, angles, false); err != nil {
					return err
				}
			}
			if err := applyRandomGates(dev, rng, ops); err != nil {
				return err
			}

			proc, err := a.newProcessor(cmd.Context(), shots)
			if err != nil {
				return err
			}
			remote, err := proc.RunDevice(cmd.Context(), dev)
			if err != nil {
				return err
			}
			local, err := dev.ExpvalZ()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "batch\twire\tlocal\tbackend\t|diff|")
			var maxDiff float64
			for b := range local {
				for w := range local[b] {
					d := math.Abs(local[b][w] - remote[b][w])
					maxDiff = math.Max(maxDiff, d)
					fmt.Fprintf(tw, "%d\t%d\t%+.4f\t%+.4f\t%.4f\n", b, w, local[b][w], remote[b][w], d)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "max |diff| %.6f over %d shots\n", maxDiff, proc.Shots())
			a.logger.Info("cross-validation finished",
				slog.Float64("max_diff", maxDiff),
				slog.Bool("local_noise", localNoise))
			if model != nil {
				model.Report()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&wires, "wires", 4, "number of wires")
	cmd.Flags().IntVar(&ops, "ops", 20, "number of random gates after the input encoding")
	cmd.Flags().IntVar(&batch, "batch", 4, "batch size")
	cmd.Flags().Int64Var(&seed, "seed", 1, "circuit seed")
	cmd.Flags().IntVar(&shots, "shots", 0, "shots per circuit (default from config)")
	cmd.Flags().BoolVar(&localNoise, "local-noise", false, "inject the configured noise model into the local simulation")
	return cmd
}
