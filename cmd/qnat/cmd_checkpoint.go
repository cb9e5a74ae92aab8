package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/serialization"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect .qnat parameter checkpoints",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show FILE",
		Short: "Verify a checkpoint and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := serialization.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model     %s\n", ck.ModelType)
			fmt.Fprintf(out, "created   %s\n", ck.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			if m := ck.Meta; m != nil {
				fmt.Fprintf(out, "epoch     %d (loss %.4f, lr %.3g, %s)\n", m.Epoch, m.Loss, m.LR, m.OptimizerType)
				if m.NoiseProfile != "" {
					fmt.Fprintf(out, "noise     %s x%g\n", m.NoiseProfile, m.NoiseFactor)
				}
			}
			fmt.Fprintf(out, "optimizer %d state vectors\n\n", len(ck.Optimizer))

			names := make([]string, 0, len(ck.Params))
			for name := range ck.Params {
				names = append(names, name)
			}
			sort.Strings(names)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "parameter\tkind\tvalues")
			for _, name := range names {
				kind := "-"
				if k, ok := ck.Kinds[name]; ok {
					kind = k.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%.4f\n", name, kind, ck.Params[name])
			}
			return tw.Flush()
		},
	})
	return cmd
}
