package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/noise"
)

func newNoiseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Inspect noise calibration profiles",
	}
	cmd.AddCommand(newNoiseListCmd(), newNoiseShowCmd(a))
	return cmd
}

func newNoiseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bundled profiles",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range noise.Builtins() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newNoiseShowCmd(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Validate a profile and print its calibration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if profile != "" {
				cfg.Noise.Profile = profile
			}
			p, err := cfg.NoiseProfile()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile   %s\n", p.Name)
			fmt.Fprintf(out, "factor    %g\n", p.Factor)
			fmt.Fprintf(out, "qubits    %d\n", p.NumQubits())
			fmt.Fprintf(out, "channels  depolarizing=%t thermal=%t readout=%t\n",
				p.Channels.Depolarizing, p.Channels.Thermal, p.Channels.Readout)
			if len(p.IgnoredGates) > 0 {
				fmt.Fprintf(out, "ignored   %s\n", strings.Join(p.IgnoredGates, ", "))
			}
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "qubit\tT1 (us)\tT2 (us)\treadout")
			for _, q := range p.Qubits {
				fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.4f\n", q.Qubit, q.T1*1e6, q.T2*1e6, q.ReadoutError)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "gate\tqubits\terror\tduration (ns)")
			for _, g := range p.Gates {
				qs := "*"
				if len(g.Qubits) > 0 {
					qs = fmt.Sprint(g.Qubits)
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2e\t%.1f\n", g.Gate, qs, g.Error, g.Duration*1e9)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "builtin profile name or YAML path (default from config)")
	return cmd
}
