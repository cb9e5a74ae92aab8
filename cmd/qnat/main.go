// Package main provides the quantumnat CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/config"
	"github.com/born-ml/quantumnat/internal/metrics"
	"github.com/born-ml/quantumnat/internal/qerr"
)

const version = "v0.1.0-dev"

// app carries state shared by every command once the root command has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string

	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	warnings *qerr.Warnings
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "qnat",
		Short: "Noise-aware quantum circuit simulation and backend cross-validation",
		Long: `qnat simulates batched parameterized quantum circuits, runs them on
ideal, noisy or remote backends and compares the results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.warnings != nil && a.warnings.Total() > 0 {
				a.warnings.Report(a.logger)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newSimulateCmd(a),
		newCrossvalCmd(a),
		newNoiseCmd(a),
		newServeCmd(a),
		newCheckpointCmd(),
	)
	return root
}

// init loads configuration and builds the logger and collectors.
func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	a.warnings = qerr.NewWarnings()
	a.logger.Debug("configuration loaded", slog.String("config", cfg.String()))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quantumnat %s\n", version)
		},
	}
}
