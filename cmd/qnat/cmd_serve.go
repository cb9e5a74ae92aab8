package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/config"
	"github.com/born-ml/quantumnat/internal/qerr"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured simulator over the remote backend protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Backend.Kind == config.KindRemote {
				return qerr.Config("serve", "cannot serve a remote backend")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := a.cfg.NewBackend(ctx, a.metrics, a.logger)
			if err != nil {
				return err
			}
			mux := http.NewServeMux()
			mux.Handle("/v1/", backend.NewRemoteServer(b, a.logger))
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
			srv := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("serving backend",
					slog.String("addr", addr),
					slog.String("backend", b.Name()))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
