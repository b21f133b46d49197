package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/detect"
)

func newServeCmd(state *rootState) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run maestro as a long-lived service",
		Long: `Keep the engine, its store backend, and the signature watcher running.
The watcher re-scans the stack profile when files matching detection
signatures change, and the metrics listener exposes workflow counters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if metricsAddr == "" {
				metricsAddr = state.cfg.Metrics.Addr
			}
			var metricsServer *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
				metricsServer = &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					state.logger.Info("metrics listener started", "addr", metricsAddr)
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						state.logger.Error("metrics listener failed", "error", err)
					}
				}()
			}

			watcher, err := detect.NewWatcher(detect.WatcherConfig{
				Root:   app.root,
				Table:  app.detector.Table(),
				Logger: state.logger,
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer watcher.Stop()

			go func() {
				for path := range watcher.Events() {
					state.logger.Info("signature file changed, rescanning", "path", path)
					profile, err := app.detector.Detect(app.root)
					if err != nil && !errors.Is(err, detect.ErrProfileTooSparse) {
						state.logger.Error("rescan failed", "error", err)
						continue
					}
					if err := detect.SaveProfile(profile, app.profilePath()); err != nil {
						state.logger.Error("cache profile", "error", err)
						continue
					}
					watcher.Reset()
				}
			}()

			fmt.Printf("maestro serving workspace %q (backend: %s)\n", app.workspace, state.cfg.Store.Backend)
			<-ctx.Done()

			if metricsServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				metricsServer.Shutdown(shutdownCtx)
			}
			fmt.Println("maestro shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics (overrides config)")
	return cmd
}
