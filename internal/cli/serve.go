package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jfenske/worldwise/internal/config"
	"github.com/jfenske/worldwise/internal/domain"
	"github.com/jfenske/worldwise/internal/server"
)

// NewServeCommand creates the serve command: an in-memory implementation of
// the city service contract, for developing and demoing the client without a
// real deployment. State lives for the life of the process only.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dev city service on the configured port",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
				level = slog.LevelInfo
			}
			log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(log)

			var seed []domain.City
			if cfg.Serve.SeedFile != "" {
				seed, err = server.LoadSeed(cfg.Serve.SeedFile)
				if err != nil {
					return err
				}
				log.Info("seed loaded", "file", cfg.Serve.SeedFile, "cities", len(seed))
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			handler := server.NewHandler(server.NewMemRepo(seed), log, server.Options{
				CORSOrigins:  cfg.Serve.CORSOrigins,
				MaxBodyBytes: cfg.Serve.MaxBodyBytes,
				Registry:     reg,
			})

			// Explicit timeouts prevent slowloris and resource exhaustion.
			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Serve.Port),
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown: wait for a signal, then give in-flight
			// requests up to 15 seconds to finish.
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				log.Info("dev city service starting", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-stop:
			}
			log.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info("stopped")
			return nil
		},
	}
}
