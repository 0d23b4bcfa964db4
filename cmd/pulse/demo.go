package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pulse-dev/pulse/pkg/metrics"
	"github.com/pulse-dev/pulse/pkg/pulse"
	"github.com/pulse-dev/pulse/pkg/tracing"
)

var sensorNames = []string{"intake", "core", "exhaust"}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a small reactive pipeline",
		Long: `Run a reactive pipeline: a collection of sensor signals, a computed
average, and a reaction logging every change. Each tick writes the
sensors inside a traced batch. With --metrics-addr the engine counters
are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("metrics-addr", "", "Address for the Prometheus endpoint (empty disables it)")
	cmd.Flags().String("interval", "250ms", "Tick interval")
	cmd.Flags().Int("count", 0, "Number of ticks to run (0 runs until interrupted)")
	cmd.Flags().Bool("verbose", false, "Enable debug logging")

	return cmd
}

func runDemo(ctx context.Context, cfg *Config) error {
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", cfg.Interval, err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
		pulse.Debug.LogBatchFlushes = true
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	pulse.Debug.TrackDisposal = true

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs after the pipeline's dispose defers; reports anything the
	// demo forgot to release.
	defer logLeaks(logger)

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// The pipeline: named sensor signals, an averaging computed, a
	// logging reaction.
	sensors := pulse.NewCollection[float64]()
	for _, name := range sensorNames {
		sensors.Set(name, 20.0)
	}

	average := pulse.NewComputed(func() float64 {
		var sum float64
		for _, name := range sensorNames {
			if sig, ok := sensors.Get(name); ok {
				sum += sig.Get()
			}
		}
		return sum / float64(len(sensorNames))
	})
	defer average.Dispose()

	watcher := pulse.NewReaction(func() pulse.Cleanup {
		logger.Info("average changed", "value", fmt.Sprintf("%.2f", average.Get()))
		return nil
	})
	defer watcher.Dispose()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tick(ctx, sensors); err != nil {
				return err
			}
			ticks++
			if cfg.Count > 0 && ticks >= cfg.Count {
				return nil
			}
		}
	}
}

// tick writes a random walk to every sensor inside one traced batch,
// so the average recomputes and the reaction logs exactly once.
func tick(ctx context.Context, sensors *pulse.Collection[float64]) error {
	return tracing.Tx(ctx, "tick", func(context.Context) error {
		for _, name := range sensorNames {
			sig, ok := sensors.Get(name)
			if !ok {
				return fmt.Errorf("sensor %s missing", name)
			}
			sig.Update(func(v float64) float64 {
				return v + (rand.Float64()-0.5)*2
			})
		}
		return nil
	})
}

func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func logLeaks(logger *slog.Logger) {
	if n := pulse.LogLeaks(logger); n > 0 {
		logger.Warn("undisposed reactive nodes at shutdown", "count", n)
	}
}
