package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

func benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run engine micro-benchmarks",
		Long: `Run the engine micro-workloads and print per-operation timings:
signal write fan-out, computed chain propagation, and batched bursts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().Int("iterations", 100000, "Iterations per workload")
	cmd.Flags().Int("chain-depth", 8, "Computed chain depth")
	cmd.Flags().Int("fan-out", 16, "Subscribers per signal")
	cmd.Flags().Int("batch-size", 32, "Signals written per batch")

	return cmd
}

func runBench(cfg *Config) error {
	printBanner()
	info("iterations: %d  chain depth: %d  fan-out: %d  batch size: %d",
		cfg.Iterations, cfg.ChainDepth, cfg.FanOut, cfg.BatchSize)
	fmt.Println()

	report("signal write fan-out", cfg.Iterations, benchFanOut(cfg.Iterations, cfg.FanOut))
	report("computed chain", cfg.Iterations, benchChain(cfg.Iterations, cfg.ChainDepth))
	report("batched burst", cfg.Iterations, benchBatch(cfg.Iterations, cfg.BatchSize))

	fmt.Println()
	stats := pulse.Stats()
	success("done: %d writes, %d notifications, %d batch flushes",
		stats.Writes, stats.Notifications, stats.BatchFlushes)
	return nil
}

func report(name string, iterations int, elapsed time.Duration) {
	perOp := elapsed / time.Duration(iterations)
	info("%-24s %12s total  %10s/op", name, elapsed.Round(time.Microsecond), perOp)
}

// benchFanOut measures a single signal delivering to fanOut value
// subscribers on every write.
func benchFanOut(iterations, fanOut int) time.Duration {
	s := pulse.NewSignal(0)
	for i := 0; i < fanOut; i++ {
		s.Subscribe(func(int, int) {})
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		s.Set(i + 1)
	}
	return time.Since(start)
}

// benchChain measures invalidation and pull-recomputation through a
// linear chain of computeds.
func benchChain(iterations, depth int) time.Duration {
	s := pulse.NewSignal(0)
	head := pulse.NewComputed(func() int { return s.Get() + 1 })
	for i := 1; i < depth; i++ {
		prev := head
		head = pulse.NewComputed(func() int { return prev.Get() + 1 })
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		s.Set(i + 1)
		_ = head.Get()
	}
	elapsed := time.Since(start)

	head.Dispose()
	return elapsed
}

// benchBatch measures batched writes across size signals driving one
// reaction per flush.
func benchBatch(iterations, size int) time.Duration {
	signals := make([]*pulse.Signal[int], size)
	for i := range signals {
		signals[i] = pulse.NewSignal(0)
	}
	r := pulse.NewReaction(func() pulse.Cleanup {
		for _, s := range signals {
			_ = s.Get()
		}
		return nil
	})
	defer r.Dispose()

	start := time.Now()
	for i := 0; i < iterations; i++ {
		pulse.Batch(func() {
			for _, s := range signals {
				s.Set(i + 1)
			}
		})
	}
	return time.Since(start)
}
