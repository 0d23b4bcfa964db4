// Package metrics exports the pulse engine counters as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// Config configures the collector.
type Config struct {
	// Namespace for all metric names (default: "pulse").
	Namespace string

	// Subsystem for all metric names (default: "engine").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		c.Namespace = ns
	}
}

// WithSubsystem sets the metric subsystem.
func WithSubsystem(sub string) Option {
	return func(c *Config) {
		c.Subsystem = sub
	}
}

// WithConstLabels sets constant labels applied to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "pulse",
		Subsystem: "engine",
	}
}

// Collector is a prometheus.Collector over the engine's cumulative
// counters. Collection reads the counters at scrape time; nothing is
// sampled in between.
type Collector struct {
	signalsCreated   *prometheus.Desc
	computedsCreated *prometheus.Desc
	reactionsCreated *prometheus.Desc
	writes           *prometheus.Desc
	notifications    *prometheus.Desc
	batchFlushes     *prometheus.Desc
	recomputes       *prometheus.Desc
	reactionRuns     *prometheus.Desc
	disposals        *prometheus.Desc
	liveTracked      *prometheus.Desc
}

// NewCollector creates a collector for the engine counters.
func NewCollector(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, name),
			help,
			nil,
			cfg.ConstLabels,
		)
	}

	return &Collector{
		signalsCreated:   desc("signals_created_total", "Signals created since process start."),
		computedsCreated: desc("computeds_created_total", "Computeds created since process start."),
		reactionsCreated: desc("reactions_created_total", "Reactions created since process start."),
		writes:           desc("writes_total", "Effective signal writes (equality-dropped writes excluded)."),
		notifications:    desc("notifications_total", "Change deliveries, one per cell per flush."),
		batchFlushes:     desc("batch_flushes_total", "Batch and auto-batch flushes."),
		recomputes:       desc("recomputes_total", "Computed recompute runs."),
		reactionRuns:     desc("reaction_runs_total", "Reaction runs."),
		disposals:        desc("disposals_total", "Disposed cells and reactions."),
		liveTracked:      desc("live_tracked_nodes", "Undisposed tracked nodes (requires disposal tracking)."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.signalsCreated
	ch <- c.computedsCreated
	ch <- c.reactionsCreated
	ch <- c.writes
	ch <- c.notifications
	ch <- c.batchFlushes
	ch <- c.recomputes
	ch <- c.reactionRuns
	ch <- c.disposals
	ch <- c.liveTracked
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := pulse.Stats()

	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.signalsCreated, stats.SignalsCreated)
	counter(c.computedsCreated, stats.ComputedsCreated)
	counter(c.reactionsCreated, stats.ReactionsCreated)
	counter(c.writes, stats.Writes)
	counter(c.notifications, stats.Notifications)
	counter(c.batchFlushes, stats.BatchFlushes)
	counter(c.recomputes, stats.Recomputes)
	counter(c.reactionRuns, stats.ReactionRuns)
	counter(c.disposals, stats.Disposals)
	ch <- prometheus.MustNewConstMetric(c.liveTracked, prometheus.GaugeValue, float64(stats.LiveTracked))
}

// MustRegister creates a collector and registers it with reg, panicking
// on registration conflicts.
func MustRegister(reg prometheus.Registerer, opts ...Option) *Collector {
	c := NewCollector(opts...)
	reg.MustRegister(c)
	return c
}
