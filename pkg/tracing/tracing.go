// Package tracing wraps named pulse batches in OpenTelemetry spans.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// Default tracer name for pulse instrumentation.
const defaultTracerName = "pulse"

// Config configures batch tracing.
type Config struct {
	// TracerName is the name of the tracer (default: "pulse").
	TracerName string

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures batch tracing.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

func defaultTracingConfig() Config {
	return Config{
		TracerName: defaultTracerName,
	}
}

// Tx runs fn inside a named pulse batch wrapped in a span. The span
// records the number of effective writes, deliveries and reaction runs
// the batch caused; an error returned by fn is recorded and sets the
// span status.
//
// The tracer comes from the global OpenTelemetry tracer provider;
// configure it in main before using Tx.
func Tx(ctx context.Context, name string, fn func(ctx context.Context) error, opts ...Option) error {
	cfg := defaultTracingConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	attrs := append([]attribute.KeyValue{
		attribute.String("pulse.tx_name", name),
	}, cfg.Attributes...)

	spanCtx, span := cfg.tracer.Start(
		ctx,
		"pulse.tx",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
	defer span.End()

	before := pulse.Stats()
	var err error
	pulse.TxNamed(name, func() {
		err = fn(spanCtx)
	})
	after := pulse.Stats()

	span.SetAttributes(
		attribute.Int64("pulse.writes", after.Writes-before.Writes),
		attribute.Int64("pulse.notifications", after.Notifications-before.Notifications),
		attribute.Int64("pulse.reaction_runs", after.ReactionRuns-before.ReactionRuns),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
