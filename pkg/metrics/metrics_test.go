package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

func TestCollectorGather(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	MustRegister(reg)

	// Drive the engine so the counters are non-zero.
	s := pulse.NewSignal(0)
	s.Subscribe(func(int, int) {})
	s.Set(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	got := map[string]bool{}
	for _, mf := range families {
		got[mf.GetName()] = true
	}

	want := []string{
		"pulse_engine_signals_created_total",
		"pulse_engine_writes_total",
		"pulse_engine_notifications_total",
		"pulse_engine_batch_flushes_total",
		"pulse_engine_reaction_runs_total",
		"pulse_engine_live_tracked_nodes",
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("missing metric family %s", name)
		}
	}
}

func TestCollectorOptions(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	MustRegister(reg,
		WithNamespace("app"),
		WithSubsystem("reactive"),
		WithConstLabels(prometheus.Labels{"component": "core"}),
	)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metric families")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "app_reactive_") {
			t.Errorf("expected app_reactive_ prefix, got %s", mf.GetName())
		}
	}
}

func TestMustRegisterConflictPanics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	MustRegister(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	MustRegister(reg)
}
