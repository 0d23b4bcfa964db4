package pulse

import (
	"sync"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalSubscribeValues(t *testing.T) {
	count := NewSignal(0)
	rec := &changeRecorder[int]{}
	count.Subscribe(rec.record)

	count.Set(1)
	count.Set(7)

	if rec.calls() != 2 {
		t.Fatalf("expected 2 deliveries, got %d", rec.calls())
	}
	if p := rec.pair(0); p != [2]int{1, 0} {
		t.Errorf("first delivery expected (1, 0), got (%d, %d)", p[0], p[1])
	}
	if p := rec.pair(1); p != [2]int{7, 1} {
		t.Errorf("second delivery expected (7, 1), got (%d, %d)", p[0], p[1])
	}
}

func TestSignalIdempotentWrite(t *testing.T) {
	items := NewSignal([]int{1, 2, 3})
	rec := &changeRecorder[[]int]{}
	items.Subscribe(rec.record)

	// Structurally equal value, fresh allocation.
	items.Set([]int{1, 2, 3})
	if rec.calls() != 0 {
		t.Errorf("structurally equal write should not notify, got %d deliveries", rec.calls())
	}

	items.Set([]int{1, 2, 3, 4})
	if rec.calls() != 1 {
		t.Errorf("expected 1 delivery, got %d", rec.calls())
	}
}

func TestSignalSubscribeOrder(t *testing.T) {
	count := NewSignal(0)
	var order []string
	count.Subscribe(func(int, int) { order = append(order, "first") })
	count.Subscribe(func(int, int) { order = append(order, "second") })
	count.Subscribe(func(int, int) { order = append(order, "third") })

	count.Set(1)

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d deliveries, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("delivery %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	count := NewSignal(0)
	rec := &changeRecorder[int]{}
	unsub := count.Subscribe(rec.record)

	count.Set(1)
	unsub()
	count.Set(2)

	if rec.calls() != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", rec.calls())
	}

	// Double unsubscribe is harmless.
	unsub()
}

func TestSignalTrackedSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 invalidation, got %d", listener.getDirtyCount())
	}

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("equal write should not invalidate, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 invalidations, got %d", listener.getDirtyCount())
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	count := NewSignal(42)
	listener := newTestListener()

	WithListener(listener, func() {
		if v := count.Peek(); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe, got %d invalidations", listener.getDirtyCount())
	}
}

func TestSignalDedupeTrackedReads(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
		_ = count.Get()
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 invalidation for deduplicated reads, got %d", listener.getDirtyCount())
	}
}

func TestSignalCustomEquals(t *testing.T) {
	type user struct {
		ID   int
		Name string
	}

	userSignal := NewSignal(user{ID: 1, Name: "Alice"}).WithEquals(func(a, b user) bool {
		return a.ID == b.ID
	})
	rec := &changeRecorder[user]{}
	userSignal.Subscribe(rec.record)

	userSignal.Set(user{ID: 1, Name: "Alice Smith"})
	if rec.calls() != 0 {
		t.Errorf("same ID should not notify, got %d deliveries", rec.calls())
	}

	userSignal.Set(user{ID: 2, Name: "Bob"})
	if rec.calls() != 1 {
		t.Errorf("expected 1 delivery for new ID, got %d", rec.calls())
	}
}

func TestSignalUpdateNoChange(t *testing.T) {
	count := NewSignal(5)
	rec := &changeRecorder[int]{}
	count.Subscribe(rec.record)

	count.Update(func(n int) int { return n })
	if rec.calls() != 0 {
		t.Errorf("identity update should not notify, got %d deliveries", rec.calls())
	}

	count.Update(func(n int) int { return n + 1 })
	if rec.calls() != 1 {
		t.Errorf("expected 1 delivery, got %d", rec.calls())
	}
	if p := rec.pair(0); p != [2]int{6, 5} {
		t.Errorf("expected (6, 5), got (%d, %d)", p[0], p[1])
	}
}

func TestSignalDispose(t *testing.T) {
	count := NewSignal(3)
	rec := &changeRecorder[int]{}
	count.Subscribe(rec.record)
	listener := newTestListener()
	WithListener(listener, func() {
		_ = count.Get()
	})

	count.Dispose()
	if !count.Disposed() {
		t.Error("expected Disposed() true after Dispose")
	}

	count.Set(9)
	count.Update(func(n int) int { return n + 1 })

	if count.Get() != 3 {
		t.Errorf("disposed signal should keep last value 3, got %d", count.Get())
	}
	if rec.calls() != 0 {
		t.Errorf("disposed signal must not notify, got %d deliveries", rec.calls())
	}
	if listener.getDirtyCount() != 0 {
		t.Errorf("disposed signal must not invalidate, got %d", listener.getDirtyCount())
	}

	// Dispose twice, subscribe after dispose: both no-ops.
	count.Dispose()
	unsub := count.Subscribe(rec.record)
	unsub()
}

func TestSignalNilPointer(t *testing.T) {
	var ptr *int
	s := NewSignal(ptr)
	rec := &changeRecorder[*int]{}
	s.Subscribe(rec.record)

	s.Set(nil)
	if rec.calls() != 0 {
		t.Errorf("nil to nil should not notify, got %d deliveries", rec.calls())
	}

	val := 42
	s.Set(&val)
	if rec.calls() != 1 {
		t.Errorf("expected 1 delivery, got %d", rec.calls())
	}
}

func TestSignalID(t *testing.T) {
	s1 := NewSignal(0)
	s2 := NewSignal(0)

	if s1.ID() == s2.ID() {
		t.Error("signals should have unique IDs")
	}
}

func TestSignalConcurrentReads(t *testing.T) {
	count := NewSignal(0)
	var wg sync.WaitGroup
	const numGoroutines = 50
	const numIterations = 200

	wg.Add(numGoroutines * 2)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				_ = count.Get()
			}
		}()
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				count.Set(id)
			}
		}(i)
	}
	wg.Wait()
}
