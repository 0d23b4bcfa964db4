package pulse

import (
	"sync"
	"sync/atomic"
)

// watcher is a value subscription: a callback receiving the new and
// previous values on every effective change.
type watcher[T any] struct {
	id uint64
	fn func(newValue, oldValue T)
}

// Signal is a mutable reactive cell holding a value of type T.
//
// Reads inside a tracked context (a computed recomputation, a reaction
// run, or WithListener) subscribe the reader; writes notify subscribers
// synchronously and in subscription order, unless a batch is active, in
// which case the signal is queued and flushed once at batch exit with
// its final value and the value it held before the batch.
type Signal[T any] struct {
	base cell

	mu    sync.RWMutex
	value T
	equal func(a, b T) bool

	// pendingOld is the value held before the first buffered write of
	// the current batch or auto-batch turn; valid while pendingQueued.
	pendingOld    T
	pendingQueued bool

	watchMu  sync.RWMutex
	watchers []watcher[T]

	disposed atomic.Bool
}

// NewSignal creates a signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	s := &Signal[T]{
		base:  newCell(),
		value: initial,
		equal: defaultEquals[T],
	}
	engineStats.signalsCreated.Add(1)
	return s
}

// WithEquals sets a custom equality comparator and returns the signal
// for chaining. Writes producing an equal value notify nobody.
func (s *Signal[T]) WithEquals(equal func(a, b T) bool) *Signal[T] {
	s.mu.Lock()
	s.equal = equal
	s.mu.Unlock()
	return s
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 {
	return s.base.ID()
}

// Get returns the current value and registers the signal as a
// dependency of the active reader, if any.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	v := s.value
	s.mu.RUnlock()

	if !s.disposed.Load() {
		s.base.track()
	}
	return v
}

// Peek returns the current value without dependency tracking.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set writes a new value. Equal values (per the signal's comparator) are
// dropped without notifying. On a disposed signal Set is a no-op.
func (s *Signal[T]) Set(v T) {
	if s.disposed.Load() {
		return
	}
	s.mu.Lock()
	old := s.value
	if s.equal(old, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.finishWrite(old)
}

// Update applies fn to the current value and writes the result. The
// read-modify-write is atomic with respect to other writers.
func (s *Signal[T]) Update(fn func(T) T) {
	if s.disposed.Load() {
		return
	}
	s.mu.Lock()
	old := s.value
	v := fn(old)
	if s.equal(old, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.finishWrite(old)
}

// finishWrite routes an effective write: enqueue into the active batch,
// hand off to the auto-batch scheduler, or deliver synchronously.
// Called with s.mu held; releases it.
func (s *Signal[T]) finishWrite(old T) {
	engineStats.writes.Add(1)
	tc := getTrackingContext()

	if tc.batchDepth > 0 {
		first := !s.pendingQueued
		if first {
			s.pendingQueued = true
			s.pendingOld = old
		}
		s.mu.Unlock()
		if first {
			tc.pending = append(tc.pending, s)
		}
		return
	}

	if autoBatchEnabled() && tc.cascadeDepth == 0 {
		first := !s.pendingQueued
		if first {
			s.pendingQueued = true
			s.pendingOld = old
		}
		s.mu.Unlock()
		if first {
			queueAutoPending(s)
		}
		return
	}

	cur := s.value
	s.mu.Unlock()
	s.deliver(cur, old)
}

// deliver notifies value subscribers and tracked listeners for one
// effective change, then lets queued reactions run if this cascade is
// the outermost one.
func (s *Signal[T]) deliver(newValue, oldValue T) {
	tc := getTrackingContext()
	withCascade(tc, func() {
		s.notifyWatchers(newValue, oldValue)
		s.base.markListenersDirty()
	})
	engineStats.notifications.Add(1)
}

// flush delivers the buffered batch write: the current value paired
// with the value held before the batch. If the value was written back
// to its pre-batch state the flush is silent. The caller holds the
// cascade open.
func (s *Signal[T]) flush() {
	s.mu.Lock()
	if !s.pendingQueued {
		s.mu.Unlock()
		return
	}
	s.pendingQueued = false
	old := s.pendingOld
	var zero T
	s.pendingOld = zero
	cur := s.value
	s.mu.Unlock()

	if s.disposed.Load() || s.equal(cur, old) {
		return
	}
	s.notifyWatchers(cur, old)
	s.base.markListenersDirty()
	engineStats.notifications.Add(1)
}

// Subscribe registers a value callback invoked with (new, previous) on
// every effective change. The returned handle removes the subscription.
func (s *Signal[T]) Subscribe(fn func(newValue, oldValue T)) Unsubscribe {
	if s.disposed.Load() {
		return func() {}
	}
	w := watcher[T]{id: nextID(), fn: fn}
	s.watchMu.Lock()
	s.watchers = append(s.watchers, w)
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		for i := range s.watchers {
			if s.watchers[i].id == w.id {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				return
			}
		}
	}
}

func (s *Signal[T]) notifyWatchers(newValue, oldValue T) {
	s.watchMu.RLock()
	if len(s.watchers) == 0 {
		s.watchMu.RUnlock()
		return
	}
	snapshot := make([]watcher[T], len(s.watchers))
	copy(snapshot, s.watchers)
	s.watchMu.RUnlock()

	for _, w := range snapshot {
		w.fn(newValue, oldValue)
	}
}

// Dispose permanently deactivates the signal. Subsequent Set/Update
// calls are no-ops, no subscriber is ever notified again, and reads
// keep returning the last value without tracking.
func (s *Signal[T]) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.base.clearListeners()
	s.watchMu.Lock()
	s.watchers = nil
	s.watchMu.Unlock()
	engineStats.disposals.Add(1)
}

// Disposed reports whether the signal has been disposed.
func (s *Signal[T]) Disposed() bool {
	return s.disposed.Load()
}
