package pulse

import (
	"sync"
	"sync/atomic"
)

// Computed is a cached derivation over other reactive cells.
//
// Invalidation is pushed: when a dependency changes, the computed is
// marked dirty and its own subscribers are invalidated. Recomputation
// is pulled: the compute function runs again on the next Get. A
// computed with value subscribers recomputes eagerly on invalidation so
// the subscribers observe fresh (new, previous) pairs; if the fresh
// value is equal to the cached one, nothing propagates.
//
// Dependencies are diffed per run rather than rebuilt from scratch:
// the dependency map carries the unsubscribe handle for every edge, and
// after a run only the handles for cells that were not read this time
// are released. A dependency read on every run is subscribed exactly
// once for the computed's whole lifetime.
type Computed[T any] struct {
	base    cell
	compute func() T

	mu    sync.RWMutex
	value T
	equal func(a, b T) bool

	pendingOld    T
	pendingQueued bool

	depsMu sync.Mutex
	deps   map[*cell]Unsubscribe
	fresh  map[*cell]struct{} // non-nil only during a recompute

	watchMu  sync.RWMutex
	watchers []watcher[T]

	dirty     atomic.Bool
	computing atomic.Bool
	disposed  atomic.Bool
}

// NewComputed creates a computed cell. The compute function does not
// run until the first Get.
func NewComputed[T any](compute func() T) *Computed[T] {
	m := &Computed[T]{
		base:    newCell(),
		compute: compute,
		equal:   defaultEquals[T],
		deps:    make(map[*cell]Unsubscribe),
	}
	m.dirty.Store(true)
	engineStats.computedsCreated.Add(1)
	registerLive(m.base.id, liveComputed)
	return m
}

// WithEquals sets a custom equality comparator used to decide whether a
// recomputed value counts as a change.
func (m *Computed[T]) WithEquals(equal func(a, b T) bool) *Computed[T] {
	m.mu.Lock()
	m.equal = equal
	m.mu.Unlock()
	return m
}

// ID returns the computed's unique identifier.
func (m *Computed[T]) ID() uint64 {
	return m.base.ID()
}

// Get returns the derived value, recomputing first if a dependency
// changed since the last run. The computed registers itself as a
// dependency of the active reader.
func (m *Computed[T]) Get() T {
	if m.disposed.Load() {
		return m.cached()
	}
	m.base.track()
	if m.dirty.Load() {
		m.recompute()
	}
	return m.cached()
}

// Peek returns the cached value, recomputing if dirty, without
// registering with the active reader.
func (m *Computed[T]) Peek() T {
	if m.disposed.Load() {
		return m.cached()
	}
	if m.dirty.Load() {
		m.recompute()
	}
	return m.cached()
}

func (m *Computed[T]) cached() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// recompute runs the compute function with this computed as the active
// reader and diffs the dependency set against the previous run.
//
// A panic in the compute function propagates to the caller; the cached
// value stays stale, dirty stays set, and the dependency set keeps the
// union of old and partially-tracked edges so the next read retries.
// Returns whether the value changed along with the previous value.
func (m *Computed[T]) recompute() (changed bool, old T) {
	if m.computing.Swap(true) {
		// Re-entrant read during our own compute; return the stale
		// value rather than recurse.
		return false, m.cached()
	}

	m.depsMu.Lock()
	m.fresh = make(map[*cell]struct{}, len(m.deps))
	m.depsMu.Unlock()

	pushReader(m)
	defer func() {
		popReader()
		m.depsMu.Lock()
		m.fresh = nil
		m.depsMu.Unlock()
		m.computing.Store(false)
	}()

	newValue := m.compute()

	// Release edges that were not read this run.
	m.depsMu.Lock()
	for c, unsub := range m.deps {
		if _, ok := m.fresh[c]; !ok {
			unsub()
			delete(m.deps, c)
		}
	}
	m.depsMu.Unlock()

	m.mu.Lock()
	old = m.value
	changed = !m.equal(old, newValue)
	m.value = newValue
	m.mu.Unlock()

	m.dirty.Store(false)
	engineStats.recomputes.Add(1)
	return changed, old
}

// addSource records a dependency edge discovered during a recompute.
// Already-subscribed cells only get marked as fresh.
func (m *Computed[T]) addSource(c *cell) {
	m.depsMu.Lock()
	defer m.depsMu.Unlock()
	if m.fresh != nil {
		m.fresh[c] = struct{}{}
	}
	if _, ok := m.deps[c]; ok {
		return
	}
	m.deps[c] = c.addListener(m)
}

// MarkDirty invalidates the cached value. Without value subscribers the
// invalidation just cascades to tracked listeners and the next Get
// recomputes. With value subscribers the computed recomputes now, and
// propagates only when the value actually changed.
func (m *Computed[T]) MarkDirty() {
	if m.disposed.Load() {
		return
	}
	if !m.dirty.CompareAndSwap(false, true) {
		return
	}

	if !m.hasWatchers() {
		m.base.markListenersDirty()
		return
	}

	changed, old := m.recompute()
	if !changed {
		return
	}
	m.scheduleOrDeliver(m.cached(), old)
}

// scheduleOrDeliver routes a changed recompute result the same way a
// signal write is routed: into the active batch, to the auto-batch
// scheduler, or synchronously.
func (m *Computed[T]) scheduleOrDeliver(newValue, oldValue T) {
	tc := getTrackingContext()

	if tc.batchDepth > 0 {
		m.mu.Lock()
		first := !m.pendingQueued
		if first {
			m.pendingQueued = true
			m.pendingOld = oldValue
		}
		m.mu.Unlock()
		if first {
			tc.pending = append(tc.pending, m)
		}
		return
	}

	if autoBatchEnabled() && tc.cascadeDepth == 0 {
		m.mu.Lock()
		first := !m.pendingQueued
		if first {
			m.pendingQueued = true
			m.pendingOld = oldValue
		}
		m.mu.Unlock()
		if first {
			queueAutoPending(m)
		}
		return
	}

	m.deliver(newValue, oldValue)
}

func (m *Computed[T]) deliver(newValue, oldValue T) {
	tc := getTrackingContext()
	withCascade(tc, func() {
		m.notifyWatchers(newValue, oldValue)
		m.base.markListenersDirty()
	})
	engineStats.notifications.Add(1)
}

// flush delivers a buffered invalidation from a batch: the current
// value against the value cached before the batch.
func (m *Computed[T]) flush() {
	m.mu.Lock()
	if !m.pendingQueued {
		m.mu.Unlock()
		return
	}
	m.pendingQueued = false
	old := m.pendingOld
	var zero T
	m.pendingOld = zero
	cur := m.value
	m.mu.Unlock()

	if m.disposed.Load() || m.equal(cur, old) {
		return
	}
	m.notifyWatchers(cur, old)
	m.base.markListenersDirty()
	engineStats.notifications.Add(1)
}

// Subscribe registers a value callback invoked with (new, previous)
// whenever the derived value changes. Subscribing evaluates the
// computed once so the subscription is wired to live dependencies.
func (m *Computed[T]) Subscribe(fn func(newValue, oldValue T)) Unsubscribe {
	if m.disposed.Load() {
		return func() {}
	}
	if m.dirty.Load() {
		m.recompute()
	}

	w := watcher[T]{id: nextID(), fn: fn}
	m.watchMu.Lock()
	m.watchers = append(m.watchers, w)
	m.watchMu.Unlock()

	return func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		for i := range m.watchers {
			if m.watchers[i].id == w.id {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				return
			}
		}
	}
}

func (m *Computed[T]) hasWatchers() bool {
	m.watchMu.RLock()
	defer m.watchMu.RUnlock()
	return len(m.watchers) > 0
}

func (m *Computed[T]) notifyWatchers(newValue, oldValue T) {
	m.watchMu.RLock()
	if len(m.watchers) == 0 {
		m.watchMu.RUnlock()
		return
	}
	snapshot := make([]watcher[T], len(m.watchers))
	copy(snapshot, m.watchers)
	m.watchMu.RUnlock()

	for _, w := range snapshot {
		w.fn(newValue, oldValue)
	}
}

// Dispose releases every dependency subscription and deactivates the
// computed. Reads keep returning the last cached value; invalidations
// and further Subscribe calls are no-ops.
func (m *Computed[T]) Dispose() {
	if m.disposed.Swap(true) {
		return
	}
	m.depsMu.Lock()
	for c, unsub := range m.deps {
		unsub()
		delete(m.deps, c)
	}
	m.depsMu.Unlock()

	m.base.clearListeners()
	m.watchMu.Lock()
	m.watchers = nil
	m.watchMu.Unlock()

	markDisposed(m.base.id)
	engineStats.disposals.Add(1)
}

// Disposed reports whether the computed has been disposed.
func (m *Computed[T]) Disposed() bool {
	return m.disposed.Load()
}
