package pulse

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Reaction is an eager side-effecting subscriber: it runs once at
// construction, tracks every cell it reads, and re-runs whenever one of
// them changes. The body may return a Cleanup that runs before the next
// run and once more on disposal.
//
// Unlike a computed, a reaction re-tracks from scratch on every run:
// all subscription handles are released before the body executes.
type Reaction struct {
	id      uint64
	fn      func() Cleanup
	cleanup Cleanup

	depsMu sync.Mutex
	deps   map[*cell]Unsubscribe

	active   atomic.Bool
	pending  atomic.Bool
	disposed atomic.Bool
}

// NewReaction creates a reaction and runs it immediately. A panic in
// the first run propagates to the caller.
func NewReaction(fn func() Cleanup) *Reaction {
	r := &Reaction{
		id:   nextID(),
		fn:   fn,
		deps: make(map[*cell]Unsubscribe),
	}
	r.active.Store(true)
	engineStats.reactionsCreated.Add(1)
	registerLive(r.id, liveReaction)
	r.run()
	return r
}

// ID returns the reaction's unique identifier.
func (r *Reaction) ID() uint64 {
	return r.id
}

// MarkDirty schedules a re-run. Inside a cascade the run is deferred
// until invalidation finishes, so a reaction observing several changed
// cells from one flush runs exactly once.
func (r *Reaction) MarkDirty() {
	if r.disposed.Load() || !r.active.Load() {
		return
	}
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	tc := getTrackingContext()
	if tc.cascadeDepth > 0 {
		tc.queueReaction(r)
		return
	}
	r.run()
}

// run executes one full pass: pending cleanup, release of every
// dependency handle, then the body under tracking. A panic in the body
// propagates to whatever triggered the run; the cleanup slot stays
// empty and the partially tracked dependencies keep the reaction live.
func (r *Reaction) run() {
	if r.disposed.Load() || !r.active.Load() {
		return
	}
	r.pending.Store(false)

	if r.cleanup != nil {
		c := r.cleanup
		r.cleanup = nil
		c()
	}
	r.releaseDeps()

	pushReader(r)
	defer popReader()
	r.cleanup = r.fn()

	engineStats.reactionRuns.Add(1)
	if Debug.LogReactionRuns {
		slog.Debug("pulse: reaction run", "id", r.id)
	}
}

// addSource records a dependency edge discovered during a run.
func (r *Reaction) addSource(c *cell) {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	if _, ok := r.deps[c]; ok {
		return
	}
	r.deps[c] = c.addListener(r)
}

func (r *Reaction) releaseDeps() {
	r.depsMu.Lock()
	defer r.depsMu.Unlock()
	for c, unsub := range r.deps {
		unsub()
		delete(r.deps, c)
	}
}

// Pause suspends the reaction: dependency changes are ignored entirely
// while paused, not queued.
func (r *Reaction) Pause() {
	r.active.Store(false)
	r.pending.Store(false)
}

// Resume reactivates a paused reaction and performs one immediate run
// to catch up with whatever changed while it was paused.
func (r *Reaction) Resume() {
	if r.disposed.Load() {
		return
	}
	if r.active.CompareAndSwap(false, true) {
		r.run()
	}
}

// Dispose runs the pending cleanup once, releases every subscription
// and permanently deactivates the reaction.
func (r *Reaction) Dispose() {
	if r.disposed.Swap(true) {
		return
	}
	r.active.Store(false)
	if r.cleanup != nil {
		c := r.cleanup
		r.cleanup = nil
		c()
	}
	r.releaseDeps()
	markDisposed(r.id)
	engineStats.disposals.Add(1)
}

// Disposed reports whether the reaction has been disposed.
func (r *Reaction) Disposed() bool {
	return r.disposed.Load()
}
