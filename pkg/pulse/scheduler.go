package pulse

import (
	"sync"
	"sync/atomic"
)

// Auto-batching defers unbatched writes to the next turn of a
// process-wide run loop, so bursts of independent writes coalesce the
// way an explicit Batch would. It is opt-in; the default engine has
// exactly one batching mechanism.
//
// Precedence: an explicit Batch opened while an auto flush is pending
// adopts the pending set and cancels the scheduled turn. Nothing is
// ever delivered twice.

var autoBatch atomic.Bool

var auto struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   []notifier
	scheduled bool
	flushing  bool
	gen       uint64
}

var (
	turnOnce  sync.Once
	turnQueue chan func()
)

// SetAutoBatch enables or disables auto-batching. Disabling does not
// cancel an already-scheduled flush; call Flush to force it out.
func SetAutoBatch(enabled bool) {
	autoBatch.Store(enabled)
}

func autoBatchEnabled() bool {
	return autoBatch.Load()
}

func autoInit() {
	if auto.cond == nil {
		auto.cond = sync.NewCond(&auto.mu)
	}
}

// scheduleTurn hands fn to the scheduler goroutine, starting it lazily.
// A panic escaping a flush crashes this goroutine; there is no caller
// to propagate to.
func scheduleTurn(fn func()) {
	turnOnce.Do(func() {
		turnQueue = make(chan func(), 128)
		go func() {
			for f := range turnQueue {
				f()
			}
		}()
	})
	turnQueue <- fn
}

// queueAutoPending enqueues a cell with a buffered write and schedules
// a flush turn if none is pending.
func queueAutoPending(n notifier) {
	auto.mu.Lock()
	autoInit()
	auto.pending = append(auto.pending, n)
	if !auto.scheduled {
		auto.scheduled = true
		auto.gen++
		gen := auto.gen
		auto.mu.Unlock()
		scheduleTurn(func() { autoFlush(gen) })
		return
	}
	auto.mu.Unlock()
}

// adoptAutoPending moves the auto-pending set into an opening batch and
// invalidates the scheduled turn.
func adoptAutoPending(tc *trackingContext) {
	auto.mu.Lock()
	autoInit()
	if len(auto.pending) > 0 {
		tc.pending = append(tc.pending, auto.pending...)
		auto.pending = nil
	}
	auto.scheduled = false
	auto.gen++
	auto.mu.Unlock()
}

// autoFlush is the scheduled turn body. A stale generation means the
// set was adopted by a batch or forced out by Flush in the meantime.
func autoFlush(gen uint64) {
	auto.mu.Lock()
	if auto.gen != gen {
		auto.mu.Unlock()
		return
	}
	pending := auto.pending
	auto.pending = nil
	auto.scheduled = false
	if len(pending) == 0 {
		auto.mu.Unlock()
		return
	}
	auto.flushing = true
	auto.mu.Unlock()

	defer func() {
		auto.mu.Lock()
		auto.flushing = false
		auto.cond.Broadcast()
		auto.mu.Unlock()
	}()
	runAutoFlush(pending)
}

// Flush forces any pending auto-batched writes out synchronously on the
// calling goroutine. If a scheduled flush is already in progress, Flush
// waits for it to finish first.
func Flush() {
	auto.mu.Lock()
	autoInit()
	for auto.flushing {
		auto.cond.Wait()
	}
	pending := auto.pending
	auto.pending = nil
	auto.scheduled = false
	auto.gen++
	auto.mu.Unlock()

	runAutoFlush(pending)
}

// runAutoFlush delivers a taken pending set with the same semantics as
// a batch flush: one delivery per distinct cell, reactions afterwards.
func runAutoFlush(pending []notifier) {
	if len(pending) == 0 {
		return
	}
	tc := getTrackingContext()
	withCascade(tc, func() {
		seen := make(map[uint64]struct{}, len(pending))
		for _, n := range pending {
			if _, dup := seen[n.ID()]; dup {
				continue
			}
			seen[n.ID()] = struct{}{}
			n.flush()
		}
	})
	engineStats.batchFlushes.Add(1)
}
