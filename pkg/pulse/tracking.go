package pulse

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// trackingContext holds the per-goroutine reactive state: the reader
// stack for dependency tracking, the batch depth and pending notifier
// set, and the deferred reaction queue for the current cascade.
//
// Mutation of a given cell graph is expected to be confined to one
// logical task at a time; the per-goroutine context is what makes reads
// on other goroutines (renderers, collectors) safe without tracking
// leaking across them.
type trackingContext struct {
	readers      []Listener
	batchDepth   int
	pending      []notifier
	cascadeDepth int
	reactions    []*Reaction
	draining     bool
}

var trackingContexts sync.Map // goroutine ID -> *trackingContext

// getGoroutineID extracts the current goroutine's ID from the runtime
// stack header ("goroutine 123 [running]:").
func getGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	stack = strings.TrimPrefix(stack, "goroutine ")
	if idx := strings.IndexByte(stack, ' '); idx > 0 {
		if id, err := strconv.ParseUint(stack[:idx], 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func getTrackingContext() *trackingContext {
	gid := getGoroutineID()
	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

// currentListener returns the top of the reader stack, or nil when no
// reader is active (or the top frame is an Untracked frame).
func currentListener() Listener {
	tc := getTrackingContext()
	if n := len(tc.readers); n > 0 {
		return tc.readers[n-1]
	}
	return nil
}

func pushReader(l Listener) {
	tc := getTrackingContext()
	tc.readers = append(tc.readers, l)
}

func popReader() {
	tc := getTrackingContext()
	if n := len(tc.readers); n > 0 {
		tc.readers[n-1] = nil
		tc.readers = tc.readers[:n-1]
	}
}

// WithListener runs fn with l as the active reader. Every tracked read
// inside fn subscribes l to the cell that was read.
func WithListener(l Listener, fn func()) {
	pushReader(l)
	defer popReader()
	fn()
}

// Untracked runs fn with dependency tracking suspended: reads inside fn
// do not subscribe the enclosing reader. Tracking resumes when fn
// returns, including for readers established inside fn itself.
func Untracked(fn func()) {
	pushReader(nil)
	defer popReader()
	fn()
}

// Tracking reports whether a reader is currently active on this
// goroutine.
func Tracking() bool {
	return currentListener() != nil
}

// withCascade runs fn as one invalidation cascade. When the outermost
// cascade finishes delivering, the reactions it queued run to
// completion, including reactions queued by reaction runs themselves.
func withCascade(tc *trackingContext, fn func()) {
	tc.cascadeDepth++
	defer func() { tc.cascadeDepth-- }()
	fn()
	if tc.cascadeDepth == 1 {
		drainReactions(tc)
	}
}

// queueReaction defers r to the end of the current cascade. Dedupe is
// the reaction's own pending flag.
func (tc *trackingContext) queueReaction(r *Reaction) {
	tc.reactions = append(tc.reactions, r)
}

// drainReactions runs the deferred reaction queue in FIFO order. Runs
// may trigger further writes; those cascade immediately and any newly
// queued reactions are picked up by the same loop.
func drainReactions(tc *trackingContext) {
	if tc.draining {
		return
	}
	tc.draining = true
	defer func() { tc.draining = false }()

	for len(tc.reactions) > 0 {
		r := tc.reactions[0]
		tc.reactions = tc.reactions[1:]
		if r.pending.Load() {
			r.run()
		}
	}
}
