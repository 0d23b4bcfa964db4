package pulse

import (
	"sync"
	"sync/atomic"
)

// testListener counts invalidations, standing in for an external
// collaborator subscribed through WithListener.
type testListener struct {
	id         uint64
	dirtyCount atomic.Int64
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.dirtyCount.Add(1)
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	return int(l.dirtyCount.Load())
}

// changeRecorder collects (new, old) pairs from value subscriptions.
// Mutex-guarded because auto-batch delivery may happen on the
// scheduler goroutine.
type changeRecorder[T any] struct {
	mu    sync.Mutex
	pairs [][2]T
}

func (r *changeRecorder[T]) record(newValue, oldValue T) {
	r.mu.Lock()
	r.pairs = append(r.pairs, [2]T{newValue, oldValue})
	r.mu.Unlock()
}

func (r *changeRecorder[T]) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pairs)
}

func (r *changeRecorder[T]) pair(i int) [2]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pairs[i]
}
