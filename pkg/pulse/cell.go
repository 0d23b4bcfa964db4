package pulse

import "sync"

// cell is the type-erased half of every reactive node: the ID and the
// set of tracked listeners. Signal[T] and Computed[T] embed it.
//
// Listener order is insertion order and removal preserves it, because
// notification is defined to be in subscription order.
type cell struct {
	id    uint64
	subMu sync.RWMutex
	subs  []Listener
}

func newCell() cell {
	return cell{id: nextID()}
}

// ID returns the cell's unique identifier.
func (c *cell) ID() uint64 {
	return c.id
}

// track registers the cell with the current reader, if any. Dependents
// (computeds, reactions) record the subscription handle themselves so
// they can release it later; plain listeners are subscribed directly.
func (c *cell) track() {
	l := currentListener()
	if l == nil {
		return
	}
	if d, ok := l.(dependent); ok {
		d.addSource(c)
		return
	}
	c.addListener(l)
}

// addListener subscribes l, deduplicating by ID, and returns the handle
// that releases the subscription.
func (c *cell) addListener(l Listener) Unsubscribe {
	if l == nil {
		return func() {}
	}
	lid := l.ID()
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, existing := range c.subs {
		if existing.ID() == lid {
			return func() { c.removeListener(lid) }
		}
	}
	c.subs = append(c.subs, l)
	return func() { c.removeListener(lid) }
}

func (c *cell) removeListener(lid uint64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, l := range c.subs {
		if l.ID() == lid {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// listeners returns a snapshot of the current subscribers, so delivery
// never holds the subscription lock.
func (c *cell) listeners() []Listener {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return nil
	}
	out := make([]Listener, len(c.subs))
	copy(out, c.subs)
	return out
}

func (c *cell) clearListeners() {
	c.subMu.Lock()
	c.subs = nil
	c.subMu.Unlock()
}

// markListenersDirty invalidates every subscriber in order. Callers must
// already be inside a cascade so queued reactions drain afterwards.
func (c *cell) markListenersDirty() {
	for _, l := range c.listeners() {
		l.MarkDirty()
	}
}
