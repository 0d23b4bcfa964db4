package pulse

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Collection is a name-keyed set of signals of a common type. Its core
// guarantee is identity stability: Set on an existing name writes the
// existing signal in place, so references and subscriptions obtained
// earlier keep working.
type Collection[T any] struct {
	mu      sync.RWMutex
	entries map[string]*Signal[T]
}

// NewCollection creates an empty collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{
		entries: make(map[string]*Signal[T]),
	}
}

// Set writes the value under name, creating the signal on first use and
// updating the existing one in place afterwards.
func (c *Collection[T]) Set(name string, value T) {
	c.mu.Lock()
	sig, ok := c.entries[name]
	if !ok {
		c.entries[name] = NewSignal(value)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	sig.Set(value)
}

// Get returns the signal registered under name.
func (c *Collection[T]) Get(name string) (*Signal[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sig, ok := c.entries[name]
	return sig, ok
}

// Has reports whether name is present.
func (c *Collection[T]) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}

// Delete removes the entry. The signal itself is not disposed; holders
// of a Get reference keep a working cell and remain responsible for
// disposing it.
func (c *Collection[T]) Delete(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()
}

// Clear removes every entry without disposing the signals.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Signal[T])
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Names returns the registered names in sorted order.
func (c *Collection[T]) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Snapshot returns the current values by name. Reads are untracked.
func (c *Collection[T]) Snapshot() map[string]T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]T, len(c.entries))
	for name, sig := range c.entries {
		out[name] = sig.Peek()
	}
	return out
}

// Restore writes the given values, updating existing signals in place
// and creating signals for unseen names. The whole import runs in one
// batch, so each changed signal notifies once.
func (c *Collection[T]) Restore(values map[string]T) {
	Batch(func() {
		for name, value := range values {
			c.Set(name, value)
		}
	})
}

// MarshalJSON encodes the collection as a name-to-value object.
func (c *Collection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// UnmarshalJSON decodes a name-to-value object and restores it,
// preserving the identity of existing signals.
func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	var values map[string]T
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("pulse: decode collection: %w", err)
	}
	if c.entries == nil {
		c.entries = make(map[string]*Signal[T])
	}
	c.Restore(values)
	return nil
}
