package pulse

// Listener is anything that can be invalidated when a reactive cell it
// depends on changes. Computeds and Reactions implement it internally;
// external collaborators (view bindings, sync layers) may implement it
// and subscribe through WithListener.
type Listener interface {
	// MarkDirty tells the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a process-unique identifier, used to deduplicate
	// subscriptions and pending work.
	ID() uint64
}

// Cleanup is a function returned by a reaction body to release resources
// before the next run and on disposal.
type Cleanup func()

// Unsubscribe removes a value subscription when called. Calling it more
// than once is harmless.
type Unsubscribe func()

// notifier is a cell with buffered change delivery: a Signal or Computed
// queued in a batch's pending set, flushed once with its final value and
// the value it held before the batch.
type notifier interface {
	ID() uint64
	flush()
}

// dependent is a listener that manages its own subscription handles.
// Cells hand tracked reads to the dependent so the subscribe bookkeeping
// lives next to the release bookkeeping.
type dependent interface {
	Listener
	addSource(c *cell)
}
