package pulse

// Watch creates a reaction over a fixed list of signals: fn runs
// immediately with the current values and again whenever any of them
// changes. Dispose the returned reaction to stop watching.
func Watch[T any](signals []*Signal[T], fn func(values []T)) *Reaction {
	return NewReaction(func() Cleanup {
		values := make([]T, len(signals))
		for i, s := range signals {
			values[i] = s.Get()
		}
		fn(values)
		return nil
	})
}

// UntrackedGet reads a signal without subscribing the active reader.
// Equivalent to s.Peek, useful as a pipeline-friendly form inside
// computed bodies.
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
