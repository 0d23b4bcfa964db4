// Package pulse is a fine-grained reactive state engine.
//
// The building blocks are Signal (a mutable value cell), Computed (a
// cached derivation that recomputes lazily when its dependencies
// change) and Reaction (an eager side effect that re-runs on change).
// Dependency edges are discovered automatically: reading a cell inside
// a computed or reaction body subscribes the reader to exactly the
// cells it touched on its last run.
//
//	count := pulse.NewSignal(1)
//	double := pulse.NewComputed(func() int { return count.Get() * 2 })
//
//	r := pulse.NewReaction(func() pulse.Cleanup {
//	    fmt.Println("double is", double.Get())
//	    return nil
//	})
//	defer r.Dispose()
//
//	count.Set(5) // prints "double is 10"
//
// Batch coalesces writes so each cell notifies once with its final
// value; Collection groups signals by name with stable identity;
// LeakCheck reports computeds and reactions that were never disposed
// when Debug.TrackDisposal is enabled.
//
// Mutation is designed for a single logical task at a time. Cells are
// internally synchronized so concurrent reads from other goroutines
// are safe, and dependency tracking is confined per goroutine.
package pulse
