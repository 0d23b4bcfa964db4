package pulse

import "sync/atomic"

var idCounter atomic.Uint64

// nextID returns a process-unique ID for signals, computeds, reactions
// and listeners.
func nextID() uint64 {
	return idCounter.Add(1)
}
