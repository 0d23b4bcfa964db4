package pulse

import (
	"sync/atomic"
	"time"
)

// engineStats accumulates process-wide counters. Cheap enough to be
// always on; the metrics adapter exports them.
var engineStats struct {
	signalsCreated   atomic.Int64
	computedsCreated atomic.Int64
	reactionsCreated atomic.Int64
	writes           atomic.Int64
	notifications    atomic.Int64
	batchFlushes     atomic.Int64
	recomputes       atomic.Int64
	reactionRuns     atomic.Int64
	disposals        atomic.Int64
}

// EngineStats is a point-in-time snapshot of the engine's cumulative
// counters.
type EngineStats struct {
	SignalsCreated   int64
	ComputedsCreated int64
	ReactionsCreated int64

	// Writes counts effective writes: equality-dropped sets are not
	// included.
	Writes int64

	// Notifications counts delivery events, one per cell per cascade
	// or flush, regardless of subscriber count.
	Notifications int64

	BatchFlushes int64
	Recomputes   int64
	ReactionRuns int64
	Disposals    int64

	// LiveTracked is the number of undisposed computeds and reactions
	// in the disposal registry; zero unless Debug.TrackDisposal is set.
	LiveTracked int64

	CollectedAt time.Time
}

// Stats returns a snapshot of the engine counters.
func Stats() EngineStats {
	return EngineStats{
		SignalsCreated:   engineStats.signalsCreated.Load(),
		ComputedsCreated: engineStats.computedsCreated.Load(),
		ReactionsCreated: engineStats.reactionsCreated.Load(),
		Writes:           engineStats.writes.Load(),
		Notifications:    engineStats.notifications.Load(),
		BatchFlushes:     engineStats.batchFlushes.Load(),
		Recomputes:       engineStats.recomputes.Load(),
		ReactionRuns:     engineStats.reactionRuns.Load(),
		Disposals:        engineStats.disposals.Load(),
		LiveTracked:      liveCount(),
		CollectedAt:      time.Now(),
	}
}
