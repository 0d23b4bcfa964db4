package pulse

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// LiveKind classifies a disposal record.
type LiveKind string

const (
	liveComputed LiveKind = "computed"
	liveReaction LiveKind = "reaction"
)

// LiveRecord describes an undisposed computed or reaction created while
// Debug.TrackDisposal was on.
type LiveRecord struct {
	ID        uint64
	Kind      LiveKind
	CreatedAt time.Time

	// Site is the creation call site ("file.go:42"), captured only
	// when Debug.IncludeSourceLocations is set.
	Site string
}

var liveRegistry sync.Map // id -> LiveRecord

// registerLive records a newly created computed or reaction. A no-op
// unless disposal tracking is enabled.
func registerLive(id uint64, kind LiveKind) {
	if !Debug.TrackDisposal {
		return
	}
	rec := LiveRecord{
		ID:        id,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if Debug.IncludeSourceLocations {
		// Skip registerLive and the constructor.
		if _, file, line, ok := runtime.Caller(2); ok {
			rec.Site = fmt.Sprintf("%s:%d", file, line)
		}
	}
	liveRegistry.Store(id, rec)
}

func markDisposed(id uint64) {
	liveRegistry.Delete(id)
}

func liveCount() int64 {
	var n int64
	liveRegistry.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// LeakCheck returns every tracked computed and reaction that has not
// been disposed, oldest first. Only meaningful with
// Debug.TrackDisposal enabled; an empty slice otherwise.
func LeakCheck() []LiveRecord {
	var out []LiveRecord
	liveRegistry.Range(func(_, v any) bool {
		out = append(out, v.(LiveRecord))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LogLeaks writes every live record to the logger at warn level and
// returns how many there were.
func LogLeaks(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	records := LeakCheck()
	for _, rec := range records {
		logger.Warn("pulse: undisposed node",
			"id", rec.ID,
			"kind", string(rec.Kind),
			"created_at", rec.CreatedAt,
			"site", rec.Site,
		)
	}
	return len(records)
}

// ResetLeakRegistry clears the disposal registry. Intended for tests
// that assert on LeakCheck output.
func ResetLeakRegistry() {
	liveRegistry.Range(func(k, _ any) bool {
		liveRegistry.Delete(k)
		return true
	})
}
