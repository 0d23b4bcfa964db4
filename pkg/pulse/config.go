package pulse

// DebugConfig controls the engine's diagnostic behavior. All fields
// default to off; flip them early in main or in TestMain.
type DebugConfig struct {
	// LogReactionRuns logs every reaction run through slog at debug
	// level.
	LogReactionRuns bool

	// LogBatchFlushes logs batch starts and flushes.
	LogBatchFlushes bool

	// TrackDisposal records every computed and reaction at creation so
	// LeakCheck can report the ones never disposed.
	TrackDisposal bool

	// IncludeSourceLocations captures the creation call site in
	// disposal records. Costs a runtime.Caller per creation.
	IncludeSourceLocations bool
}

// Debug is the package-wide debug configuration.
var Debug = DebugConfig{}

// DevMode enables development conveniences in one switch: disposal
// tracking with source locations and reaction-run logging.
func DevMode() {
	Debug.LogReactionRuns = true
	Debug.TrackDisposal = true
	Debug.IncludeSourceLocations = true
}
