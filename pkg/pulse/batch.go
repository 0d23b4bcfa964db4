package pulse

import "log/slog"

// Batch runs fn with write buffering: every signal written inside fn is
// queued instead of notifying, and at the exit of the outermost batch
// each distinct cell delivers exactly once with its final value paired
// with the value it held before the batch. Writes that end up back at
// their pre-batch value deliver nothing.
//
// Batches nest; only the outermost exit flushes. Order of delivery
// across distinct cells is unspecified.
//
// Opening a batch while an auto-batch flush is pending adopts the
// pending set: those writes flush with this batch instead of on the
// scheduler turn.
func Batch(fn func()) {
	tc := getTrackingContext()
	if tc.batchDepth == 0 {
		adoptAutoPending(tc)
	}
	tc.batchDepth++
	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			flushPending(tc)
		}
	}()
	fn()
}

// Tx is an alias for Batch, for callers that read better as
// transactional updates.
func Tx(fn func()) {
	Batch(fn)
}

// TxNamed runs a named batch. The name currently only feeds debug
// logging; tracing adapters attach it to spans.
func TxNamed(name string, fn func()) {
	if Debug.LogBatchFlushes {
		slog.Debug("pulse: batch start", "name", name)
	}
	Batch(fn)
}

// flushPending drains the batch's pending set inside a single cascade.
// Dedupe is by cell ID; reactions queued by the deliveries run after
// the last cell flushed.
func flushPending(tc *trackingContext) {
	pending := tc.pending
	tc.pending = nil
	if len(pending) == 0 {
		return
	}

	withCascade(tc, func() {
		seen := make(map[uint64]struct{}, len(pending))
		for _, n := range pending {
			if _, dup := seen[n.ID()]; dup {
				continue
			}
			seen[n.ID()] = struct{}{}
			n.flush()
		}
	})

	engineStats.batchFlushes.Add(1)
	if Debug.LogBatchFlushes {
		slog.Debug("pulse: batch flush", "cells", len(pending))
	}
}
