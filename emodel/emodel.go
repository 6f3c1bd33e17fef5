// Package emodel provides the lazy event-model algebra that underlies every
// local schedulability analysis, propagation rule, and junction strategy in
// the CPA engine.
//
// An event model represents the arrival pattern of a single event stream as
// two pairs of monotone integer-valued functions: delta-minus/delta-plus (the
// minimum/maximum time spanned by n consecutive events) and their inverses
// eta-plus/eta-minus (the maximum/minimum number of events in a window of a
// given length). All four are derivable from one another; concrete variants
// only need to implement the delta pair (or the eta pair) and get the rest
// from the shared binary-search helpers in derive.go (etaPlusFromDelta and
// its siblings).
package emodel

import "fmt"

// Infinite is the sentinel value standing in for "+Infinity" in a domain
// (int64) that cannot otherwise represent it. DeltaPlus returns Infinite
// when a model's maximum time for n events is unbounded (e.g. a CinT model
// with no further constraint).
const Infinite int64 = 1<<62 - 1

// Model is the capability set every event-model variant implements:
// delta-minus, delta-plus, their window inverses (half-open and, for
// closed-interval consumers such as EDF deadline comparisons, closed), an
// asymptotic load estimate, and cache invalidation.
//
// n is a count of events (n < 2 maps to delta 0 by convention); dt is a
// window length in the analysis time base.
type Model interface {
	// DeltaMinus returns the minimum time containing n events.
	DeltaMinus(n int) int64
	// DeltaPlus returns the maximum time containing n events, or Infinite.
	DeltaPlus(n int) int64
	// EtaPlus returns the maximum number of events in a half-open window
	// of length dt.
	EtaPlus(dt int64) int64
	// EtaMinus returns the minimum number of events in a half-open window
	// of length dt.
	EtaMinus(dt int64) int64
	// EtaPlusClosed returns the maximum number of events in a closed
	// window of length dt; used by deadline-based schedulers (EDF-P).
	EtaPlusClosed(dt int64) int64
	// Load returns events-per-time-unit sampled over horizon, used for the
	// asymptotic resource-load gate.
	Load(horizon int64) float64
	// FlushCache discards all memoized values.
	FlushCache()
}

// InvalidModel reports a violated event-model invariant: negative period or
// jitter, a delta function that isn't monotone, or (after analysis) a task
// whose wcet exceeds its own wcrt.
type InvalidModel struct {
	Reason string
}

func (e *InvalidModel) Error() string {
	return fmt.Sprintf("invalid event model: %s", e.Reason)
}

// checkMonotoneNonDecreasing validates that a caller-supplied table is
// nondecreasing over its sampled domain; used by NewLimitedDelta.
func checkMonotoneNonDecreasing(name string, values []int64) error {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return &InvalidModel{Reason: fmt.Sprintf("%s is not nondecreasing at index %d: %d < %d", name, i, values[i], values[i-1])}
		}
	}
	return nil
}
