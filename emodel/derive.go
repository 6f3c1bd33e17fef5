package emodel

// etaPlusFromDelta computes eta-plus(dt), the maximum number of events in a
// half-open window of length dt, from an existing delta-minus function by
// binary search (spec.md §4.A): eta-plus(w) = max{ n | delta-minus(n) < w }.
//
// Edge cases: eta-plus(0) = 0; if delta-minus(2) > w the window can contain
// at most one event; if delta-minus never exceeds w (an unbounded-rate
// model) eta-plus is unbounded and we report Infinite.
func etaPlusFromDelta(dt int64, deltaMinus func(int) int64) int64 {
	if dt <= 0 {
		return 0
	}
	if deltaMinus(2) >= dt {
		return 1
	}
	lo, hi := 1, 2
	for deltaMinus(hi) < dt {
		lo = hi
		hi *= 2
		if hi > 1<<40 {
			// delta-minus never catches up with dt: unbounded event rate.
			return Infinite
		}
	}
	// Invariant: deltaMinus(lo) < dt <= deltaMinus(hi); binary search for
	// the largest n with deltaMinus(n) < dt.
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if deltaMinus(mid) < dt {
			lo = mid
		} else {
			hi = mid
		}
	}
	return int64(lo)
}

// etaPlusClosedFromDelta computes the closed-interval variant required by
// EDF-P deadline comparisons: eta-plus-closed(w) =
// max{ n | delta-minus(n) <= w }. Differs from etaPlusFromDelta only in the
// comparison operator, as specified in spec.md §4.A.
func etaPlusClosedFromDelta(dt int64, deltaMinus func(int) int64) int64 {
	if dt < 0 {
		return 0
	}
	if deltaMinus(1) > dt {
		return 0
	}
	lo, hi := 1, 2
	for deltaMinus(hi) <= dt {
		lo = hi
		hi *= 2
		if hi > 1<<40 {
			return Infinite
		}
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if deltaMinus(mid) <= dt {
			lo = mid
		} else {
			hi = mid
		}
	}
	return int64(lo)
}

// etaMinusFromDelta computes eta-minus(w), the minimum number of events in a
// half-open window of length w, from delta-plus (spec.md §4.A):
// eta-minus(w) = max(0, (max{ n | delta-plus(n) <= w }) - 1).
func etaMinusFromDelta(dt int64, deltaPlus func(int) int64) int64 {
	if dt < 0 {
		return 0
	}
	if deltaPlus(1) > dt {
		return 0
	}
	lo, hi := 1, 2
	for deltaPlus(hi) <= dt {
		lo = hi
		hi *= 2
		if hi > 1<<40 {
			return Infinite - 1
		}
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if deltaPlus(mid) <= dt {
			lo = mid
		} else {
			hi = mid
		}
	}
	n := int64(lo) - 1
	if n < 0 {
		return 0
	}
	return n
}

// deltaMinusFromEta inverts eta-plus back into delta-minus, used by junction
// strategies (the OR-join) that combine models in the eta domain and must
// still answer delta queries. With the half-open eta-plus, eta-plus(w) < n
// exactly when w <= delta-minus(n), so delta-minus(n) = max{ w | eta-plus(w) < n }.
func deltaMinusFromEta(n int, etaPlus func(int64) int64) int64 {
	if n < 2 {
		return 0
	}
	var lo, hi int64 = 0, 1
	for etaPlus(hi) < int64(n) {
		lo = hi
		hi *= 2
		if hi > 1<<50 {
			return Infinite
		}
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if etaPlus(mid) < int64(n) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// deltaPlusFromEta inverts eta-minus back into delta-plus. Since
// eta-minus(w) = max{ n | delta-plus(n) <= w } - 1, eta-minus(w) >= n-1
// exactly when delta-plus(n) <= w, so delta-plus(n) = min{ w | eta-minus(w) >= n-1 }.
func deltaPlusFromEta(n int, etaMinus func(int64) int64) int64 {
	if n < 2 {
		return 0
	}
	need := int64(n - 1)
	if etaMinus(0) >= need {
		return 0
	}
	var lo, hi int64 = 0, 1
	for etaMinus(hi) < need {
		lo = hi
		hi *= 2
		if hi > 1<<50 {
			return Infinite
		}
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if etaMinus(mid) < need {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// additiveExtend implements the additive-extension closure of spec.md §4.A
// used by LimitedDelta and Trace models to conservatively extend a
// caller-supplied or empirical function valid only on [0, Q]:
//
//	max-additive (for delta-minus): f(n) = max_{k in [2,Q]} f(k) + f(n-k+1)
//	min-additive (for delta-plus):  f(n) = min_{k in [2,Q]} f(k) + f(n-k+1)
//
// The first k events and the remaining n-k+1 events share one event, so both
// terms are spans of real event groups and the extension stays nondecreasing.
// base must return valid values for n in [0, Q] and is consulted directly in
// that range; outside it, extend is applied recursively with memoization.
func additiveExtend(n, q int, base func(int) int64, useMax bool, memo map[int]int64) int64 {
	if n <= q {
		return base(n)
	}
	if v, ok := memo[n]; ok {
		return v
	}
	var best int64
	init := false
	for k := 2; k <= q && k < n; k++ {
		left := base(k)
		var right int64
		if n-k+1 <= q {
			right = base(n - k + 1)
		} else {
			right = additiveExtend(n-k+1, q, base, useMax, memo)
		}
		cand := left + right
		if !init {
			best = cand
			init = true
			continue
		}
		if useMax && cand > best {
			best = cand
		} else if !useMax && cand < best {
			best = cand
		}
	}
	if !init {
		best = base(n)
	}
	memo[n] = best
	return best
}
