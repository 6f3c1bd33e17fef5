package emodel

import "sort"

// Trace is the trace-derived event model of spec.md §3: the caller supplies
// a finite ordered sequence of event timestamps observed from a real or
// simulated run. delta-minus(n) is the minimum difference between the first
// and last of any n consecutive events in the trace; delta-plus(n) is the
// maximum such difference. Beyond the trace length the additive extension
// of spec.md §4.A is applied, exactly as for LimitedDelta.
type Trace struct {
	timestamps []int64 // sorted ascending
	q          int     // number of events in the trace
	cache      cache
}

// NewTrace constructs a Trace model from an unordered slice of event
// timestamps; the engine sorts them internally. At least two timestamps are
// required to observe any inter-arrival distance.
func NewTrace(timestamps []int64) (*Trace, error) {
	if len(timestamps) < 2 {
		return nil, &InvalidModel{Reason: "trace must contain at least two timestamps"}
	}
	ts := append([]int64(nil), timestamps...)
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return &Trace{timestamps: ts, q: len(ts), cache: newCache()}, nil
}

// baseMinus returns the minimum span of any n consecutive events observed
// in the trace (a sliding window of width n over the sorted timestamps).
func (m *Trace) baseMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if n > m.q {
		n = m.q
	}
	best := m.timestamps[n-1] - m.timestamps[0]
	for i := 1; i+n-1 < m.q; i++ {
		span := m.timestamps[i+n-1] - m.timestamps[i]
		if span < best {
			best = span
		}
	}
	return best
}

// basePlus returns the maximum span of any n consecutive events observed in
// the trace.
func (m *Trace) basePlus(n int) int64 {
	if n < 2 {
		return 0
	}
	if n > m.q {
		n = m.q
	}
	best := m.timestamps[n-1] - m.timestamps[0]
	for i := 1; i+n-1 < m.q; i++ {
		span := m.timestamps[i+n-1] - m.timestamps[i]
		if span > best {
			best = span
		}
	}
	return best
}

func (m *Trace) DeltaMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaMinus[n]; ok {
		return v
	}
	v := additiveExtend(n, m.q, m.baseMinus, true, m.cache.extendMinus)
	m.cache.deltaMinus[n] = v
	return v
}

func (m *Trace) DeltaPlus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaPlus[n]; ok {
		return v
	}
	v := additiveExtend(n, m.q, m.basePlus, false, m.cache.extendPlus)
	m.cache.deltaPlus[n] = v
	return v
}

func (m *Trace) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := etaPlusFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *Trace) EtaMinus(dt int64) int64 {
	if v, ok := m.cache.etaMinus[dt]; ok {
		return v
	}
	v := etaMinusFromDelta(dt, m.DeltaPlus)
	m.cache.etaMinus[dt] = v
	return v
}

func (m *Trace) EtaPlusClosed(dt int64) int64 {
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := etaPlusClosedFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *Trace) Load(n int64) float64 {
	return Load(m, n)
}

func (m *Trace) FlushCache() {
	m.cache.flush()
}
