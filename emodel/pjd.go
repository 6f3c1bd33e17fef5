package emodel

// PJd is the periodic-with-jitter-and-min-distance event model (spec.md
// §3): period P, jitter J, minimum inter-arrival distance d, and an optional
// phase Phi (offset of the first activation). It is the most common source
// event model and the one jitter-propagation produces at task outputs.
//
//	delta-minus(n) = max((n-1)*d, (n-1)*P - J)
//	delta-plus(n)  = (n-1)*P + J
type PJd struct {
	P, J, D, Phi int64
	cache        cache
}

// NewPJd constructs a PJd model. P must be > 0, J >= 0, and D >= 0; a
// negative period or jitter violates the InvalidModel invariant of
// spec.md §4.A.
func NewPJd(p, j, d, phi int64) (*PJd, error) {
	if p <= 0 {
		return nil, &InvalidModel{Reason: "period P must be positive"}
	}
	if j < 0 {
		return nil, &InvalidModel{Reason: "jitter J must be non-negative"}
	}
	if d < 0 {
		return nil, &InvalidModel{Reason: "minimum distance d must be non-negative"}
	}
	return &PJd{P: p, J: j, D: d, Phi: phi, cache: newCache()}, nil
}

func (m *PJd) DeltaMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaMinus[n]; ok {
		return v
	}
	byDistance := int64(n-1) * m.D
	byPeriod := int64(n-1)*m.P - m.J
	v := byDistance
	if byPeriod > v {
		v = byPeriod
	}
	m.cache.deltaMinus[n] = v
	return v
}

func (m *PJd) DeltaPlus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaPlus[n]; ok {
		return v
	}
	v := int64(n-1)*m.P + m.J
	m.cache.deltaPlus[n] = v
	return v
}

func (m *PJd) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := etaPlusFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *PJd) EtaMinus(dt int64) int64 {
	if v, ok := m.cache.etaMinus[dt]; ok {
		return v
	}
	v := etaMinusFromDelta(dt, m.DeltaPlus)
	m.cache.etaMinus[dt] = v
	return v
}

func (m *PJd) EtaPlusClosed(dt int64) int64 {
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := etaPlusClosedFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *PJd) Load(horizon int64) float64 {
	return Load(m, horizon)
}

func (m *PJd) FlushCache() {
	m.cache.flush()
}

// Load computes the asymptotic event rate load(n) = n / delta-minus(n) for a
// large sample count n (spec.md §4.A: "load(Delta) = Delta / delta-minus(Delta)
// for some large sampling horizon"), used by the resource-load gate of
// spec.md §4.E ("Verify load(R) < 1 on each resource"). n is the sampling
// horizon expressed as an event count, not a time window.
func Load(m Model, n int64) float64 {
	if n < 2 {
		return 0
	}
	d := m.DeltaMinus(int(n))
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
