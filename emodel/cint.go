package emodel

// CinT is the "c events every T with minimum distance d" event model
// (spec.md §3), used for bursty sources that emit bounded bursts within a
// recurring window:
//
//	delta-minus(n) = (n-1)*d + floor((n-1)/c) * (T - c*d)
//	delta-plus(n)  = +Infinity, unless a further bound is supplied
type CinT struct {
	C     int
	T, D  int64
	cache cache
}

// NewCinT constructs a CinT model. C must be >= 1, T > 0, D >= 0, and
// C*D <= T (otherwise c events cannot fit within one period at the minimum
// distance, an invalid configuration).
func NewCinT(c int, t, d int64) (*CinT, error) {
	if c < 1 {
		return nil, &InvalidModel{Reason: "c must be at least 1"}
	}
	if t <= 0 {
		return nil, &InvalidModel{Reason: "T must be positive"}
	}
	if d < 0 {
		return nil, &InvalidModel{Reason: "minimum distance d must be non-negative"}
	}
	if int64(c)*d > t {
		return nil, &InvalidModel{Reason: "c*d exceeds T: c events cannot fit in one period at distance d"}
	}
	return &CinT{C: c, T: t, D: d, cache: newCache()}, nil
}

func (m *CinT) DeltaMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaMinus[n]; ok {
		return v
	}
	k := n - 1
	v := int64(k)*m.D + int64(k/m.C)*(m.T-int64(m.C)*m.D)
	m.cache.deltaMinus[n] = v
	return v
}

func (m *CinT) DeltaPlus(n int) int64 {
	if n < 2 {
		return 0
	}
	return Infinite
}

func (m *CinT) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := etaPlusFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *CinT) EtaMinus(dt int64) int64 {
	// delta-plus is unbounded, so the minimum event count in any window is 0.
	return 0
}

func (m *CinT) EtaPlusClosed(dt int64) int64 {
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := etaPlusClosedFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *CinT) Load(n int64) float64 {
	return Load(m, n)
}

func (m *CinT) FlushCache() {
	m.cache.flush()
}
