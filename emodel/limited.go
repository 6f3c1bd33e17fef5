package emodel

// LimitedDelta is the limited-domain-delta-with-additive-extension model of
// spec.md §3: the caller supplies delta-minus and delta-plus tables valid for
// n in [0, Q]; outside that range the engine conservatively extends them
// using max-additive closure (for delta-minus) and min-additive closure (for
// delta-plus), per spec.md §4.A.
type LimitedDelta struct {
	deltaMinusTable []int64 // index n in [0, Q]
	deltaPlusTable  []int64
	q               int
	cache           cache
}

// NewLimitedDelta constructs a LimitedDelta model. Both tables must have the
// same length (Q+1, indices 0..Q), be nondecreasing, and satisfy
// deltaMinusTable[n] <= deltaPlusTable[n] for every n, per spec.md §3's
// monotonicity and pessimism invariants.
func NewLimitedDelta(deltaMinusTable, deltaPlusTable []int64) (*LimitedDelta, error) {
	if len(deltaMinusTable) != len(deltaPlusTable) {
		return nil, &InvalidModel{Reason: "delta-minus and delta-plus tables must have equal length"}
	}
	if len(deltaMinusTable) == 0 {
		return nil, &InvalidModel{Reason: "tables must contain at least index 0"}
	}
	if err := checkMonotoneNonDecreasing("delta-minus table", deltaMinusTable); err != nil {
		return nil, err
	}
	if err := checkMonotoneNonDecreasing("delta-plus table", deltaPlusTable); err != nil {
		return nil, err
	}
	for i := range deltaMinusTable {
		if deltaMinusTable[i] > deltaPlusTable[i] {
			return nil, &InvalidModel{Reason: "delta-minus exceeds delta-plus in supplied table"}
		}
	}
	dm := append([]int64(nil), deltaMinusTable...)
	dp := append([]int64(nil), deltaPlusTable...)
	return &LimitedDelta{
		deltaMinusTable: dm,
		deltaPlusTable:  dp,
		q:               len(dm) - 1,
		cache:           newCache(),
	}, nil
}

func (m *LimitedDelta) baseMinus(n int) int64 {
	if n < 0 {
		return 0
	}
	if n > m.q {
		return m.deltaMinusTable[m.q]
	}
	return m.deltaMinusTable[n]
}

func (m *LimitedDelta) basePlus(n int) int64 {
	if n < 0 {
		return 0
	}
	if n > m.q {
		return m.deltaPlusTable[m.q]
	}
	return m.deltaPlusTable[n]
}

func (m *LimitedDelta) DeltaMinus(n int) int64 {
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

func (m *LimitedDelta) DeltaPlus(n int) int64 {
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

func (m *LimitedDelta) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := etaPlusFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *LimitedDelta) EtaMinus(dt int64) int64 {
	if v, ok := m.cache.etaMinus[dt]; ok {
		return v
	}
	v := etaMinusFromDelta(dt, m.DeltaPlus)
	m.cache.etaMinus[dt] = v
	return v
}

func (m *LimitedDelta) EtaPlusClosed(dt int64) int64 {
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := etaPlusClosedFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *LimitedDelta) Load(n int64) float64 {
	return Load(m, n)
}

func (m *LimitedDelta) FlushCache() {
	m.cache.flush()
}
