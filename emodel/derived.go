package emodel

// FromDelta builds a Model from a pair of delta closures, the composition
// mechanism spec.md's design notes call for: "composition (junction,
// propagation) produces new variants that own references to their inputs."
// Every propagation rule (package propagate) and the AND-junction strategy
// (package junction) construct their output event model this way, closing
// over the upstream model(s) and analysis result they were derived from.
// The sampling junction passes its trigger's model through unchanged.
func FromDelta(deltaMinus, deltaPlus func(n int) int64) Model {
	return &derivedFromDelta{deltaMinus: deltaMinus, deltaPlus: deltaPlus, cache: newCache()}
}

type derivedFromDelta struct {
	deltaMinus func(int) int64
	deltaPlus  func(int) int64
	cache      cache
}

func (m *derivedFromDelta) DeltaMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaMinus[n]; ok {
		return v
	}
	v := m.deltaMinus(n)
	m.cache.deltaMinus[n] = v
	return v
}

func (m *derivedFromDelta) DeltaPlus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaPlus[n]; ok {
		return v
	}
	v := m.deltaPlus(n)
	m.cache.deltaPlus[n] = v
	return v
}

func (m *derivedFromDelta) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := etaPlusFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *derivedFromDelta) EtaMinus(dt int64) int64 {
	if v, ok := m.cache.etaMinus[dt]; ok {
		return v
	}
	v := etaMinusFromDelta(dt, m.DeltaPlus)
	m.cache.etaMinus[dt] = v
	return v
}

func (m *derivedFromDelta) EtaPlusClosed(dt int64) int64 {
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := etaPlusClosedFromDelta(dt, m.DeltaMinus)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *derivedFromDelta) Load(n int64) float64 {
	return Load(m, n)
}

func (m *derivedFromDelta) FlushCache() {
	m.cache.flush()
}

// FromEta builds a Model from a pair of eta closures, the dual composition
// mechanism used by the OR-junction (spec.md §4.D), which combines inputs
// in the eta domain (eta-plus-out = sum of eta-plus-i, eta-minus-out = sum
// of eta-minus-i) and derives delta by the same inverse-duality spec.md
// §4.A requires of every variant.
func FromEta(etaPlus, etaMinus func(dt int64) int64) Model {
	return &derivedFromEta{etaPlus: etaPlus, etaMinus: etaMinus, cache: newCache()}
}

type derivedFromEta struct {
	etaPlus  func(int64) int64
	etaMinus func(int64) int64
	cache    cache
}

func (m *derivedFromEta) DeltaMinus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaMinus[n]; ok {
		return v
	}
	v := deltaMinusFromEta(n, m.EtaPlus)
	m.cache.deltaMinus[n] = v
	return v
}

func (m *derivedFromEta) DeltaPlus(n int) int64 {
	if n < 2 {
		return 0
	}
	if v, ok := m.cache.deltaPlus[n]; ok {
		return v
	}
	v := deltaPlusFromEta(n, m.EtaMinus)
	m.cache.deltaPlus[n] = v
	return v
}

func (m *derivedFromEta) EtaPlus(dt int64) int64 {
	if v, ok := m.cache.etaPlus[dt]; ok {
		return v
	}
	v := m.etaPlus(dt)
	m.cache.etaPlus[dt] = v
	return v
}

func (m *derivedFromEta) EtaMinus(dt int64) int64 {
	if v, ok := m.cache.etaMinus[dt]; ok {
		return v
	}
	v := m.etaMinus(dt)
	m.cache.etaMinus[dt] = v
	return v
}

func (m *derivedFromEta) EtaPlusClosed(dt int64) int64 {
	// The OR-junction's closed-interval count coincides with the half-open
	// count derived from the summed eta-plus functions: both inputs are
	// themselves already eta-domain sums, so there is no separate delta
	// table to re-derive a tighter closed bound from.
	if v, ok := m.cache.etaPlusClosed[dt]; ok {
		return v
	}
	v := m.EtaPlus(dt)
	m.cache.etaPlusClosed[dt] = v
	return v
}

func (m *derivedFromEta) Load(n int64) float64 {
	return Load(m, n)
}

func (m *derivedFromEta) FlushCache() {
	m.cache.flush()
}
