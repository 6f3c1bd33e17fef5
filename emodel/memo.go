package emodel

// cache owns the memo tables of one EventModel: one per function
// (delta-minus, delta-plus, eta-plus, eta-minus, eta-plus-closed) plus the
// two additive-extension tables (delta-minus and delta-plus) used by
// LimitedDelta and Trace. The engine is single-threaded and cooperative (spec.md §5), so
// no locking is needed: caches are only ever touched between orchestrator
// iterations, never concurrently.
type cache struct {
	deltaMinus    map[int]int64
	deltaPlus     map[int]int64
	etaPlus       map[int64]int64
	etaMinus      map[int64]int64
	etaPlusClosed map[int64]int64
	extendMinus   map[int]int64
	extendPlus    map[int]int64
}

func newCache() cache {
	return cache{
		deltaMinus:    make(map[int]int64),
		deltaPlus:     make(map[int]int64),
		etaPlus:       make(map[int64]int64),
		etaMinus:      make(map[int64]int64),
		etaPlusClosed: make(map[int64]int64),
		extendMinus:   make(map[int]int64),
		extendPlus:    make(map[int]int64),
	}
}

func (c *cache) flush() {
	for k := range c.deltaMinus {
		delete(c.deltaMinus, k)
	}
	for k := range c.deltaPlus {
		delete(c.deltaPlus, k)
	}
	for k := range c.etaPlus {
		delete(c.etaPlus, k)
	}
	for k := range c.etaMinus {
		delete(c.etaMinus, k)
	}
	for k := range c.etaPlusClosed {
		delete(c.etaPlusClosed, k)
	}
	for k := range c.extendMinus {
		delete(c.extendMinus, k)
	}
	for k := range c.extendPlus {
		delete(c.extendPlus, k)
	}
}
