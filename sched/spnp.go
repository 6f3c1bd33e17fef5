package sched

// SPNP implements the static-priority-non-preemptive policy of spec.md
// §4.B. Non-preemption adds a blocking term B, the worst case being that a
// lower-priority task has just begun running when t is released: B is the
// maximum wcet among tasks on the resource that are lower priority than t.
// A configurable context-switch overhead Csw and cycle-time granularity
// CycleTime account for scheduler overhead and closed-interval release
// timing respectively.
type SPNP struct {
	Order       PriorityOrder
	ContextSwitch int64
	CycleTime     int64
}

// NewSPNP constructs an SPNP scheduler. csw is the per-activation
// context-switch overhead charged to every task and interferer; cycleTime
// is the resource's scheduling tick granularity, added to the interference
// window to account for closed-interval release (spec.md §4.B).
func NewSPNP(order PriorityOrder, csw, cycleTime int64) *SPNP {
	return &SPNP{Order: order, ContextSwitch: csw, CycleTime: cycleTime}
}

func (s *SPNP) Name() string { return "SPNP" }

func (s *SPNP) blocking(t Task, interferers []Task) int64 {
	var b int64
	for _, i := range interferers {
		if i == t {
			continue
		}
		if s.Order.LowerPriority(t, i) && i.WCET() > b {
			b = i.WCET()
		}
	}
	return b
}

func (s *SPNP) BPlus(t Task, q int, interferers []Task) int64 {
	b := s.blocking(t, interferers)
	w := int64(q)*(t.WCET()+s.ContextSwitch) + b
	for {
		next := int64(q)*(t.WCET()+s.ContextSwitch) + b
		for _, i := range interferers {
			if i == t || !s.Order.HigherOrEqual(t, i) {
				continue
			}
			next += i.InEventModel().EtaPlus(w+s.CycleTime) * (i.WCET() + s.ContextSwitch)
		}
		if next == w {
			return w
		}
		w = next
	}
}

func (s *SPNP) BMin(t Task, q int) int64 {
	return int64(q) * t.BCET()
}

func (s *SPNP) StoppingCondition(t Task, q int, w int64) bool {
	return t.InEventModel().DeltaMinus(q+1) >= w
}
