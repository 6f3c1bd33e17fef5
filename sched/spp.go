package sched

// SPP implements the static-priority-preemptive policy of spec.md §4.B. The
// interference term is the classic sum of higher-or-equal-priority
// activations that can occur within the current busy-window estimate:
//
//	w = q*wcet(t) + sum_i eta_i+(w) * wcet(i)
//
// iterated to a fixed point starting from w = q*wcet(t).
type SPP struct {
	Order PriorityOrder
}

// NewSPP constructs an SPP scheduler with the given priority comparator.
// The zero value (Order = HighWinsFIFO) is the conventional "lower number,
// higher priority" ordering.
func NewSPP(order PriorityOrder) *SPP {
	return &SPP{Order: order}
}

func (s *SPP) Name() string { return "SPP" }

func (s *SPP) BPlus(t Task, q int, interferers []Task) int64 {
	w := int64(q) * t.WCET()
	for {
		next := int64(q) * t.WCET()
		for _, i := range interferers {
			if i == t || !s.Order.HigherOrEqual(t, i) {
				continue
			}
			next += i.InEventModel().EtaPlus(w) * i.WCET()
		}
		if next == w {
			return w
		}
		w = next
	}
}

func (s *SPP) BMin(t Task, q int) int64 {
	return int64(q) * t.BCET()
}

// StoppingCondition implements spec.md §4.B: the busy period for t's q-th
// activation has ended once the next activation of t (its q+1-th) cannot
// have arrived before the resource finishes processing the q-th.
func (s *SPP) StoppingCondition(t Task, q int, w int64) bool {
	return t.InEventModel().DeltaMinus(q+1) >= w
}
