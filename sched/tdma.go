package sched

// TDMA implements the time-division-multiple-access policy of spec.md
// §4.B. Every task's SchedulingParameter is its fixed slot size; the
// resource's cycle time is the sum of every task's slot (t's own plus every
// interferer's). Unlike the other policies, b+ has a direct closed form and
// needs no inner fixed-point iteration:
//
//	w = q*wcet + ceil(q*wcet / slot(t)) * (T_cycle - slot(t))
type TDMA struct{}

// NewTDMA constructs a TDMA scheduler.
func NewTDMA() *TDMA { return &TDMA{} }

func (s *TDMA) Name() string { return "TDMA" }

func (s *TDMA) cycleTime(t Task, interferers []Task) int64 {
	total := t.SchedulingParameter()
	for _, i := range interferers {
		if i == t {
			continue
		}
		total += i.SchedulingParameter()
	}
	return total
}

func (s *TDMA) BPlus(t Task, q int, interferers []Task) int64 {
	slot := t.SchedulingParameter()
	cycle := s.cycleTime(t, interferers)
	work := int64(q) * t.WCET()
	if slot <= 0 {
		return work
	}
	return work + ceilDiv(work, slot)*(cycle-slot)
}

func (s *TDMA) BMin(t Task, q int) int64 {
	return int64(q) * t.BCET()
}

func (s *TDMA) StoppingCondition(t Task, q int, w int64) bool {
	return t.InEventModel().DeltaMinus(q+1) >= w
}
