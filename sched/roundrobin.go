package sched

// RoundRobin implements the round-robin policy of spec.md §4.B. Each task's
// SchedulingParameter is interpreted as its slot size; zero/unset means
// cooperative (the task runs to completion once dispatched, uninterrupted
// by its own further slot accounting). The interference contributed by each
// other task is capped by both that interferer's actual backlog
// (eta+_i(w)*wcet(i)) and the number of round-robin rounds t itself must
// wait through (ceil(q*wcet(t)/slot(t)) rounds, each costing the
// interferer at most one slot).
type RoundRobin struct{}

// NewRoundRobin constructs a round-robin scheduler.
func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

func (s *RoundRobin) Name() string { return "RoundRobin" }

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (s *RoundRobin) BPlus(t Task, q int, interferers []Task) int64 {
	slot := t.SchedulingParameter()
	w := int64(q) * t.WCET()
	for {
		var rounds int64
		if slot > 0 {
			rounds = ceilDiv(int64(q)*t.WCET(), slot)
		}
		next := int64(q) * t.WCET()
		for _, i := range interferers {
			if i == t {
				continue
			}
			byBacklog := i.InEventModel().EtaPlus(w) * i.WCET()
			contribution := byBacklog
			if slot > 0 && i.SchedulingParameter() > 0 {
				byRounds := rounds * i.SchedulingParameter()
				if byRounds < contribution {
					contribution = byRounds
				}
			}
			next += contribution
		}
		if next == w {
			return w
		}
		w = next
	}
}

func (s *RoundRobin) BMin(t Task, q int) int64 {
	return int64(q) * t.BCET()
}

func (s *RoundRobin) StoppingCondition(t Task, q int, w int64) bool {
	return t.InEventModel().DeltaMinus(q+1) >= w
}
