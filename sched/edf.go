package sched

// EDFP implements the preemptive earliest-deadline-first policy of spec.md
// §4.B (the Spuri 1996 algorithm referenced by seed scenario 3). Each
// activation carries a local relative Deadline; WCRT is computed by
// enumerating, within a local busy period, one candidate analysis deadline
// per job present in the period (the analysed task's own job, or any
// interferer's job) and taking the interference contributed by every other
// task's jobs whose absolute deadline is no later than the candidate's.
type EDFP struct {
	Limits Limits
}

// NewEDFP constructs an EDF-P scheduler using the given iteration ceiling
// for its internal busy-period search (independent of the outer WCRT
// search's Limits, since computing the busy period is itself iterative).
func NewEDFP(limits Limits) *EDFP {
	if limits.MaxIterations <= 0 {
		limits = DefaultLimits
	}
	return &EDFP{Limits: limits}
}

func (s *EDFP) Name() string { return "EDF-P" }

func deadlineOf(t Task) int64 {
	if d, ok := t.Deadline(); ok {
		return d
	}
	return 1 << 61
}

// busyPeriod computes the level-i-busy-period length for t's q-th
// activation: the smallest L such that L = q*wcet(t) + sum_i eta+_i(L)*wcet(i),
// found by simple fixed-point iteration (spec.md §4.B: "a local busy period
// of length W_busy is computed by the same fixed-point but counting every
// task (including self)").
func (s *EDFP) busyPeriod(t Task, q int, interferers []Task) (int64, error) {
	l := int64(q) * t.WCET()
	for iter := 0; ; iter++ {
		next := int64(q) * t.WCET()
		for _, i := range interferers {
			if i == t {
				continue
			}
			next += i.InEventModel().EtaPlus(l) * i.WCET()
		}
		if next == l {
			return l, nil
		}
		l = next
		if iter > s.Limits.MaxIterations {
			return 0, &NotSchedulable{Reason: "EDF-P busy-period search did not converge"}
		}
	}
}

// candidateDeadlines enumerates one absolute analysis deadline per job
// present in the busy period [0, busyLen): t's own q-th job deadline, and
// every interferer job's absolute deadline for jobs whose arrival falls
// inside the busy period.
func (s *EDFP) candidateDeadlines(t Task, q int, busyLen int64, interferers []Task) []int64 {
	candidates := []int64{deadlineOf(t)}
	for _, i := range interferers {
		if i == t {
			continue
		}
		d := deadlineOf(i)
		for k := 1; ; k++ {
			arrival := i.InEventModel().DeltaMinus(k)
			if arrival >= busyLen {
				break
			}
			candidates = append(candidates, arrival+d)
			if k > s.Limits.MaxIterations {
				break
			}
		}
	}
	return candidates
}

// windowAt computes w(candidateDeadline) by fixed-point iteration: the
// worst-case completion time of t's q-th job under the assumption that only
// jobs whose absolute deadline is no later than candidateDeadline compete
// (spec.md §4.B: "interferers contribute only as many activations as have a
// deadline no later than the analysed deadline").
func (s *EDFP) windowAt(t Task, q int, candidate int64, interferers []Task) int64 {
	w := int64(q) * t.WCET()
	for {
		next := int64(q) * t.WCET()
		for _, i := range interferers {
			if i == t {
				continue
			}
			byBacklog := i.InEventModel().EtaPlus(w)
			byDeadline := i.InEventModel().EtaPlusClosed(candidate - deadlineOf(i))
			n := byBacklog
			if byDeadline < n {
				n = byDeadline
			}
			if n < 0 {
				n = 0
			}
			next += n * i.WCET()
		}
		if next == w {
			return w
		}
		w = next
	}
}

func (s *EDFP) BPlus(t Task, q int, interferers []Task) int64 {
	busyLen, err := s.busyPeriod(t, q, interferers)
	if err != nil {
		// Surface as an extreme value: the outer WCRT loop's monotonicity
		// and ceiling checks will convert this into NotSchedulable.
		return 1 << 61
	}
	candidates := s.candidateDeadlines(t, q, busyLen, interferers)
	var best int64
	for idx, c := range candidates {
		w := s.windowAt(t, q, c, interferers)
		if idx == 0 || w > best {
			best = w
		}
	}
	return best
}

func (s *EDFP) BMin(t Task, q int) int64 {
	return int64(q) * t.BCET()
}

func (s *EDFP) StoppingCondition(t Task, q int, w int64) bool {
	return t.InEventModel().DeltaMinus(q+1) >= w
}
