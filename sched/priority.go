package sched

// PriorityOrder names one of the four comparator conventions spec.md §4.B
// allows for SPP: whether a lower or higher scheduling-parameter number
// wins, and whether ties are broken FIFO (an equal-priority task may have
// arrived first, so it counts as interference) or by "domination" (the task
// itself always wins ties against other tasks, i.e. a strict ordering where
// equal priority does not interfere).
type PriorityOrder int

const (
	// HighWinsFIFO: lower scheduling-parameter value is higher priority;
	// equal priorities interfere in FIFO arrival order (non-strict '<=').
	HighWinsFIFO PriorityOrder = iota
	// LowWinsFIFO: higher scheduling-parameter value is higher priority;
	// equal priorities interfere in FIFO arrival order (non-strict '>=').
	LowWinsFIFO
	// HighWinsDomination: lower value wins, and equal-priority tasks are
	// never counted as interference (strict '<').
	HighWinsDomination
	// LowWinsDomination: higher value wins, and equal-priority tasks are
	// never counted as interference (strict '>').
	LowWinsDomination
)

// HigherOrEqual reports whether task "other" must be counted as
// higher-or-equal priority interference against "self" under this ordering.
func (p PriorityOrder) HigherOrEqual(self, other Task) bool {
	a, b := self.SchedulingParameter(), other.SchedulingParameter()
	switch p {
	case HighWinsFIFO:
		return b <= a
	case LowWinsFIFO:
		return b >= a
	case HighWinsDomination:
		return b < a
	case LowWinsDomination:
		return b > a
	default:
		return b <= a
	}
}

// LowerPriority reports whether "other" is not counted by HigherOrEqual:
// strictly lower priority under the FIFO orders, lower or equal priority
// under the domination orders. Used by SPNP's blocking term (the maximum
// wcet among lower-priority tasks on the same resource).
func (p PriorityOrder) LowerPriority(self, other Task) bool {
	return !p.HigherOrEqual(self, other)
}
