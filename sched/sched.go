// Package sched implements the per-resource local schedulability analysis of
// spec.md §4.B: a common busy-window fixed-point WCRT computation driven by
// a pluggable Scheduler, one implementation per scheduling policy (SPP,
// SPNP, round-robin, TDMA, EDF-P), plus the dmin-correlated SPP variant.
//
// Grounded on the teacher's "dynamic dispatch without inheritance" idiom
// (interfaces with a small fixed method set rather than a class hierarchy)
// used throughout github.com/dshills/langgraph-go/graph for Node, Edge and
// retry policies.
package sched

import (
	"fmt"

	"github.com/cpa-go/cpa/emodel"
)

// NotSchedulable is raised when a busy-window search exceeds its configured
// iteration or WCRT ceiling (spec.md §7).
type NotSchedulable struct {
	Reason string
}

func (e *NotSchedulable) Error() string {
	return fmt.Sprintf("not schedulable: %s", e.Reason)
}

// Task is the minimal view of a task a Scheduler needs: its timing
// parameters and input event model. cpa.Task satisfies this interface so
// the sched package has no dependency on the cpa package (schedulers are a
// leaf component; the data model depends on them, not the reverse).
type Task interface {
	WCET() int64
	BCET() int64
	SchedulingParameter() int64
	Deadline() (int64, bool)
	InEventModel() emodel.Model
	TaskName() string
}

// Scheduler is the common contract of spec.md §4.B: given a task and an
// activation index q (1-based), bPlus returns the maximum time the
// resource is busy finishing the q-th activation, counting interference
// from every other task bound to the same resource; stoppingCondition
// decides when the busy-window search for that task has converged.
type Scheduler interface {
	// BPlus returns b+(t, q): the maximum busy-window length for the q-th
	// activation of t, given the other tasks bound to the resource.
	BPlus(t Task, q int, interferers []Task) int64
	// BMin returns bmin(t, q): the minimum busy-window length; defaults to
	// q*BCET(t) when a policy has no tighter bound.
	BMin(t Task, q int) int64
	// StoppingCondition reports whether the busy period search for the
	// q-th activation of t has ended: no further activations have arrived
	// by the time the resource finishes processing w.
	StoppingCondition(t Task, q int, w int64) bool
	// Name identifies the policy for diagnostics (error messages).
	Name() string
}

// Limits bounds a busy-window search: MaxIterations caps the activation
// index q, MaxWCRT caps the worst-case response time. Both being exceeded
// raise NotSchedulable (spec.md §4.B, §5).
type Limits struct {
	MaxIterations int
	MaxWCRT       int64
}

// DefaultLimits mirrors the conservative ceilings used by the regression
// scenarios of spec.md §8.
var DefaultLimits = Limits{MaxIterations: 10000, MaxWCRT: 1 << 40}

// Result is the outcome of a WCRT search for one task: its worst/best-case
// response time, the activation index at which the worst case occurred, the
// full busy-window sequence (consumed by busy-window propagation and
// recursive path analysis), and the maximum activation backlog.
type Result struct {
	WCRT       int64
	BCRT       int64
	QWCRT      int
	BusyTimes  []int64 // BusyTimes[0] = 0; BusyTimes[k] = b+(t, k)
	MaxBacklog int64
	BWCRT      map[string]int64 // human-readable decomposition of the last busy-window term
}

// AnalyzeWCRT runs the busy-window fixed-point loop shared by every
// scheduling policy (spec.md §4.B):
//
//	q <- 1; wcrt <- 0; busy_times[0] <- 0
//	loop:
//	    w <- b+(t, q); busy_times.push(w)
//	    rt <- w - delta-minus_in(t)(q)
//	    if rt > wcrt: wcrt <- rt; q_wcrt <- q
//	    if wcrt > max_wcrt_limit: fail NotSchedulable
//	    if stopping_condition(t, q, w): break
//	    q <- q+1
//	    if q > max_iterations: fail NotSchedulable
func AnalyzeWCRT(s Scheduler, t Task, interferers []Task, limits Limits) (Result, error) {
	in := t.InEventModel()
	if in == nil {
		return Result{}, &NotSchedulable{Reason: fmt.Sprintf("task %q has no input event model", t.TaskName())}
	}
	res := Result{BusyTimes: []int64{0}, BCRT: bcrtFromBMin(s, t)}
	q := 1
	var wcrt int64
	qWCRT := 1
	var lastW int64
	for {
		w := s.BPlus(t, q, interferers)
		if w < int64(q)*t.WCET() {
			return Result{}, &NotSchedulable{Reason: fmt.Sprintf("%s: b+(t,%d)=%d violates b+ >= q*wcet", s.Name(), q, w)}
		}
		if len(res.BusyTimes) > 0 {
			prev := res.BusyTimes[len(res.BusyTimes)-1]
			if w-prev < t.WCET() {
				return Result{}, &NotSchedulable{Reason: fmt.Sprintf("%s: busy-window monotonicity violated at q=%d (%d - %d < wcet %d)", s.Name(), q, w, prev, t.WCET())}
			}
		}
		res.BusyTimes = append(res.BusyTimes, w)
		rt := w - in.DeltaMinus(q)
		if rt > wcrt || q == 1 {
			wcrt = rt
			qWCRT = q
		}
		if wcrt > limits.MaxWCRT {
			return Result{}, &NotSchedulable{Reason: fmt.Sprintf("%s: wcrt %d exceeds ceiling %d", s.Name(), wcrt, limits.MaxWCRT)}
		}
		lastW = w
		if s.StoppingCondition(t, q, w) {
			break
		}
		q++
		if q > limits.MaxIterations {
			return Result{}, &NotSchedulable{Reason: fmt.Sprintf("%s: exceeded %d iterations searching for WCRT of %q", s.Name(), limits.MaxIterations, t.TaskName())}
		}
	}
	res.WCRT = wcrt
	res.QWCRT = qWCRT
	res.MaxBacklog = maxBacklog(in, res.BusyTimes, 0)
	res.BWCRT = map[string]int64{
		"q":     int64(qWCRT),
		"w":     lastW,
		"delta": in.DeltaMinus(qWCRT),
	}
	return res, nil
}

func bcrtFromBMin(s Scheduler, t Task) int64 {
	bmin := s.BMin(t, 1)
	if bmin < t.BCET() {
		return t.BCET()
	}
	return bmin
}

// maxBacklog computes spec.md §4.B's "max_{q>=1} (eta+_in(busy_times[q] +
// output_delay) - q + 1)", the maximum number of queued-but-not-yet-started
// activations observed across the busy-window sequence.
func maxBacklog(in emodel.Model, busyTimes []int64, outputDelay int64) int64 {
	var best int64
	for q := 1; q < len(busyTimes); q++ {
		backlog := in.EtaPlus(busyTimes[q]+outputDelay) - int64(q) + 1
		if backlog > best {
			best = backlog
		}
	}
	return best
}
