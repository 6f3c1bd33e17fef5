package sched

import (
	"testing"

	"github.com/cpa-go/cpa/emodel"
)

// taskStub is a minimal Task implementation used to exercise the scheduler
// kernel in isolation, without depending on the cpa package's data model.
type taskStub struct {
	name     string
	wcet     int64
	bcet     int64
	param    int64
	deadline int64
	hasDL    bool
	in       emodel.Model
}

func (t *taskStub) WCET() int64               { return t.wcet }
func (t *taskStub) BCET() int64               { return t.bcet }
func (t *taskStub) SchedulingParameter() int64 { return t.param }
func (t *taskStub) Deadline() (int64, bool)    { return t.deadline, t.hasDL }
func (t *taskStub) InEventModel() emodel.Model { return t.in }
func (t *taskStub) TaskName() string           { return t.name }

func pjd(t *testing.T, p, j, d int64) emodel.Model {
	t.Helper()
	m, err := emodel.NewPJd(p, j, d, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	return m
}

// TestSPPResourceOne reproduces the R1 half of seed scenario 1 (spec.md
// §8): T11(wcet=10,bcet=5,prio=1,P=30,J=5) and T12(3,1,prio=2,P=15,J=6) on
// one SPP resource, priority 1 highest. Expected: wcrt(T11)=10, wcrt(T12)=13.
func TestSPPResourceOne(t *testing.T) {
	t11 := &taskStub{name: "T11", wcet: 10, bcet: 5, param: 1, in: pjd(t, 30, 5, 0)}
	t12 := &taskStub{name: "T12", wcet: 3, bcet: 1, param: 2, in: pjd(t, 15, 6, 0)}

	s := NewSPP(HighWinsFIFO)
	r1, err := AnalyzeWCRT(s, t11, []Task{t11, t12}, DefaultLimits)
	if err != nil {
		t.Fatalf("AnalyzeWCRT(T11): %v", err)
	}
	if r1.WCRT != 10 {
		t.Errorf("wcrt(T11) = %d, want 10", r1.WCRT)
	}

	r2, err := AnalyzeWCRT(s, t12, []Task{t11, t12}, DefaultLimits)
	if err != nil {
		t.Fatalf("AnalyzeWCRT(T12): %v", err)
	}
	if r2.WCRT != 13 {
		t.Errorf("wcrt(T12) = %d, want 13", r2.WCRT)
	}
}

// TestTDMAClosedForm reproduces seed scenario 2 (spec.md §8): four tasks
// with slot size 2 sharing a TDMA resource; closed-form WCRT of T1 at q=1
// is wcet + ceil(wcet/slot)*(T_cycle - slot) = 10 + 5*6 = 40.
func TestTDMAClosedForm(t *testing.T) {
	t1 := &taskStub{name: "T1", wcet: 10, bcet: 10, param: 2, in: pjd(t, 30, 5, 0)}
	t2 := &taskStub{name: "T2", wcet: 3, bcet: 3, param: 2, in: pjd(t, 30, 0, 0)}
	t3 := &taskStub{name: "T3", wcet: 2, bcet: 2, param: 2, in: pjd(t, 30, 0, 0)}
	t4 := &taskStub{name: "T4", wcet: 3, bcet: 3, param: 2, in: pjd(t, 30, 0, 0)}

	s := NewTDMA()
	w := s.BPlus(t1, 1, []Task{t1, t2, t3, t4})
	if w != 40 {
		t.Errorf("TDMA b+(T1,1) = %d, want 40", w)
	}
}

// TestEDFPTerminatesAndMeetsDeadlines reproduces seed scenario 3 (spec.md
// §8, Spuri 1996): four tasks on an EDF-P resource; analysis must terminate
// and every task's WCRT must not exceed its deadline.
func TestEDFPTerminatesAndMeetsDeadlines(t *testing.T) {
	mk := func(name string, wcet, bcet, deadline, period int64) *taskStub {
		return &taskStub{name: name, wcet: wcet, bcet: bcet, deadline: deadline, hasDL: true, in: pjd(t, period, 0, 0)}
	}
	t1 := mk("T1", 1, 1, 4, 4)
	t2 := mk("T2", 2, 1, 9, 6)
	t3 := mk("T3", 2, 1, 6, 8)
	t4 := mk("T4", 2, 1, 12, 16)
	all := []Task{t1, t2, t3, t4}

	s := NewEDFP(DefaultLimits)
	for _, task := range all {
		r, err := AnalyzeWCRT(s, task, all, DefaultLimits)
		if err != nil {
			t.Fatalf("AnalyzeWCRT(%s): %v", task.TaskName(), err)
		}
		d, _ := task.Deadline()
		if r.WCRT > d {
			t.Errorf("wcrt(%s) = %d exceeds deadline %d", task.TaskName(), r.WCRT, d)
		}
	}
}

// TestPessimismInvariant checks spec.md §8's "Pessimism after analysis"
// property across every policy: bcrt <= wcrt, bcrt >= bcet, wcrt >= wcet,
// and the busy-time sequence is monotone with step size >= wcet.
func TestPessimismInvariant(t *testing.T) {
	t1 := &taskStub{name: "T1", wcet: 10, bcet: 5, param: 1, in: pjd(t, 30, 5, 0)}
	t2 := &taskStub{name: "T2", wcet: 3, bcet: 1, param: 2, in: pjd(t, 15, 6, 0)}
	s := NewSPP(HighWinsFIFO)
	r, err := AnalyzeWCRT(s, t1, []Task{t1, t2}, DefaultLimits)
	if err != nil {
		t.Fatalf("AnalyzeWCRT: %v", err)
	}
	if r.BCRT > r.WCRT {
		t.Errorf("bcrt %d > wcrt %d", r.BCRT, r.WCRT)
	}
	if r.BCRT < t1.BCET() {
		t.Errorf("bcrt %d < bcet %d", r.BCRT, t1.BCET())
	}
	if r.WCRT < t1.WCET() {
		t.Errorf("wcrt %d < wcet %d", r.WCRT, t1.WCET())
	}
	for k := 1; k < len(r.BusyTimes); k++ {
		if r.BusyTimes[k]-r.BusyTimes[k-1] < t1.WCET() {
			t.Errorf("busy_times[%d]-busy_times[%d] = %d < wcet %d", k, k-1, r.BusyTimes[k]-r.BusyTimes[k-1], t1.WCET())
		}
	}
}
