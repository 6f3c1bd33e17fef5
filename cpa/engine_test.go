package cpa

import (
	"testing"

	"github.com/cpa-go/cpa/emodel"
	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/propagate"
	"github.com/cpa-go/cpa/sched"
)

func mustPJd(t *testing.T, p, j, d int64) emodel.Model {
	t.Helper()
	m, err := emodel.NewPJd(p, j, d, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	return m
}

// TestTwoResourceSPP wires the R1 half of seed scenario 1 (spec.md §8)
// through AnalyzeSystem end to end and checks the two locally-analyzed
// WCRTs that don't depend on cross-resource propagation, plus the basic
// pessimism invariants (wcrt >= wcet, busy_times monotone) for the
// downstream tasks whose input model is itself derived by propagation.
func TestTwoResourceSPP(t *testing.T) {
	sys := NewSystem()

	r1 := sys.AddResource("R1", sched.NewSPP(sched.HighWinsFIFO), 0)
	r2 := sys.AddResource("R2", sched.NewSPP(sched.HighWinsFIFO), 0)

	t11 := sys.AddTask(r1, "T11", 10, 5, 1)
	t11.InEventModel = mustPJd(t, 30, 5, 0)
	t12 := sys.AddTask(r1, "T12", 3, 1, 2)
	t12.InEventModel = mustPJd(t, 15, 6, 0)

	t21 := sys.AddTask(r2, "T21", 2, 2, 1)
	t22 := sys.AddTask(r2, "T22", 9, 4, 2)

	Link(t11, t21)
	Link(t12, t22)

	results, err := AnalyzeSystem(sys, WithPropagationMode(propagate.BusyWindow))
	if err != nil {
		t.Fatalf("AnalyzeSystem: %v", err)
	}

	if got := results["T11"].WCRT; got != 10 {
		t.Errorf("wcrt(T11) = %d, want 10", got)
	}
	if got := results["T12"].WCRT; got != 13 {
		t.Errorf("wcrt(T12) = %d, want 13", got)
	}

	for _, name := range []string{"T21", "T22"} {
		r, ok := results[name]
		if !ok {
			t.Fatalf("missing result for %s", name)
		}
		if r.WCRT < r.BCRT {
			t.Errorf("%s: wcrt %d < bcrt %d", name, r.WCRT, r.BCRT)
		}
		for i := 1; i < len(r.BusyTimes); i++ {
			if r.BusyTimes[i] < r.BusyTimes[i-1] {
				t.Errorf("%s: busy_times not monotone at %d: %v", name, i, r.BusyTimes)
			}
		}
	}
	if results["T22"].WCRT < 9 {
		t.Errorf("wcrt(T22) = %d, want >= wcet 9", results["T22"].WCRT)
	}
}

// TestAndJunctionEndToEnd reproduces seed scenario 4 through AnalyzeSystem:
// two upstream tasks feed an AND-junction that feeds a third task, and the
// junction's output satisfies the AND-combination formula of spec.md §8.
func TestAndJunctionEndToEnd(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)

	a := sys.AddTask(r, "A", 2, 1, 1)
	a.InEventModel = mustPJd(t, 20, 3, 0)
	b := sys.AddTask(r, "B", 2, 1, 2)
	b.InEventModel = mustPJd(t, 25, 1, 0)
	c := sys.AddTask(r, "C", 2, 1, 3)

	j := sys.AddJunction("J", junction.And, "")
	Link(a, j)
	Link(b, j)
	Link(j, c)

	results, err := AnalyzeSystem(sys)
	if err != nil {
		t.Fatalf("AnalyzeSystem: %v", err)
	}
	if _, ok := results["C"]; !ok {
		t.Fatalf("missing result for C")
	}

	for n := 1; n <= 5; n++ {
		dm := j.Output.DeltaMinus(n)
		if want := min64(j.Inputs["A"].DeltaMinus(n), j.Inputs["B"].DeltaMinus(n)); dm != want {
			t.Errorf("junction delta-minus(%d) = %d, want min(inputs) = %d", n, dm, want)
		}
		dp := j.Output.DeltaPlus(n)
		if want := max64(j.Inputs["A"].DeltaPlus(n), j.Inputs["B"].DeltaPlus(n)); dp != want {
			t.Errorf("junction delta-plus(%d) = %d, want max(inputs) = %d", n, dp, want)
		}
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// TestLoadGateRejectsOverloadedResource exercises spec.md §8's load-gate
// invariant: a resource whose root tasks alone already exceed utilization 1
// fails before any busy-window search runs.
func TestLoadGateRejectsOverloadedResource(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)

	heavy := sys.AddTask(r, "Heavy", 20, 20, 1)
	heavy.InEventModel = mustPJd(t, 10, 0, 0)

	_, err := AnalyzeSystem(sys)
	if err == nil {
		t.Fatalf("expected NotSchedulable for an overloaded resource")
	}
	if _, ok := err.(*NotSchedulable); !ok {
		t.Errorf("expected *NotSchedulable, got %T: %v", err, err)
	}
}

// TestForkReplicatesOutputToSuccessors wires a Fork between a source task
// and two downstream tasks and checks that both downstream tasks converge
// using the fork's single replicated output model.
func TestForkReplicatesOutputToSuccessors(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)

	src := sys.AddTask(r, "Src", 2, 1, 1)
	src.InEventModel = mustPJd(t, 20, 2, 0)

	fork := sys.AddFork(r, "Fork", 1, 1, 2, ForkReplicate)
	d1 := sys.AddTask(r, "D1", 2, 1, 3)
	d2 := sys.AddTask(r, "D2", 2, 1, 4)

	Link(src, fork)
	Link(fork, d1)
	Link(fork, d2)

	results, err := AnalyzeSystem(sys)
	if err != nil {
		t.Fatalf("AnalyzeSystem: %v", err)
	}
	for _, name := range []string{"Src", "Fork", "D1", "D2"} {
		if _, ok := results[name]; !ok {
			t.Fatalf("missing result for %s", name)
		}
	}
}

// TestJunctionCutsFunctionalCycle reproduces spec.md §4.D/§9's functional
// cycle: a junction whose only predecessor is itself reachable from the
// junction's own output. Cutting that back-edge leaves the junction with no
// inputs, which must surface as NotSchedulable rather than stalling the
// dirty-set loop forever.
func TestJunctionCutsFunctionalCycle(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	tk := sys.AddTask(r, "T", 2, 1, 1)
	j := sys.AddJunction("J", junction.And, "")

	Link(j, tk)
	Link(tk, j)

	_, err := AnalyzeSystem(sys)
	if err == nil {
		t.Fatalf("expected an error for a junction whose only input is cut as a functional cycle")
	}
	if _, ok := err.(*NotSchedulable); !ok {
		t.Errorf("expected *NotSchedulable, got %T: %v", err, err)
	}
}

// TestJitterOffsetModePropagatesWithoutError exercises the JitterOffset
// propagation path end to end: phase/jitter state threads from a source
// task through to a downstream task on another resource without the engine
// ever needing the raw propagate.Offset value to compute a result.
func TestJitterOffsetModePropagatesWithoutError(t *testing.T) {
	sys := NewSystem()
	r1 := sys.AddResource("R1", sched.NewSPP(sched.HighWinsFIFO), 0)
	r2 := sys.AddResource("R2", sched.NewSPP(sched.HighWinsFIFO), 0)

	src := sys.AddTask(r1, "Src", 3, 1, 1)
	src.InEventModel = mustPJd(t, 25, 4, 0)
	dst := sys.AddTask(r2, "Dst", 2, 1, 1)
	Link(src, dst)

	results, err := AnalyzeSystem(sys, WithPropagationMode(propagate.JitterOffset))
	if err != nil {
		t.Fatalf("AnalyzeSystem: %v", err)
	}
	if _, ok := results["Dst"]; !ok {
		t.Fatalf("missing result for Dst")
	}
}

func TestCheckViolationsReportsDeadlineMiss(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	a := sys.AddTask(r, "A", 10, 5, 1)
	a.InEventModel = mustPJd(t, 30, 0, 0)
	sys.SetDeadline(a, 5)

	results, err := AnalyzeSystem(sys)
	if err != nil {
		t.Fatalf("AnalyzeSystem: %v", err)
	}
	violations := CheckViolations(sys, results)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if violations[0].Kind != "deadline" || violations[0].Entity != "A" {
		t.Errorf("unexpected violation: %+v", violations[0])
	}
}
