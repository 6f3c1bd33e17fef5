package cpa

import (
	"testing"

	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/sched"
)

func TestLinkWiresTaskToTaskSuccessorAndPredecessor(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	a := sys.AddTask(r, "A", 1, 1, 1)
	b := sys.AddTask(r, "B", 1, 1, 2)

	Link(a, b)

	if len(a.Successors) != 1 || a.Successors[0] != Linkable(b) {
		t.Fatalf("A.Successors = %v, want [B]", a.Successors)
	}
	if b.Predecessor != Linkable(a) {
		t.Fatalf("B.Predecessor = %v, want A", b.Predecessor)
	}
}

func TestLinkWiresJunctionWithMultiplePredecessors(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	a := sys.AddTask(r, "A", 1, 1, 1)
	b := sys.AddTask(r, "B", 1, 1, 2)
	j := sys.AddJunction("J", junction.Or, "")

	Link(a, j)
	Link(b, j)

	if len(j.Predecessors) != 2 {
		t.Fatalf("J.Predecessors = %v, want 2 entries", j.Predecessors)
	}
}

func TestSetDeadlineUpdatesBothTaskAndConstraintSet(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	a := sys.AddTask(r, "A", 1, 1, 1)

	sys.SetDeadline(a, 42)

	if a.Deadline == nil || *a.Deadline != 42 {
		t.Fatalf("a.Deadline = %v, want 42", a.Deadline)
	}
	if sys.Constraints.Deadlines[a] != 42 {
		t.Fatalf("Constraints.Deadlines[a] = %d, want 42", sys.Constraints.Deadlines[a])
	}
}

func TestAddPathAndEffectChain(t *testing.T) {
	sys := NewSystem()
	r := sys.AddResource("R", sched.NewSPP(sched.HighWinsFIFO), 0)
	a := sys.AddTask(r, "A", 1, 1, 1)
	b := sys.AddTask(r, "B", 1, 1, 2)

	p := sys.AddPath("P", a, b)
	if len(p.Hops) != 2 {
		t.Fatalf("path has %d hops, want 2", len(p.Hops))
	}

	ec := sys.AddEffectChain("EC", a, b)
	if len(ec.Writers) != 2 {
		t.Fatalf("effect chain has %d writers, want 2", len(ec.Writers))
	}
}
