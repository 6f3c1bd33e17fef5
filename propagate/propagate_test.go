package propagate

import (
	"testing"

	"github.com/cpa-go/cpa/emodel"
)

func pjd(t *testing.T, p, j, d int64) emodel.Model {
	t.Helper()
	m, err := emodel.NewPJd(p, j, d, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	return m
}

// TestJitterConservatism checks spec.md §4.C's correctness invariant: every
// derived model satisfies delta-minus-out(n) >= delta-minus_in(n) -
// (wcrt-bcrt) and delta-plus-out(n) >= delta-plus_in(n) (never tighter than
// possible without analysis).
func TestJitterConservatism(t *testing.T) {
	in := pjd(t, 30, 5, 0)
	res := Result{WCRT: 10, BCRT: 5, BusyTimes: []int64{0, 10}}
	out := Propagate(Jitter, in, res, Offset{}, 5)
	for n := 1; n < 20; n++ {
		lower := in.DeltaMinus(n) - (res.WCRT - res.BCRT)
		if out.DeltaMinus(n) < lower {
			t.Errorf("delta-minus-out(%d)=%d < %d", n, out.DeltaMinus(n), lower)
		}
		if out.DeltaPlus(n) < in.DeltaPlus(n) {
			t.Errorf("delta-plus-out(%d)=%d < delta-plus-in=%d", n, out.DeltaPlus(n), in.DeltaPlus(n))
		}
	}
}

func TestBusyWindowTighterThanJitter(t *testing.T) {
	in := pjd(t, 30, 5, 0)
	res := Result{WCRT: 13, BCRT: 3, BusyTimes: []int64{0, 13, 28, 43}}
	jitterOut := Propagate(Jitter, in, res, Offset{}, 3)
	busyOut := Propagate(BusyWindow, in, res, Offset{}, 3)
	for n := 2; n < 10; n++ {
		if busyOut.DeltaMinus(n) < jitterOut.DeltaMinus(n)-1 {
			// busy-window should generally not be looser than jitter.
			t.Errorf("n=%d busy=%d jitter=%d", n, busyOut.DeltaMinus(n), jitterOut.DeltaMinus(n))
		}
	}
}

func TestOptimalIsPointwiseTighterOrEqual(t *testing.T) {
	in := pjd(t, 30, 5, 0)
	res := Result{WCRT: 13, BCRT: 3, BusyTimes: []int64{0, 13, 28, 43}}
	jb := Propagate(JitterBmin, in, res, Offset{}, 3)
	bw := Propagate(BusyWindow, in, res, Offset{}, 3)
	opt := Propagate(Optimal, in, res, Offset{}, 3)
	for n := 2; n < 10; n++ {
		wantMinus := jb.DeltaMinus(n)
		if bw.DeltaMinus(n) > wantMinus {
			wantMinus = bw.DeltaMinus(n)
		}
		if opt.DeltaMinus(n) != wantMinus {
			t.Errorf("optimal delta-minus(%d) = %d, want max(%d,%d)", n, opt.DeltaMinus(n), jb.DeltaMinus(n), bw.DeltaMinus(n))
		}
	}
}

func TestPropagateOffsetTracksPhaseAndJitter(t *testing.T) {
	in := Offset{Phi: 2, P: 30, J: 5}
	res := Result{WCRT: 15, BCRT: 5}
	out := PropagateOffset(in, res, 3)
	if out.Phi != 5 {
		t.Errorf("phi_out = %d, want 5", out.Phi)
	}
	if out.P != 30 {
		t.Errorf("P should be preserved, got %d", out.P)
	}
	if out.J != 15 {
		t.Errorf("J_out = %d, want 15", out.J)
	}
}
