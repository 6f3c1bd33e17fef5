package emodel

import "testing"

func TestPJdDeltaMonotone(t *testing.T) {
	m, err := NewPJd(10, 5, 2, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	for n := 1; n < 50; n++ {
		if m.DeltaMinus(n) > m.DeltaMinus(n+1) {
			t.Errorf("delta-minus not nondecreasing at n=%d", n)
		}
		if m.DeltaPlus(n) > m.DeltaPlus(n+1) {
			t.Errorf("delta-plus not nondecreasing at n=%d", n)
		}
		if m.DeltaMinus(n) > m.DeltaPlus(n) {
			t.Errorf("delta-minus(%d)=%d exceeds delta-plus=%d", n, m.DeltaMinus(n), m.DeltaPlus(n))
		}
	}
}

func TestPJdRoundTrip(t *testing.T) {
	// Scenario 6 of spec.md §8: PJd(P=10, J=99) reconstructed via eta
	// derivation must reproduce the same delta-minus/delta-plus for all
	// n in [0, 100].
	m, err := NewPJd(10, 99, 0, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	reconstructed := FromEta(m.EtaPlus, m.EtaMinus)
	for n := 0; n <= 100; n++ {
		if got, want := reconstructed.DeltaMinus(n), m.DeltaMinus(n); got != want {
			t.Errorf("delta-minus(%d): got %d, want %d", n, got, want)
		}
		if got, want := reconstructed.DeltaPlus(n), m.DeltaPlus(n); got != want {
			t.Errorf("delta-plus(%d): got %d, want %d", n, got, want)
		}
	}
}

func TestEtaDeltaDuality(t *testing.T) {
	m, err := NewPJd(30, 5, 0, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	for n := 1; n < 30; n++ {
		dn := m.DeltaMinus(n)
		if m.EtaPlus(dn+1) < int64(n) {
			t.Errorf("eta-plus(delta-minus(%d)+1)=%d < %d", n, m.EtaPlus(dn+1), n)
		}
		if m.EtaPlus(dn) >= int64(n) && n > 1 {
			t.Errorf("eta-plus(delta-minus(%d))=%d >= %d", n, m.EtaPlus(dn), n)
		}
		if m.EtaPlusClosed(dn) < int64(n) {
			t.Errorf("eta-plus-closed(delta-minus(%d))=%d < %d", n, m.EtaPlusClosed(dn), n)
		}
	}
}

func TestEtaMonotoneAndOrdered(t *testing.T) {
	m, err := NewPJd(15, 6, 1, 0)
	if err != nil {
		t.Fatalf("NewPJd: %v", err)
	}
	var prevPlus, prevMinus int64
	for dt := int64(0); dt < 200; dt += 3 {
		ep := m.EtaPlus(dt)
		em := m.EtaMinus(dt)
		if ep < prevPlus {
			t.Errorf("eta-plus not nondecreasing at dt=%d", dt)
		}
		if em < prevMinus {
			t.Errorf("eta-minus not nondecreasing at dt=%d", dt)
		}
		if em > ep {
			t.Errorf("eta-minus(%d)=%d exceeds eta-plus=%d", dt, em, ep)
		}
		prevPlus, prevMinus = ep, em
	}
}

func TestCinT(t *testing.T) {
	m, err := NewCinT(3, 30, 2)
	if err != nil {
		t.Fatalf("NewCinT: %v", err)
	}
	// First 3 events packed at minimum distance, 4th waits for the next window.
	if got, want := m.DeltaMinus(2), int64(2); got != want {
		t.Errorf("delta-minus(2) = %d, want %d", got, want)
	}
	if got, want := m.DeltaMinus(3), int64(4); got != want {
		t.Errorf("delta-minus(3) = %d, want %d", got, want)
	}
	if got, want := m.DeltaMinus(4), int64(30); got != want {
		t.Errorf("delta-minus(4) = %d, want %d", got, want)
	}
	if got := m.DeltaPlus(5); got != Infinite {
		t.Errorf("delta-plus should be unbounded, got %d", got)
	}
}

func TestLimitedDeltaAdditiveExtension(t *testing.T) {
	dm := []int64{0, 0, 5, 12}
	dp := []int64{0, 0, 6, 14}
	m, err := NewLimitedDelta(dm, dp)
	if err != nil {
		t.Fatalf("NewLimitedDelta: %v", err)
	}
	// n=4 beyond Q=3: max-additive over k in [2,3].
	got := m.DeltaMinus(4)
	if got < dm[3] {
		t.Errorf("additive extension should be conservative, got %d < %d", got, dm[3])
	}
	gotPlus := m.DeltaPlus(4)
	if gotPlus < dp[3] {
		t.Errorf("delta-plus extension should not be tighter than base table, got %d < %d", gotPlus, dp[3])
	}
}

func TestLimitedDeltaRejectsNonMonotone(t *testing.T) {
	dm := []int64{0, 5, 2}
	dp := []int64{0, 6, 7}
	if _, err := NewLimitedDelta(dm, dp); err == nil {
		t.Fatal("expected InvalidModel error for non-monotone delta-minus table")
	}
}

func TestTraceModel(t *testing.T) {
	ts := []int64{0, 10, 19, 31, 40}
	m, err := NewTrace(ts)
	if err != nil {
		t.Fatalf("NewTrace: %v", err)
	}
	if got, want := m.DeltaMinus(2), int64(9); got != want {
		t.Errorf("delta-minus(2) = %d, want %d (min consecutive gap)", got, want)
	}
	if got, want := m.DeltaPlus(2), int64(12); got != want {
		t.Errorf("delta-plus(2) = %d, want %d (max consecutive gap)", got, want)
	}
}

func TestNewPJdRejectsInvalidParameters(t *testing.T) {
	if _, err := NewPJd(-1, 0, 0, 0); err == nil {
		t.Fatal("expected error for negative period")
	}
	if _, err := NewPJd(10, -1, 0, 0); err == nil {
		t.Fatal("expected error for negative jitter")
	}
}
