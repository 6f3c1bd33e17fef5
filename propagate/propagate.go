// Package propagate implements the output-event-model propagation kernel of
// spec.md §4.C: given a task's input event model and its local analysis
// result, derive the event model that should be fed to its successors. Each
// rule is selectable per analysis as a Mode and produces its output as an
// emodel.Model built with emodel.FromDelta, per spec.md's design note that
// "composition... produces new variants that own references to their
// inputs."
package propagate

import "github.com/cpa-go/cpa/emodel"

// Mode names one of the six propagation rules of spec.md §4.C.
type Mode int

const (
	// Jitter is the baseline rule: output jitter equals wcrt-bcrt, and no
	// minimum distance between outputs is kept (dmin = 0).
	Jitter Mode = iota
	// JitterDmin is Jitter with bcrt kept as the minimum distance between
	// outputs, applied recursively: delta-minus-out(n) is at least
	// delta-minus-out(n-1) + bcrt.
	JitterDmin
	// JitterOffset additionally tracks phase and preserves period, for
	// offset-aware SPP analysis; its delta bounds use dmin = bcrt.
	JitterOffset
	// JitterBmin raises the (n-1)*bcrt floor of jitter propagation to the
	// scheduler's bmin(t, n-1) bound when available.
	JitterBmin
	// BusyWindow uses the stored busy-window sequence for a generally
	// tighter bound than jitter-based rules.
	BusyWindow
	// Optimal computes both JitterBmin and BusyWindow and returns the
	// pointwise tighter bound.
	Optimal
)

// Result is the subset of a task's local analysis spec.md §4.C needs to
// propagate an output model: WCRT, BCRT, the busy-window sequence, and
// (when available) a scheduler's bmin bound.
type Result struct {
	WCRT      int64
	BCRT      int64
	BusyTimes []int64 // BusyTimes[0] = 0; BusyTimes[k] = b+(t, k)
	BMin      func(n int) int64
}

// Offset additionally carries phase/period/jitter state for
// JitterOffset-mode propagation.
type Offset struct {
	Phi, P, J int64
}

// Propagate derives an output event model from an input model and a task's
// analysis result, per the chosen Mode. phaseIn/bcet are only consulted by
// JitterOffset.
func Propagate(mode Mode, in emodel.Model, res Result, phaseIn Offset, bcet int64) emodel.Model {
	switch mode {
	case Jitter:
		return jitter(in, res, true)
	case JitterDmin:
		return jitterRecursive(in, res)
	case JitterOffset:
		return jitter(in, res, false)
	case JitterBmin:
		return jitterBmin(in, res)
	case BusyWindow:
		return busyWindow(in, res)
	case Optimal:
		bw := busyWindow(in, res)
		jb := jitterBmin(in, res)
		return tighter(jb, bw)
	default:
		return jitter(in, res, false)
	}
}

// PropagateOffset computes the companion phase/jitter/period state tracked
// alongside a JitterOffset-mode output model (spec.md §4.C: "phi_out =
// phi_in + bcet, J_out = J_in + wcrt - bcrt, preserving P").
func PropagateOffset(in Offset, res Result, bcet int64) Offset {
	return Offset{
		Phi: in.Phi + bcet,
		P:   in.P,
		J:   in.J + (res.WCRT - res.BCRT),
	}
}

func jitter(in emodel.Model, res Result, onlyJitter bool) emodel.Model {
	lag := res.WCRT - res.BCRT
	dmin := res.BCRT
	if onlyJitter {
		dmin = 0
	}
	deltaMinus := func(n int) int64 {
		a := in.DeltaMinus(n) - lag
		b := int64(n-1) * dmin
		if b > a {
			return b
		}
		return a
	}
	deltaPlus := func(n int) int64 {
		ip := in.DeltaPlus(n)
		if ip >= emodel.Infinite {
			return emodel.Infinite
		}
		return ip + lag
	}
	return emodel.FromDelta(deltaMinus, deltaPlus)
}

// jitterRecursive replaces the (n-1)*dmin floor of plain jitter propagation
// with a recursive definition: delta-minus-out(n) = max(..., delta-minus-
// out(n-1) + dmin), per spec.md §4.C's jitter_dmin mode.
func jitterRecursive(in emodel.Model, res Result) emodel.Model {
	lag := res.WCRT - res.BCRT
	dmin := res.BCRT
	memo := make(map[int]int64)
	var deltaMinus func(n int) int64
	deltaMinus = func(n int) int64 {
		if n < 2 {
			return 0
		}
		if v, ok := memo[n]; ok {
			return v
		}
		a := in.DeltaMinus(n) - lag
		b := deltaMinus(n-1) + dmin
		v := a
		if b > v {
			v = b
		}
		memo[n] = v
		return v
	}
	deltaPlus := func(n int) int64 {
		ip := in.DeltaPlus(n)
		if ip >= emodel.Infinite {
			return emodel.Infinite
		}
		return ip + lag
	}
	return emodel.FromDelta(deltaMinus, deltaPlus)
}

// jitterBmin tightens the (n-1)*dmin floor of jitter propagation using the
// scheduler's bmin(t, n-1) bound, per spec.md §4.C's jitter_bmin mode.
func jitterBmin(in emodel.Model, res Result) emodel.Model {
	lag := res.WCRT - res.BCRT
	dmin := res.BCRT
	deltaMinus := func(n int) int64 {
		a := in.DeltaMinus(n) - lag
		b := int64(n-1) * dmin
		if res.BMin != nil {
			if bm := res.BMin(n - 1); bm > b {
				b = bm
			}
		}
		if b > a {
			return b
		}
		return a
	}
	deltaPlus := func(n int) int64 {
		ip := in.DeltaPlus(n)
		if ip >= emodel.Infinite {
			return emodel.Infinite
		}
		return ip + lag
	}
	return emodel.FromDelta(deltaMinus, deltaPlus)
}

// busyWindow implements spec.md §4.C's busy-window propagation, generally
// the tightest rule for SPP-like policies:
//
//	delta-minus-out(n) = max( (n-1)*dmin, bcrt + min_{k in [1,K)} (delta-minus_in(n+k-1) - busy_times[k]) )
//	delta-plus-out(n)  = max_{k in [1,K)} (delta-plus_in(n-k+1) + busy_times[k]) - bcrt
func busyWindow(in emodel.Model, res Result) emodel.Model {
	dmin := res.BCRT
	bt := res.BusyTimes
	k := len(bt)
	deltaMinus := func(n int) int64 {
		floor := int64(n-1) * dmin
		if k < 2 {
			return floor
		}
		best := in.DeltaMinus(n) - bt[1]
		for kk := 2; kk < k; kk++ {
			cand := in.DeltaMinus(n+kk-1) - bt[kk]
			if cand < best {
				best = cand
			}
		}
		v := res.BCRT + best
		if floor > v {
			return floor
		}
		return v
	}
	deltaPlus := func(n int) int64 {
		if k < 2 {
			ip := in.DeltaPlus(n)
			if ip >= emodel.Infinite {
				return emodel.Infinite
			}
			return ip - res.BCRT
		}
		var best int64
		init := false
		for kk := 1; kk < k; kk++ {
			m := n - kk + 1
			if m < 0 {
				continue
			}
			ip := in.DeltaPlus(m)
			if ip >= emodel.Infinite {
				return emodel.Infinite
			}
			cand := ip + bt[kk]
			if !init || cand > best {
				best = cand
				init = true
			}
		}
		if !init {
			return emodel.Infinite
		}
		return best - res.BCRT
	}
	return emodel.FromDelta(deltaMinus, deltaPlus)
}

// tighter returns the pointwise tighter of two models: the maximum
// delta-minus and the minimum delta-plus, per spec.md §4.C's "optimal"
// mode.
func tighter(a, b emodel.Model) emodel.Model {
	deltaMinus := func(n int) int64 {
		va, vb := a.DeltaMinus(n), b.DeltaMinus(n)
		if va > vb {
			return va
		}
		return vb
	}
	deltaPlus := func(n int) int64 {
		va, vb := a.DeltaPlus(n), b.DeltaPlus(n)
		if va < vb {
			return va
		}
		return vb
	}
	return emodel.FromDelta(deltaMinus, deltaPlus)
}
