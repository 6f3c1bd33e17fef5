// Package pathlat implements spec.md §4.F's path and cause-effect-chain
// latency queries: the classic sum-of-wcrt bound, a recursive
// (replay-style) recurrence over each hop's busy-window sequence,
// and harmonic-period cause-effect data-age / reaction-time analysis.
//
// These are auxiliary pure queries over a converged cpa.AnalyzeSystem
// result map; none of them re-run any scheduler or propagation kernel.
// Grounded on the teacher's graph/checkpoint.go, which replays a recorded
// step history to reconstruct state rather than re-executing nodes.
package pathlat

import (
	"github.com/cpa-go/cpa"
)

// hopLatency is the (bcrt, wcrt) contribution of one path hop, resolved
// against the hop it was reached from (relevant only for junctions, whose
// contribution depends on whether the predecessor was the trigger).
func hopLatency(hop cpa.Linkable, from string, results map[string]cpa.TaskResult) (bc, wc int64, err error) {
	switch h := hop.(type) {
	case *cpa.Task:
		r, ok := results[h.Name]
		if !ok {
			return 0, 0, &cpa.InvalidInput{Reason: "path references unanalyzed task " + h.Name}
		}
		return r.BCRT, r.WCRT, nil
	case *cpa.Junction:
		if from == "" || from == h.Trigger {
			return 0, 0, nil
		}
		p, ok := h.Pseudo[from]
		if !ok {
			return 0, 0, nil
		}
		return p.BCRT, p.WCRT, nil
	default:
		return 0, 0, &cpa.InvalidInput{Reason: "unrecognized path hop type"}
	}
}

func hopName(hop cpa.Linkable) string {
	switch h := hop.(type) {
	case *cpa.Task:
		return h.Name
	case *cpa.Junction:
		return h.Name
	default:
		return ""
	}
}

// firstHopInput returns the source event model a path's latency bound is
// sampled against: the first hop's own InEventModel when it is a task with
// no predecessor, or nil if the path starts mid-graph (in which case the
// delta-minus(n) term of spec.md's classic formula is simply omitted).
func firstHopInput(path *cpa.Path) (deltaMinus func(n int) int64, ok bool) {
	if len(path.Hops) == 0 {
		return nil, false
	}
	t, isTask := path.Hops[0].(*cpa.Task)
	if !isTask || t.InEventModel == nil {
		return nil, false
	}
	return t.InEventModel.DeltaMinus, true
}

// Classic computes spec.md §4.F's classic path latency bound for the n-th
// event: the sum of every hop's response time (wcrt for worst case, bcrt
// for best case) plus delta-minus(n) of the path's first task's input
// model, when available.
func Classic(path *cpa.Path, results map[string]cpa.TaskResult, n int) (bc, wc int64, err error) {
	var prev string
	for _, hop := range path.Hops {
		hbc, hwc, herr := hopLatency(hop, prev, results)
		if herr != nil {
			return 0, 0, herr
		}
		bc += hbc
		wc += hwc
		prev = hopName(hop)
	}
	if dm, ok := firstHopInput(path); ok {
		offset := dm(n)
		bc += offset
		wc += offset
	}
	return bc, wc, nil
}

// Recursive computes spec.md §4.F's tighter recursive path latency: a
// replay of each hop's busy-window sequence against the previous hop's
// exit-time sequence, rather than a flat wcrt sum. Only *cpa.Task hops
// carry a BusyTimes sequence; a *cpa.Junction hop passes its predecessor's
// exit time through unchanged, shifted by its pseudo wait (if any).
//
// n is the 1-based index of the event at the path's first hop whose
// end-to-end latency is being bounded.
func Recursive(path *cpa.Path, results map[string]cpa.TaskResult, n int) (wc int64, err error) {
	if len(path.Hops) == 0 {
		return 0, &cpa.InvalidInput{Reason: "path has no hops"}
	}
	// eExit[m] is the latest exit time of the m-th event at the current
	// hop, indexed from 1; eExit[0] is unused (reference event 0 at m=0 is
	// implicit 0, per spec.md's e_exit(i-1, n-k+1) recurrence).
	eExit := make([]int64, n+1)
	var prevName string
	for hi, hop := range path.Hops {
		switch h := hop.(type) {
		case *cpa.Task:
			r, ok := results[h.Name]
			if !ok {
				return 0, &cpa.InvalidInput{Reason: "path references unanalyzed task " + h.Name}
			}
			if len(r.BusyTimes) < 2 {
				return 0, &cpa.InvalidInput{Reason: "task " + h.Name + " has no busy-window sequence"}
			}
			next := make([]int64, n+1)
			for m := 1; m <= n; m++ {
				var best int64
				init := false
				for k := 1; k < len(r.BusyTimes) && k <= m; k++ {
					src := m - k + 1
					var e int64
					if hi == 0 {
						// reference event 0 is implicit; event src at the
						// first hop arrives at time delta-minus(src) of its
						// own input model if known, else 0 (conservative
						// for a mid-graph path start).
						if dm, ok := firstHopInput(path); ok && src >= 1 {
							e = dm(src)
						}
					} else if src >= 1 {
						e = eExit[src]
					} else {
						continue
					}
					cand := e + r.BusyTimes[k]
					if !init || cand > best {
						best = cand
						init = true
					}
				}
				next[m] = best
			}
			eExit = next
			prevName = h.Name
		case *cpa.Junction:
			delay := int64(0)
			if prevName != "" && prevName != h.Trigger {
				if p, ok := h.Pseudo[prevName]; ok {
					delay = p.WCRT
				}
			}
			next := make([]int64, n+1)
			for m := 1; m <= n; m++ {
				next[m] = eExit[m] + delay
			}
			eExit = next
			prevName = h.Name
		default:
			return 0, &cpa.InvalidInput{Reason: "unrecognized path hop type"}
		}
	}
	return eExit[n], nil
}
