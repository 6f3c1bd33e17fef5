package pathlat

import (
	"github.com/cpa-go/cpa"
	"github.com/cpa-go/cpa/emodel"
)

// periodicWriter is the view of a chain writer's own release pattern that
// the hop-distance formulas below need: its period, jitter and phase.
// Cause-effect chains model independently-clocked periodic tasks (their
// InEventModel describes their own activation, not data arriving from the
// previous writer), so every writer must carry a genuinely periodic
// *emodel.PJd input model.
func periodicWriter(t *cpa.Task) (*emodel.PJd, error) {
	pjd, ok := t.InEventModel.(*emodel.PJd)
	if !ok {
		return nil, &cpa.InvalidInput{Reason: "cause-effect chain writer " + t.Name + " has no periodic (P,J,d) input event model"}
	}
	return pjd, nil
}

// checkHarmonic enforces spec.md §4.F's precondition that a cause-effect
// chain's writers share harmonic periods: for every consecutive pair, the
// larger period must be an exact integer multiple of the smaller one.
// Violating this makes the forward/backward distance formulas below
// unsound, so this fails fast with InvalidInput rather than silently
// returning an unsound bound.
func checkHarmonic(periods []int64) error {
	for i := 1; i < len(periods); i++ {
		a, b := periods[i-1], periods[i]
		hi, lo := a, b
		if lo > hi {
			hi, lo = lo, hi
		}
		if lo <= 0 || hi%lo != 0 {
			return &cpa.InvalidInput{Reason: "cause-effect chain periods are not harmonic"}
		}
	}
	return nil
}

// ceilDiv and floorDiv are integer division helpers for positive divisors,
// used by the hop-distance formulas (P_{i+1} is always > 0, enforced by
// emodel.NewPJd).
func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func floorDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return a / b
}

// forwardDistance bounds the worst-case time from writer i producing data
// to writer i+1's next activation consuming it: i+1 must wait for at least
// one of its own periods to elapse after i's release (accounting for i's
// own jitter pushing that release later), plus i+1's own jitter before its
// activation is actually processed. This is the "oversampling/undersampling"
// distinction of spec.md §4.F: when P_{i+1} < P_i the ceiling captures the
// extra i+1 periods needed to catch up to i's slower rate.
func forwardDistance(wi, wj *emodel.PJd) int64 {
	return ceilDiv(wi.P+wi.J, wj.P)*wj.P + wj.J
}

// backwardDistance bounds the best-case (data-age) time from writer i+1's
// activation back to the most recent write by i that it could have
// consumed: the latest whole multiple of i+1's period not exceeding i's
// period, less i+1's jitter (which can only shrink the distance, never
// grow it), floored at zero.
func backwardDistance(wi, wj *emodel.PJd) int64 {
	d := floorDiv(wi.P, wj.P)*wj.P - wj.J
	if d < 0 {
		return 0
	}
	return d
}

// CauseEffectChainReactionTime computes spec.md §4.F's worst-case
// reaction-time bound for chain: the time from the first writer's
// activation until the last writer's completion has incorporated that
// activation's effect, summing each hop's forward distance and the final
// writer's WCRT.
func CauseEffectChainReactionTime(chain *cpa.EffectChain, results map[string]cpa.TaskResult) (int64, error) {
	return sumChain(chain, results, forwardDistance)
}

// CauseEffectChainDataAge computes spec.md §4.F's data-age figure for
// chain: the sum of each hop's backward distance (the best-case distance
// documented on backwardDistance) and the final writer's WCRT.
func CauseEffectChainDataAge(chain *cpa.EffectChain, results map[string]cpa.TaskResult) (int64, error) {
	return sumChain(chain, results, backwardDistance)
}

func sumChain(chain *cpa.EffectChain, results map[string]cpa.TaskResult, hopDistance func(wi, wj *emodel.PJd) int64) (int64, error) {
	if len(chain.Writers) == 0 {
		return 0, &cpa.InvalidInput{Reason: "cause-effect chain " + chain.Name + " has no writers"}
	}

	models := make([]*emodel.PJd, len(chain.Writers))
	periods := make([]int64, len(chain.Writers))
	for i, w := range chain.Writers {
		m, err := periodicWriter(w)
		if err != nil {
			return 0, err
		}
		models[i] = m
		periods[i] = m.P
	}
	if err := checkHarmonic(periods); err != nil {
		return 0, err
	}

	var total int64
	for i := 0; i < len(models)-1; i++ {
		total += hopDistance(models[i], models[i+1])
	}

	last := chain.Writers[len(chain.Writers)-1]
	r, ok := results[last.Name]
	if !ok {
		return 0, &cpa.InvalidInput{Reason: "cause-effect chain references unanalyzed task " + last.Name}
	}
	total += r.WCRT
	return total, nil
}
