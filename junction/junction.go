// Package junction implements the many-to-one event-model combinators of
// spec.md §4.D: AND-join, OR-join, and sampled-input. Each strategy
// combines a set of predecessor event models into one output model (and,
// for AND and sampled-input, a set of pseudo-results used by path analysis
// to account for waiting/sampling delay at the junction).
package junction

import "github.com/cpa-go/cpa/emodel"

// PseudoResult mirrors the handful of cpa.TaskResult fields path analysis
// needs from a junction input that itself never runs on a scheduled
// resource (spec.md §4.D: "a synthetic bcrt=0, wcrt=waiting_delay
// pseudo-result for path analysis").
type PseudoResult struct {
	BCRT int64
	WCRT int64
}

// Kind names one of the three junction strategies of spec.md §4.D.
type Kind int

const (
	And Kind = iota
	Or
	Sampled
)

// Combine applies the named strategy to a set of predecessor input models,
// returning the junction's output model and, for And and Sampled, a
// per-input pseudo-result. trigger identifies which input is the
// time-triggered stream for Sampled; it is ignored by And and Or.
//
// inputs must be non-empty; cycle cutting (spec.md §4.D: excluding a
// junction's own predecessor set from its propagation inputs when a
// functional cycle is detected) is the caller's responsibility — by the
// time Combine is invoked, inputs has already had any back-edges removed.
func Combine(kind Kind, inputs map[string]emodel.Model, trigger string) (emodel.Model, map[string]PseudoResult, error) {
	if len(inputs) == 0 {
		return nil, nil, &NoInputs{}
	}
	switch kind {
	case And:
		return combineAnd(inputs)
	case Or:
		return combineOr(inputs), nil, nil
	case Sampled:
		return combineSampled(inputs, trigger)
	default:
		return combineAnd(inputs)
	}
}

// NoInputs is raised when cycle cutting has removed every predecessor of an
// AND-junction, per spec.md §4.D: "if none remain the system fails as
// NotSchedulable."
type NoInputs struct{}

func (e *NoInputs) Error() string {
	return "junction has no propagation inputs after cycle cutting"
}

// combineAnd implements spec.md §4.D's AND-join: delta-minus-out(n) =
// min_i delta-minus_i(n), delta-plus-out(n) = max_i delta-plus_i(n), plus a
// per-input waiting delay equal to max over the OTHER inputs of
// delta-plus_i(2).
func combineAnd(inputs map[string]emodel.Model) (emodel.Model, map[string]PseudoResult, error) {
	deltaMinus := func(n int) int64 {
		var best int64
		init := false
		for _, m := range inputs {
			v := m.DeltaMinus(n)
			if !init || v < best {
				best = v
				init = true
			}
		}
		return best
	}
	deltaPlus := func(n int) int64 {
		var best int64
		for _, m := range inputs {
			v := m.DeltaPlus(n)
			if v > best {
				best = v
			}
		}
		return best
	}
	out := emodel.FromDelta(deltaMinus, deltaPlus)

	pseudo := make(map[string]PseudoResult, len(inputs))
	for name := range inputs {
		var wait int64
		for other, m := range inputs {
			if other == name {
				continue
			}
			if v := m.DeltaPlus(2); v > wait {
				wait = v
			}
		}
		pseudo[name] = PseudoResult{BCRT: 0, WCRT: wait}
	}
	return out, pseudo, nil
}

// combineOr implements spec.md §4.D's OR-join: eta-plus-out(w) = sum_i
// eta-plus_i(w), eta-minus-out(w) = sum_i eta-minus_i(w); delta derived by
// the same inverse-duality every Model variant supports.
func combineOr(inputs map[string]emodel.Model) emodel.Model {
	etaPlus := func(dt int64) int64 {
		var sum int64
		for _, m := range inputs {
			sum += m.EtaPlus(dt)
		}
		return sum
	}
	etaMinus := func(dt int64) int64 {
		var sum int64
		for _, m := range inputs {
			sum += m.EtaMinus(dt)
		}
		return sum
	}
	return emodel.FromEta(etaPlus, etaMinus)
}

// combineSampled implements spec.md §4.D's sampled-input strategy: the
// junction's output equals the trigger model; every non-trigger input gets
// a pseudo-result with wcrt = delta-plus_trigger(2), the worst-case
// sampling delay.
func combineSampled(inputs map[string]emodel.Model, trigger string) (emodel.Model, map[string]PseudoResult, error) {
	triggerModel, ok := inputs[trigger]
	if !ok {
		return nil, nil, &NoTrigger{Trigger: trigger}
	}
	samplingDelay := triggerModel.DeltaPlus(2)
	pseudo := make(map[string]PseudoResult, len(inputs))
	for name := range inputs {
		if name == trigger {
			continue
		}
		pseudo[name] = PseudoResult{BCRT: 0, WCRT: samplingDelay}
	}
	return triggerModel, pseudo, nil
}

// NoTrigger is raised when a Sampled junction's configured trigger input is
// absent from the supplied input set (a construction error: spec.md §4.D
// requires exactly one trigger).
type NoTrigger struct {
	Trigger string
}

func (e *NoTrigger) Error() string {
	return "sampled junction trigger input not found: " + e.Trigger
}
