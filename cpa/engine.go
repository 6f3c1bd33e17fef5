package cpa

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cpa-go/cpa/cpa/emit"
	"github.com/cpa-go/cpa/cpa/store"
	"github.com/cpa-go/cpa/emodel"
	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/propagate"
	"github.com/cpa-go/cpa/sched"
)

// probeHorizon is how many activations' worth of delta-minus/delta-plus
// are compared when deciding whether a node's output model changed enough
// to re-dirty its successors.
const probeHorizon = 8

// loadHorizon is the event count over which emodel.Load samples a task's
// input model when summing a resource's load.
const loadHorizon = 1000

// AnalyzeSystem runs the dirty-set fixed point over system: each resource's
// scheduler kernel computes task WCRTs, results propagate to successors via
// the configured Mode, junctions recombine their predecessors' models, and
// the loop repeats until no node's output model changes (or the iteration
// limit is exceeded).
//
// Returns the converged per-task results, keyed by task name.
func AnalyzeSystem(system *System, opts ...Option) (map[string]TaskResult, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, &InvalidInput{Reason: "option rejected", Cause: err}
		}
	}

	runID := uuid.NewString()
	e := &engineRun{
		system:       system,
		cfg:          cfg,
		runID:        runID,
		outputModels: make(map[string]emodel.Model),
		offsets:      make(map[string]propagate.Offset),
		results:      make(map[string]TaskResult),
	}
	if cfg.priorResults != nil {
		for name, r := range cfg.priorResults {
			e.results[name] = r
		}
	}

	if err := e.gateResourceLoads(); err != nil {
		return nil, err
	}

	if err := e.run(); err != nil {
		return nil, err
	}

	if cfg.metrics != nil {
		violations := CheckViolations(system, e.results)
		if len(violations) > 0 {
			cfg.metrics.IncrementViolations(len(violations))
		}
	}

	if cfg.store != nil {
		snapshots := make(map[string]store.Snapshot, len(e.results))
		for name, r := range e.results {
			snapshots[name] = store.Snapshot{WCRT: r.WCRT, BCRT: r.BCRT, QWCRT: r.QWCRT, BusyTimes: r.BusyTimes}
		}
		if err := cfg.store.SaveRun(context.Background(), runID, snapshots); err != nil {
			return nil, err
		}
	}

	return e.results, nil
}

// engineRun holds the mutable state of one AnalyzeSystem invocation.
type engineRun struct {
	system *System
	cfg    *engineConfig
	runID  string

	nodes        []Linkable
	outputModels map[string]emodel.Model
	offsets      map[string]propagate.Offset
	results      map[string]TaskResult

	// dependentTask[name] holds every node name (beyond graph successors)
	// whose next analysis pass must see name's fresh output: resource-
	// mates, mutex-mates, and (recursively through junctions) the
	// resource-mates of every downstream task. Built once per run by
	// buildDependentTasks, since it depends only on the static graph.
	dependentTask map[string]map[string]bool
}

func (e *engineRun) run() error {
	e.nodes = collectNodes(e.system)
	order := analysisOrder(e.nodes)
	e.dependentTask = buildDependentTasks(e.nodes, e.system)

	dirty := make(map[string]bool, len(e.nodes))
	for _, n := range e.nodes {
		dirty[n.linkableName()] = true
	}

	iterations := 0
	for len(dirty) > 0 {
		iterations++
		if iterations > e.cfg.limits.MaxIterations {
			return &NotSchedulable{Reason: "dirty-set fixed point did not converge within the iteration limit"}
		}
		if e.cfg.metrics != nil {
			e.cfg.metrics.IncrementIterations()
			e.cfg.metrics.UpdateDirtySetSize(len(dirty))
		}

		progressed := false
		for _, node := range order {
			name := node.linkableName()
			if !dirty[name] {
				continue
			}
			ready, changed, err := e.processNode(node, iterations)
			if err != nil {
				return err
			}
			if !ready {
				continue
			}
			delete(dirty, name)
			if changed {
				progressed = true
				for _, succ := range successorsOf(node) {
					dirty[succ.linkableName()] = true
				}
				for dep := range e.dependentTask[name] {
					dirty[dep] = true
				}
			}
		}
		e.cfg.emitter.Emit(emit.Event{
			RunID:     e.runID,
			Iteration: iterations,
			Msg:       "iteration_complete",
			Meta:      map[string]interface{}{"dirty_set_size": len(dirty)},
		})
		if !progressed && len(dirty) > 0 {
			// Every remaining dirty node is blocked on a predecessor that
			// will never become ready (e.g. a dangling reference) rather
			// than slowly converging; fail now instead of spinning to the
			// iteration limit.
			break
		}
	}
	if len(dirty) > 0 {
		return &InvalidInput{Reason: "graph did not fully converge: one or more nodes have an unreachable predecessor"}
	}
	return nil
}

// processNode analyzes one node for the current pass. ready is false when
// the node's predecessor(s) haven't produced an output model yet; the
// caller leaves such nodes dirty and retries them on a later pass.
func (e *engineRun) processNode(node Linkable, iteration int) (ready, changed bool, err error) {
	switch n := node.(type) {
	case *Task:
		return e.processTask(n, iteration)
	case *Fork:
		return e.processTask(&n.Task, iteration)
	case *Junction:
		return e.processJunction(n, iteration)
	default:
		return true, false, nil
	}
}

func (e *engineRun) processTask(t *Task, iteration int) (ready, changed bool, err error) {
	input := e.currentInput(t)
	if input == nil {
		return false, false, nil
	}
	t.InEventModel = input

	// Interference sums (sched.AnalyzeWCRT below) read every resource-mate's
	// InEventModel field directly through schedAdapter, so each mate's field
	// must reflect its own current propagated input rather than whatever was
	// there at construction time or a stale earlier pass. A mate whose input
	// isn't resolved yet (e.g. it sits behind a junction that hasn't
	// converged) is left out of this pass's interference entirely instead of
	// blocking t: the dirty-set requeue (dependentTask) re-marks t once that
	// mate does produce an output, so the omission is only ever transient.
	for _, other := range resourceMates(t.Resource, t) {
		if in := e.currentInput(other); in != nil {
			other.InEventModel = in
		}
	}

	interferers := interferersOf(t.Resource, t)
	result, err := sched.AnalyzeWCRT(t.Resource.Scheduler, schedAdapter{t}, interferers, e.cfg.limits)
	if err != nil {
		if e.cfg.metrics != nil {
			e.cfg.metrics.IncrementNotSchedulable(t.Name)
		}
		e.cfg.emitter.Emit(emit.Event{RunID: e.runID, Iteration: iteration, TaskName: t.Name, Msg: "not_schedulable"})
		return true, false, &NotSchedulable{TaskName: t.Name, Reason: err.Error(), Cause: err}
	}

	if e.cfg.metrics != nil {
		e.cfg.metrics.ObserveWCRTSearchSteps(len(result.BusyTimes))
	}

	propResult := propagate.Result{
		WCRT:      result.WCRT,
		BCRT:      result.BCRT,
		BusyTimes: result.BusyTimes,
		BMin:      func(n int) int64 { return t.Resource.Scheduler.BMin(schedAdapter{t}, n) },
	}
	phaseIn := e.currentPhase(t)
	outModel := propagate.Propagate(e.cfg.propagationMode, input, propResult, phaseIn, t.BCET)
	if e.cfg.propagationMode == propagate.JitterOffset {
		e.offsets[t.Name] = propagate.PropagateOffset(phaseIn, propResult, t.BCET)
	}

	previous := e.outputModels[t.Name]
	changed = previous == nil || modelsDiffer(previous, outModel)
	e.outputModels[t.Name] = outModel
	e.results[t.Name] = TaskResult{
		WCRT:       result.WCRT,
		BCRT:       result.BCRT,
		BusyTimes:  result.BusyTimes,
		MaxBacklog: result.MaxBacklog,
		QWCRT:      result.QWCRT,
		BWCRT:      result.BWCRT,
	}

	e.cfg.emitter.Emit(emit.Event{
		RunID: e.runID, Iteration: iteration, TaskName: t.Name, Msg: "task_analyzed",
		Meta: map[string]interface{}{"wcrt": result.WCRT, "bcrt": result.BCRT},
	})
	return true, changed, nil
}

func (e *engineRun) processJunction(j *Junction, iteration int) (ready, changed bool, err error) {
	backEdges := make(map[string]bool)
	for _, pred := range j.Predecessors {
		if reachableFrom(pred, j.Name) {
			backEdges[pred.linkableName()] = true
		}
	}

	inputs := make(map[string]emodel.Model, len(j.Predecessors))
	for _, pred := range j.Predecessors {
		name := pred.linkableName()
		if backEdges[name] {
			continue
		}
		m := e.outputModels[name]
		if m == nil {
			return false, false, nil
		}
		inputs[name] = m
	}

	out, pseudo, combineErr := junction.Combine(j.Strategy, inputs, j.Trigger)
	if combineErr != nil {
		var noInputs *junction.NoInputs
		if errors.As(combineErr, &noInputs) {
			return true, false, &NotSchedulable{Reason: "junction " + j.Name + ": " + combineErr.Error(), Cause: combineErr}
		}
		return true, false, &InvalidInput{Reason: combineErr.Error(), Cause: combineErr}
	}

	previous := j.Output
	changed = previous == nil || modelsDiffer(previous, out)
	j.Inputs = inputs
	j.Output = out
	j.Pseudo = pseudo
	e.outputModels[j.Name] = out

	e.cfg.emitter.Emit(emit.Event{RunID: e.runID, Iteration: iteration, TaskName: j.Name, Msg: "junction_combined"})
	return true, changed, nil
}

// currentInput resolves the event model a task should analyze against: its
// own InEventModel if it has no predecessor (a source task driven by an
// external arrival pattern), or the predecessor's current output model.
func (e *engineRun) currentInput(t *Task) emodel.Model {
	if t.Predecessor == nil {
		return t.InEventModel
	}
	return e.outputModels[t.Predecessor.linkableName()]
}

// currentPhase resolves the phase/period/jitter state JitterOffset-mode
// propagation threads alongside each task's output model: zero for a source
// task (an external arrival pattern carries no upstream offset), or the
// predecessor's last-propagated offset. Irrelevant, and left at its zero
// value, under every other Mode.
func (e *engineRun) currentPhase(t *Task) propagate.Offset {
	if t.Predecessor == nil {
		return propagate.Offset{}
	}
	return e.offsets[t.Predecessor.linkableName()]
}

// gateResourceLoads fails fast when the root tasks' own arrival rates alone
// already exceed a resource's utilization bound, before the (much more
// expensive) fixed point runs.
func (e *engineRun) gateResourceLoads() error {
	for _, r := range e.system.Resources {
		threshold := 1.0
		if t, ok := e.system.Constraints.LoadThreshold[r]; ok {
			threshold = t
		}
		var load float64
		for _, t := range r.Tasks {
			if t.InEventModel == nil {
				continue
			}
			load += emodel.Load(t.InEventModel, loadHorizon) * float64(t.WCET)
		}
		for _, f := range r.Forks {
			if f.InEventModel == nil {
				continue
			}
			load += emodel.Load(f.InEventModel, loadHorizon) * float64(f.WCET)
		}
		if load > threshold {
			return &NotSchedulable{Reason: "resource " + r.Name + " is overloaded before analysis even begins"}
		}
	}
	return nil
}

// CheckViolations evaluates every constraint in system.Constraints against
// the converged results, returning one ConstraintViolation per failure.
func CheckViolations(system *System, results map[string]TaskResult) []ConstraintViolation {
	var violations []ConstraintViolation

	for t, deadline := range system.Constraints.Deadlines {
		r, ok := results[t.Name]
		if !ok {
			continue
		}
		if r.WCRT > deadline {
			violations = append(violations, ConstraintViolation{
				Kind: "deadline", Entity: t.Name,
				Observed: float64(r.WCRT), Required: float64(deadline),
			})
		}
	}

	for t, maxBacklog := range system.Constraints.BufferSize {
		r, ok := results[t.Name]
		if !ok {
			continue
		}
		if r.MaxBacklog > maxBacklog {
			violations = append(violations, ConstraintViolation{
				Kind: "buffer_size", Entity: t.Name,
				Observed: float64(r.MaxBacklog), Required: float64(maxBacklog),
			})
		}
	}

	for r, threshold := range system.Constraints.LoadThreshold {
		var load float64
		for _, t := range r.Tasks {
			if t.InEventModel == nil {
				continue
			}
			load += emodel.Load(t.InEventModel, loadHorizon) * float64(t.WCET)
		}
		for _, f := range r.Forks {
			if f.InEventModel == nil {
				continue
			}
			load += emodel.Load(f.InEventModel, loadHorizon) * float64(f.WCET)
		}
		if load > threshold {
			violations = append(violations, ConstraintViolation{
				Kind: "load_threshold", Entity: r.Name,
				Observed: load, Required: threshold,
			})
		}
	}

	return violations
}

func collectNodes(system *System) []Linkable {
	var nodes []Linkable
	for _, r := range system.Resources {
		for _, t := range r.Tasks {
			nodes = append(nodes, t)
		}
		for _, f := range r.Forks {
			nodes = append(nodes, f)
		}
	}
	for _, j := range system.Junctions {
		nodes = append(nodes, j)
	}
	return nodes
}

func successorsOf(n Linkable) []Linkable {
	switch v := n.(type) {
	case *Task:
		return v.Successors
	case *Fork:
		return v.Successors
	case *Junction:
		return v.Successors
	default:
		return nil
	}
}

// interferersOf lists every task sched.AnalyzeWCRT should consider as
// potential interference for self: every other task (and fork) on the same
// resource whose input model is currently resolved. A mate not yet resolved
// this pass is omitted rather than passed through with a nil model, which
// would panic inside a Scheduler's interference sum; see processTask's
// comment on resourceMates for how that omission gets corrected later.
func interferersOf(r *Resource, self *Task) []sched.Task {
	interferers := make([]sched.Task, 0, len(r.Tasks)+len(r.Forks))
	for _, t := range r.Tasks {
		if t != self && t.InEventModel == nil {
			continue
		}
		interferers = append(interferers, schedAdapter{t})
	}
	for _, f := range r.Forks {
		if &f.Task != self && f.InEventModel == nil {
			continue
		}
		interferers = append(interferers, schedAdapter{&f.Task})
	}
	return interferers
}

// resourceMates returns every other Task (including the embedded Task of
// every Fork) bound to r, excluding self.
func resourceMates(r *Resource, self *Task) []*Task {
	mates := make([]*Task, 0, len(r.Tasks)+len(r.Forks))
	for _, t := range r.Tasks {
		if t != self {
			mates = append(mates, t)
		}
	}
	for _, f := range r.Forks {
		if &f.Task != self {
			mates = append(mates, &f.Task)
		}
	}
	return mates
}

// modelsDiffer compares two event models over a small horizon; used as the
// dirty-set's change detector, since exact equality of derived closures
// isn't meaningful (they're functions, not values).
func modelsDiffer(a, b emodel.Model) bool {
	for n := 1; n <= probeHorizon; n++ {
		if a.DeltaMinus(n) != b.DeltaMinus(n) || a.DeltaPlus(n) != b.DeltaPlus(n) {
			return true
		}
	}
	return false
}

// buildDependentTasks precomputes, for every node, the set of node names
// (beyond its direct graph successors) that must be re-dirtied when its
// output changes, per spec.md §4.E: resource-interferers, mutex-interferers,
// and — recursively through any junctions on the path — the direct task
// successors' own resource-interferers, since a resource's interference sum
// depends on every co-resident task's current input model, not just on
// graph reachability.
func buildDependentTasks(nodes []Linkable, system *System) map[string]map[string]bool {
	resourceMateNames := make(map[string][]string)
	for _, r := range system.Resources {
		var names []string
		for _, t := range r.Tasks {
			names = append(names, t.Name)
		}
		for _, f := range r.Forks {
			names = append(names, f.Name)
		}
		for _, name := range names {
			for _, other := range names {
				if other != name {
					resourceMateNames[name] = append(resourceMateNames[name], other)
				}
			}
		}
	}

	mutexMateNames := make(map[string][]string)
	for _, m := range system.Mutexes {
		var names []string
		for _, t := range m.Members {
			names = append(names, t.Name)
		}
		for _, name := range names {
			for _, other := range names {
				if other != name {
					mutexMateNames[name] = append(mutexMateNames[name], other)
				}
			}
		}
	}

	dep := make(map[string]map[string]bool, len(nodes))
	for _, n := range nodes {
		name := n.linkableName()
		set := make(map[string]bool)
		for _, other := range resourceMateNames[name] {
			set[other] = true
		}
		for _, other := range mutexMateNames[name] {
			set[other] = true
		}
		for _, task := range directTaskSuccessors(n) {
			set[task.Name] = true
			for _, other := range resourceMateNames[task.Name] {
				set[other] = true
			}
		}
		dep[name] = set
	}
	return dep
}

// directTaskSuccessors walks n's successors, following through any number of
// junctions (a junction never itself binds to a resource, so it cannot be
// the end of the chain interference cares about) but stopping at the first
// Task or Fork reached along each path.
func directTaskSuccessors(n Linkable) []*Task {
	var tasks []*Task
	seen := map[string]bool{}
	var visit func(Linkable)
	visit = func(cur Linkable) {
		for _, succ := range successorsOf(cur) {
			name := succ.linkableName()
			if seen[name] {
				continue
			}
			seen[name] = true
			switch s := succ.(type) {
			case *Task:
				tasks = append(tasks, s)
			case *Fork:
				tasks = append(tasks, &s.Task)
			case *Junction:
				visit(s)
			}
		}
	}
	visit(n)
	return tasks
}

// analysisOrder sorts nodes by descending transitive-closure size (tasks
// whose results influence the most downstream nodes are analyzed first
// within each pass), then by name for determinism among ties.
func analysisOrder(nodes []Linkable) []Linkable {
	closureSize := make(map[string]int, len(nodes))
	for _, n := range nodes {
		closureSize[n.linkableName()] = reachableCount(n)
	}
	ordered := make([]Linkable, len(nodes))
	copy(ordered, nodes)
	sortLinkables(ordered, closureSize)
	return ordered
}

// reachableFrom reports whether target is reachable from start by following
// successor edges — used by processJunction to detect a functional cycle
// (spec.md §4.D): a predecessor that is itself downstream of the junction is
// a back-edge and must be excluded from that junction's propagation inputs,
// rather than left to stall the fixed point forever.
func reachableFrom(start Linkable, target string) bool {
	seen := map[string]bool{}
	queue := []Linkable{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range successorsOf(cur) {
			name := succ.linkableName()
			if name == target {
				return true
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			queue = append(queue, succ)
		}
	}
	return false
}

func reachableCount(n Linkable) int {
	seen := map[string]bool{}
	queue := []Linkable{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range successorsOf(cur) {
			name := succ.linkableName()
			if seen[name] {
				continue
			}
			seen[name] = true
			queue = append(queue, succ)
		}
	}
	return len(seen)
}

func sortLinkables(nodes []Linkable, closureSize map[string]int) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0; j-- {
			a, b := nodes[j-1], nodes[j]
			if lessLinkable(b, a, closureSize) {
				nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			} else {
				break
			}
		}
	}
}

func lessLinkable(a, b Linkable, closureSize map[string]int) bool {
	ca, cb := closureSize[a.linkableName()], closureSize[b.linkableName()]
	if ca != cb {
		return ca > cb
	}
	return a.linkableName() < b.linkableName()
}
