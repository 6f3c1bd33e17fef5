package cpa

import (
	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/sched"
)

// NewSystem creates an empty System ready for resources, junctions, paths,
// effect chains, and constraints to be added via the System's builder
// methods below.
func NewSystem() *System {
	return &System{
		Constraints: &ConstraintSet{
			Deadlines:     make(map[*Task]int64),
			PathLatency:   make(map[*Path]PathConstraint),
			BufferSize:    make(map[*Task]int64),
			LoadThreshold: make(map[*Resource]float64),
		},
	}
}

// AddResource registers a resource (and its scheduler kernel) with the
// system and returns it for further configuration.
func (s *System) AddResource(name string, scheduler sched.Scheduler, cycleTime int64) *Resource {
	r := &Resource{Name: name, Scheduler: scheduler, CycleTime: cycleTime}
	s.Resources = append(s.Resources, r)
	return r
}

// AddTask binds a new task to resource r and returns it.
func (s *System) AddTask(r *Resource, name string, wcet, bcet, schedParam int64) *Task {
	t := &Task{
		Name:                name,
		WCET:                wcet,
		BCET:                bcet,
		SchedulingParameter: schedParam,
		Resource:            r,
	}
	r.Tasks = append(r.Tasks, t)
	return t
}

// AddFork binds a new fork to resource r and returns it. A Fork runs on its
// resource exactly like a Task, but its single output model is replicated,
// unmodified, to every successor Link adds to it, per strategy.
func (s *System) AddFork(r *Resource, name string, wcet, bcet, schedParam int64, strategy ForkStrategy) *Fork {
	f := &Fork{
		Task: Task{
			Name:                name,
			WCET:                wcet,
			BCET:                bcet,
			SchedulingParameter: schedParam,
			Resource:            r,
		},
		Strategy: strategy,
	}
	r.Forks = append(r.Forks, f)
	return f
}

// AddJunction registers a junction that will combine the event models of
// its predecessors (linked in separately via Link) using strategy. trigger
// names the time-triggered predecessor when strategy is junction.Sampled;
// it is ignored otherwise.
func (s *System) AddJunction(name string, strategy junction.Kind, trigger string) *Junction {
	j := &Junction{Name: name, Strategy: strategy, Trigger: trigger}
	s.Junctions = append(s.Junctions, j)
	return j
}

// Link connects from's output to to's input: from gains to as a successor,
// and to gains from as a predecessor (Task) or an additional predecessor
// (Junction, which may have several).
func Link(from, to Linkable) {
	switch f := from.(type) {
	case *Task:
		f.Successors = append(f.Successors, to)
	case *Fork:
		f.Successors = append(f.Successors, to)
	case *Junction:
		f.Successors = append(f.Successors, to)
	}
	switch t := to.(type) {
	case *Task:
		t.Predecessor = from
	case *Fork:
		t.Predecessor = from
	case *Junction:
		t.Predecessors = append(t.Predecessors, from)
	}
}

// AddPath registers a latency path over the given ordered hops.
func (s *System) AddPath(name string, hops ...Linkable) *Path {
	p := &Path{Name: name, Hops: hops}
	s.Paths = append(s.Paths, p)
	return p
}

// AddEffectChain registers a cause-effect chain over the given writer
// tasks, assumed to share a harmonic period by pathlat.
func (s *System) AddEffectChain(name string, writers ...*Task) *EffectChain {
	ec := &EffectChain{Name: name, Writers: writers}
	s.EffectChains = append(s.EffectChains, ec)
	return ec
}

// AddMutex registers a mutual-exclusion group over the given member tasks.
func (s *System) AddMutex(name string, members ...*Task) *Mutex {
	m := &Mutex{Name: name, Members: members}
	s.Mutexes = append(s.Mutexes, m)
	return m
}

// SetDeadline records a per-task deadline constraint, both on the task
// itself (consulted by EDF-P schedulers) and in the system's ConstraintSet
// (consulted by CheckViolations).
func (s *System) SetDeadline(t *Task, deadline int64) {
	d := deadline
	t.Deadline = &d
	s.Constraints.Deadlines[t] = deadline
}

// SetPathLatencyConstraint records a required maximum end-to-end latency
// for p.
func (s *System) SetPathLatencyConstraint(p *Path, maxLatency int64) {
	s.Constraints.PathLatency[p] = PathConstraint{MaxLatency: maxLatency}
}

// SetBufferSizeConstraint records a required maximum queueing backlog for
// t, checked against TaskResult.MaxBacklog.
func (s *System) SetBufferSizeConstraint(t *Task, maxBacklog int64) {
	s.Constraints.BufferSize[t] = maxBacklog
}

// SetLoadThresholdConstraint records a required maximum utilization for r.
func (s *System) SetLoadThresholdConstraint(r *Resource, threshold float64) {
	s.Constraints.LoadThreshold[r] = threshold
}
