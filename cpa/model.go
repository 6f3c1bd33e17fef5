// Package cpa implements the global orchestrator and data model of a
// compositional performance analysis engine: a directed graph of tasks,
// junctions, and resources, analyzed to a dirty-set fixed point by
// repeatedly running each resource's scheduler kernel (package sched) and
// propagating output event models (package propagate) to successors.
package cpa

import (
	"github.com/cpa-go/cpa/emodel"
	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/sched"
)

// Linkable is implemented by every node a task or junction can point to as
// a successor or predecessor. It intentionally carries no behavior beyond
// identity: *Task and *Junction both implement it, and the orchestrator
// type-switches on it when walking the graph.
type Linkable interface {
	linkableName() string
}

// Task is one schedulable unit of computation bound to a Resource.
type Task struct {
	Name                string
	WCET                int64
	BCET                int64
	SchedulingParameter int64
	Deadline            *int64
	InEventModel        emodel.Model

	Successors  []Linkable
	Predecessor Linkable
	Resource    *Resource
	Mutex       *Mutex
}

func (t *Task) linkableName() string { return t.Name }

// schedAdapter exposes a *Task through the sched.Task interface without
// polluting Task's field-based public surface with method/field name
// collisions (WCET the field vs WCET() the method).
type schedAdapter struct {
	task *Task
}

func (a schedAdapter) WCET() int64               { return a.task.WCET }
func (a schedAdapter) BCET() int64               { return a.task.BCET }
func (a schedAdapter) SchedulingParameter() int64 { return a.task.SchedulingParameter }
func (a schedAdapter) InEventModel() emodel.Model { return a.task.InEventModel }
func (a schedAdapter) TaskName() string           { return a.task.Name }
func (a schedAdapter) Deadline() (int64, bool) {
	if a.task.Deadline == nil {
		return 0, false
	}
	return *a.task.Deadline, true
}

var _ sched.Task = schedAdapter{}

// ForkStrategy names how a Fork's single output model fans out to multiple
// successors — currently always a verbatim copy to every successor, kept as
// a named type so a future strategy (e.g. sampling before fan-out) has a
// home without an API break.
type ForkStrategy int

const (
	ForkReplicate ForkStrategy = iota
)

// Fork is a Task whose output event model is replicated, unmodified, to
// every successor, rather than consumed by exactly one.
type Fork struct {
	Task
	Strategy ForkStrategy
}

// Junction combines the event models of multiple predecessors into one
// output model, per one of the strategies in package junction.
type Junction struct {
	Name         string
	Strategy     junction.Kind
	Trigger      string // predecessor name; only consulted for junction.Sampled
	Predecessors []Linkable
	Successors   []Linkable

	Inputs map[string]emodel.Model
	Output emodel.Model
	Pseudo map[string]junction.PseudoResult
}

func (j *Junction) linkableName() string { return j.Name }

// Resource runs one Scheduler kernel over the Tasks (and Forks, which are
// Tasks that additionally fan out their output) bound to it.
type Resource struct {
	Name      string
	Scheduler sched.Scheduler
	CycleTime int64
	Tasks     []*Task
	Forks     []*Fork
}

// Path is an ordered chain of hops (tasks or junctions) whose end-to-end
// latency pathlat computes.
type Path struct {
	Name string
	Hops []Linkable
}

// EffectChain is a cause-effect chain: a set of tasks ("writers") whose
// data-age / reaction-time latency pathlat computes under the assumption
// that they share a common, harmonic period.
type EffectChain struct {
	Name    string
	Writers []*Task
}

// Mutex groups tasks that share a mutual-exclusion resource, possibly across
// different Resources. No Scheduler reads it: membership only makes each
// member a dirty-set dependent of the others (buildDependentTasks), so a
// change in one member's output re-queues the rest.
type Mutex struct {
	Name    string
	Members []*Task
}

// PathConstraint is a required bound on a Path's end-to-end latency.
type PathConstraint struct {
	MaxLatency int64
}

// ConstraintSet collects every constraint CheckViolations evaluates after
// the fixed point converges.
type ConstraintSet struct {
	Deadlines     map[*Task]int64
	PathLatency   map[*Path]PathConstraint
	BufferSize    map[*Task]int64
	LoadThreshold map[*Resource]float64
}

// TaskResult is the converged analysis outcome for one task.
type TaskResult struct {
	WCRT       int64
	BCRT       int64
	BusyTimes  []int64
	MaxBacklog int64 // max queued activations over the busy-window sequence
	QWCRT      int
	BWCRT      map[string]int64
}

// System is a complete system description: resources (each owning tasks),
// junctions, paths, effect chains, mutexes, and the constraints to check
// after analysis.
type System struct {
	Resources    []*Resource
	Junctions    []*Junction
	Paths        []*Path
	EffectChains []*EffectChain
	Mutexes      []*Mutex
	Constraints  *ConstraintSet
}
