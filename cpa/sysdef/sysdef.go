// Package sysdef loads a System description from YAML, grounded on a pack
// repository's pkg/config/profile_loader.go (yaml.v3 unmarshal into a plain
// struct tree, then translate into domain objects). This is the narrow
// "system description" contract spec.md §6 sanctions ("the analyzer accepts
// a system description and returns a per-task result record") — it is not
// the out-of-scope XML/XLS/AMALTHEA importer and it is not a CLI; it only
// builds a *cpa.System from YAML and hands it to cpa.AnalyzeSystem.
package sysdef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpa-go/cpa"
	"github.com/cpa-go/cpa/emodel"
	"github.com/cpa-go/cpa/junction"
	"github.com/cpa-go/cpa/sched"
)

// Document is the top-level YAML shape of a system description file.
type Document struct {
	Resources    []ResourceDef    `yaml:"resources"`
	Junctions    []JunctionDef    `yaml:"junctions,omitempty"`
	Links        []LinkDef        `yaml:"links"`
	Paths        []PathDef        `yaml:"paths,omitempty"`
	EffectChains []EffectChainDef `yaml:"effect_chains,omitempty"`
	Mutexes      []MutexDef       `yaml:"mutexes,omitempty"`
	Constraints  ConstraintsDef   `yaml:"constraints,omitempty"`
}

// ResourceDef describes one scheduled resource and its bound tasks.
type ResourceDef struct {
	Name      string    `yaml:"name"`
	Scheduler string    `yaml:"scheduler"` // spp | spnp | roundrobin | tdma | edf-p | rox
	Order     string    `yaml:"order,omitempty"`     // priority comparator for spp/spnp/rox
	CSW       int64     `yaml:"csw,omitempty"`       // spnp context-switch overhead
	CycleTime int64     `yaml:"cycle_time,omitempty"`
	Exact     bool      `yaml:"exact,omitempty"` // rox exact mode
	Tasks     []TaskDef `yaml:"tasks"`
}

// TaskDef describes one task bound to its enclosing resource.
type TaskDef struct {
	Name       string         `yaml:"name"`
	WCET       int64          `yaml:"wcet"`
	BCET       int64          `yaml:"bcet"`
	Priority   int64          `yaml:"priority"`
	Deadline   *int64         `yaml:"deadline,omitempty"`
	InputModel *EventModelDef `yaml:"input_model,omitempty"`
}

// EventModelDef describes a source task's input event model. Exactly one
// of the constructor fields should be populated.
type EventModelDef struct {
	PJd   *PJdDef   `yaml:"pjd,omitempty"`
	CinT  *CinTDef  `yaml:"c_in_t,omitempty"`
	Trace *[]int64  `yaml:"trace,omitempty"`
}

// PJdDef is the YAML shape of a periodic-jitter-mindistance model.
type PJdDef struct {
	P     int64 `yaml:"p"`
	J     int64 `yaml:"j"`
	D     int64 `yaml:"d"`
	Phase int64 `yaml:"phase"`
}

// CinTDef is the YAML shape of a "c events every T" model.
type CinTDef struct {
	C int   `yaml:"c"`
	T int64 `yaml:"t"`
	D int64 `yaml:"d"`
}

// JunctionDef describes a many-to-one combiner.
type JunctionDef struct {
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"` // and | or | sampled
	Trigger  string `yaml:"trigger,omitempty"`
}

// LinkDef connects one task or junction's output to another's input.
type LinkDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PathDef names an ordered chain of hops for end-to-end latency analysis.
type PathDef struct {
	Name string   `yaml:"name"`
	Hops []string `yaml:"hops"`
}

// EffectChainDef names an ordered chain of writer tasks.
type EffectChainDef struct {
	Name    string   `yaml:"name"`
	Writers []string `yaml:"writers"`
}

// MutexDef names a group of tasks contending for one logical mutex.
type MutexDef struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// ConstraintsDef collects the four constraint maps of spec.md §3, keyed by
// entity name.
type ConstraintsDef struct {
	Deadlines     map[string]int64   `yaml:"deadlines,omitempty"`
	PathLatency   map[string]int64   `yaml:"path_latency,omitempty"`
	BufferSize    map[string]int64   `yaml:"buffer_size,omitempty"`
	LoadThreshold map[string]float64 `yaml:"load_threshold,omitempty"`
}

// Load reads and parses a system description file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sysdef: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sysdef: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Build translates a parsed Document into a live *cpa.System via the
// builder API of cpa/builder.go, resolving name references into direct
// object links (Link, AddPath, AddEffectChain, AddMutex, Set*Constraint).
func Build(doc *Document) (*cpa.System, error) {
	sys := cpa.NewSystem()
	tasks := make(map[string]*cpa.Task)
	junctions := make(map[string]*cpa.Junction)
	nodes := make(map[string]cpa.Linkable)

	for _, rd := range doc.Resources {
		scheduler, err := buildScheduler(rd)
		if err != nil {
			return nil, fmt.Errorf("sysdef: resource %s: %w", rd.Name, err)
		}
		resource := sys.AddResource(rd.Name, scheduler, rd.CycleTime)
		for _, td := range rd.Tasks {
			if _, exists := tasks[td.Name]; exists {
				return nil, fmt.Errorf("sysdef: duplicate task name %q", td.Name)
			}
			task := sys.AddTask(resource, td.Name, td.WCET, td.BCET, td.Priority)
			if td.InputModel != nil {
				model, err := buildEventModel(td.InputModel)
				if err != nil {
					return nil, fmt.Errorf("sysdef: task %s input model: %w", td.Name, err)
				}
				task.InEventModel = model
			}
			if td.Deadline != nil {
				sys.SetDeadline(task, *td.Deadline)
			}
			tasks[td.Name] = task
			nodes[td.Name] = task
		}
	}

	for _, jd := range doc.Junctions {
		strategy, err := parseStrategy(jd.Strategy)
		if err != nil {
			return nil, fmt.Errorf("sysdef: junction %s: %w", jd.Name, err)
		}
		j := sys.AddJunction(jd.Name, strategy, jd.Trigger)
		junctions[jd.Name] = j
		nodes[jd.Name] = j
	}

	for _, ld := range doc.Links {
		from, ok := nodes[ld.From]
		if !ok {
			return nil, fmt.Errorf("sysdef: link references unknown node %q", ld.From)
		}
		to, ok := nodes[ld.To]
		if !ok {
			return nil, fmt.Errorf("sysdef: link references unknown node %q", ld.To)
		}
		cpa.Link(from, to)
	}

	for _, pd := range doc.Paths {
		hops := make([]cpa.Linkable, 0, len(pd.Hops))
		for _, name := range pd.Hops {
			n, ok := nodes[name]
			if !ok {
				return nil, fmt.Errorf("sysdef: path %s references unknown node %q", pd.Name, name)
			}
			hops = append(hops, n)
		}
		path := sys.AddPath(pd.Name, hops...)
		if maxLatency, ok := doc.Constraints.PathLatency[pd.Name]; ok {
			sys.SetPathLatencyConstraint(path, maxLatency)
		}
	}

	for _, ed := range doc.EffectChains {
		writers := make([]*cpa.Task, 0, len(ed.Writers))
		for _, name := range ed.Writers {
			w, ok := tasks[name]
			if !ok {
				return nil, fmt.Errorf("sysdef: effect chain %s references unknown task %q", ed.Name, name)
			}
			writers = append(writers, w)
		}
		sys.AddEffectChain(ed.Name, writers...)
	}

	for _, md := range doc.Mutexes {
		members := make([]*cpa.Task, 0, len(md.Members))
		for _, name := range md.Members {
			m, ok := tasks[name]
			if !ok {
				return nil, fmt.Errorf("sysdef: mutex %s references unknown task %q", md.Name, name)
			}
			members = append(members, m)
		}
		sys.AddMutex(md.Name, members...)
	}

	for name, deadline := range doc.Constraints.Deadlines {
		t, ok := tasks[name]
		if !ok {
			return nil, fmt.Errorf("sysdef: deadline constraint references unknown task %q", name)
		}
		sys.SetDeadline(t, deadline)
	}
	for name, maxBacklog := range doc.Constraints.BufferSize {
		t, ok := tasks[name]
		if !ok {
			return nil, fmt.Errorf("sysdef: buffer-size constraint references unknown task %q", name)
		}
		sys.SetBufferSizeConstraint(t, maxBacklog)
	}
	for _, r := range sys.Resources {
		if threshold, ok := doc.Constraints.LoadThreshold[r.Name]; ok {
			sys.SetLoadThresholdConstraint(r, threshold)
		}
	}

	return sys, nil
}

func buildScheduler(rd ResourceDef) (sched.Scheduler, error) {
	order := parseOrder(rd.Order)
	switch rd.Scheduler {
	case "spp", "":
		return sched.NewSPP(order), nil
	case "spnp":
		return sched.NewSPNP(order, rd.CSW, rd.CycleTime), nil
	case "roundrobin":
		return sched.NewRoundRobin(), nil
	case "tdma":
		return sched.NewTDMA(), nil
	case "edf-p":
		return sched.NewEDFP(sched.DefaultLimits), nil
	case "rox":
		return sched.NewRox(order, rd.Exact, sched.DefaultLimits), nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q", rd.Scheduler)
	}
}

func parseOrder(s string) sched.PriorityOrder {
	switch s {
	case "low-wins-fifo":
		return sched.LowWinsFIFO
	case "high-wins-domination":
		return sched.HighWinsDomination
	case "low-wins-domination":
		return sched.LowWinsDomination
	default:
		return sched.HighWinsFIFO
	}
}

func parseStrategy(s string) (junction.Kind, error) {
	switch s {
	case "and":
		return junction.And, nil
	case "or":
		return junction.Or, nil
	case "sampled":
		return junction.Sampled, nil
	default:
		return 0, fmt.Errorf("unknown junction strategy %q", s)
	}
}

func buildEventModel(def *EventModelDef) (emodel.Model, error) {
	switch {
	case def.PJd != nil:
		return emodel.NewPJd(def.PJd.P, def.PJd.J, def.PJd.D, def.PJd.Phase)
	case def.CinT != nil:
		return emodel.NewCinT(def.CinT.C, def.CinT.T, def.CinT.D)
	case def.Trace != nil:
		return emodel.NewTrace(*def.Trace)
	default:
		return nil, fmt.Errorf("event model has no recognized constructor")
	}
}
