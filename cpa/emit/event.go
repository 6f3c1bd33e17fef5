// Package emit provides observability for the system-wide fixed-point
// analysis loop: events describing dirty-set iterations, per-task analysis
// attempts, and schedulability violations, plus pluggable sinks for them.
package emit

// Event represents one observability event emitted during AnalyzeSystem.
//
// Events give visibility into the fixed-point loop's progress:
//   - iteration start/end, with the dirty-set size
//   - per-task analysis attempts, successes, and NotSchedulable failures
//   - constraint violations discovered after convergence
type Event struct {
	// RunID identifies the AnalyzeSystem invocation that emitted this event.
	RunID string

	// Iteration is the dirty-set loop iteration number (0 for events that
	// precede the main loop, such as initial propagation).
	Iteration int

	// TaskName identifies the task the event concerns. Empty for
	// iteration-level or system-level events.
	TaskName string

	// Msg is a short, stable event name, e.g. "task_analyzed",
	// "not_schedulable", "iteration_complete".
	Msg string

	// Meta carries event-specific structured data, e.g. "wcrt", "dirty_set_size".
	Meta map[string]interface{}
}
