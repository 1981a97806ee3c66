// Package tracing records what happens during a simulation as task spans. A
// span covers one process lifetime, one wait for a resource slot, or one
// stretch of holding a slot. Tracers persist the spans in CSV files or SQLite
// databases, aggregate them, or narrate them in the log.
package tracing

import "github.com/pythonhealthdatascience/intro-open-sim/sim"

// Task kinds produced by the standard trace hook.
const (
	// TaskKindProcess spans a process lifetime, from its first turn to its
	// termination.
	TaskKindProcess = "process"

	// TaskKindWait spans the time a request waits in a resource queue. A
	// request granted at once produces a zero-length wait.
	TaskKindWait = "wait"

	// TaskKindHold spans the time a request holds a resource slot.
	TaskKindHold = "hold"
)

// A TaskStep represents a milestone in the middle of a task.
type TaskStep struct {
	Time sim.SimTime `json:"time"`
	What string      `json:"what"`
}

// A Task is a span of simulated time with a start and an end. What describes
// the subject of the span and Where names the place it happens. For wait and
// hold spans, What is the process name and Where is the resource name, and
// ParentID links back to the process span.
type Task struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parent_id"`
	Kind      string      `json:"kind"`
	What      string      `json:"what"`
	Where     string      `json:"where"`
	StartTime sim.SimTime `json:"start_time"`
	EndTime   sim.SimTime `json:"end_time"`
	Steps     []TaskStep  `json:"steps"`
	Detail    any         `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// FilterByKind returns a TaskFilter that selects tasks of one kind.
func FilterByKind(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}

// FilterByWhere returns a TaskFilter that selects tasks taking place at one
// location, such as all the waits at one resource.
func FilterByWhere(kind, where string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind && t.Where == where
	}
}
