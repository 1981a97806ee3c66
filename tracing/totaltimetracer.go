package tracing

import (
	"sync"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// TotalTimeTracer collects the summed duration of the spans selected by a
// filter. When two spans overlap, both durations count in full. Filtered on
// hold spans at one resource, it reports the total busy time across all the
// slots, the numerator of the resource utilization.
type TotalTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock          sync.Mutex
	totalTime     sim.SimTime
	startingTasks map[string]Task
}

// NewTotalTimeTracer creates a TotalTimeTracer. A nil filter selects every
// span.
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		startingTasks: make(map[string]Task),
	}
}

// TotalTime returns the summed duration of the finished spans.
func (t *TotalTimeTracer) TotalTime() sim.SimTime {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// StartTask records the task start time.
func (t *TotalTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.startingTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing.
func (t *TotalTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task.
func (t *TotalTimeTracer) EndTask(task Task) {
	task.EndTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	originalTask, ok := t.startingTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	t.totalTime += task.EndTime - originalTask.StartTime
	delete(t.startingTasks, task.ID)
	t.lock.Unlock()
}
