package tracing

import (
	"sync"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// AverageTimeTracer collects the average duration of the spans selected by a
// filter. Filtered on wait spans at one resource, it reports the mean time
// spent queueing there, counting zero-length waits of requests granted at
// once.
type AverageTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock          sync.Mutex
	totalTime     sim.SimTime
	taskCount     uint64
	startingTasks map[string]Task
}

// NewAverageTimeTracer creates an AverageTimeTracer. A nil filter selects
// every span.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		startingTasks: make(map[string]Task),
	}
}

// AverageTime returns the mean duration of the finished spans. It is 0 when
// no span has finished yet.
func (t *AverageTimeTracer) AverageTime() sim.SimTime {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.SimTime(t.taskCount)
}

// TotalCount returns the number of finished spans.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the task start time.
func (t *AverageTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.startingTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing.
func (t *AverageTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task.
func (t *AverageTimeTracer) EndTask(task Task) {
	task.EndTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	originalTask, ok := t.startingTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	t.totalTime += task.EndTime - originalTask.StartTime
	t.taskCount++
	delete(t.startingTasks, task.ID)
	t.lock.Unlock()
}
