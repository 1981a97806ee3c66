package tracing

import (
	"sync"
)

// A StepCountTracer counts steps by name across the spans selected by the
// filter. It reports how many times a step happened and how many distinct
// spans reached it, so filtered on process spans it can tell how many grants
// a resource made and how many processes received one at all.
type StepCountTracer struct {
	filter TaskFilter

	lock         sync.Mutex
	openTasks    map[string]Task
	stepNames    []string
	stepCount    map[string]uint64
	taskWithStep map[string]uint64
}

// NewStepCountTracer creates a StepCountTracer. A nil filter selects every
// span.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:       filter,
		openTasks:    make(map[string]Task),
		stepCount:    make(map[string]uint64),
		taskWithStep: make(map[string]uint64),
	}
}

// StepNames returns the step names seen so far, in order of first sighting.
func (t *StepCountTracer) StepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepNames
}

// StepCount returns how many times the named step happened.
func (t *StepCountTracer) StepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[stepName]
}

// TaskCount returns how many spans reached the named step at least once.
func (t *StepCountTracer) TaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskWithStep[stepName]
}

// StartTask opens a span so that its steps are counted.
func (t *StepCountTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.openTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask counts the steps of an open span. Steps of spans the filter
// rejected are ignored.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.openTasks[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		t.countStep(step)

		if !taskContainsStep(originalTask, step) {
			t.taskWithStep[step.What]++
		}

		originalTask.Steps = append(originalTask.Steps, step)
	}

	t.openTasks[task.ID] = originalTask
}

func (t *StepCountTracer) countStep(step TaskStep) {
	_, ok := t.stepCount[step.What]
	if !ok {
		t.stepNames = append(t.stepNames, step.What)
	}
	t.stepCount[step.What]++
}

func taskContainsStep(task Task, step TaskStep) bool {
	for _, s := range task.Steps {
		if s.What == step.What {
			return true
		}
	}

	return false
}

// EndTask closes the span.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.openTasks, task.ID)
	t.lock.Unlock()
}
