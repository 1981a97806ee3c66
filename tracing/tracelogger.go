package tracing

import (
	"fmt"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/sirupsen/logrus"
)

// A TraceLogger narrates task spans through a logrus logger as they happen.
// It prints a running commentary of processes starting and ending, waiting
// for resources, and being granted slots. Nothing is persisted; the logger
// is meant for watching a model while developing it.
type TraceLogger struct {
	timeTeller sim.TimeTeller
	logger     *logrus.Logger

	startingTasks map[string]Task
}

// NewTraceLogger creates a TraceLogger narrating through the given logger.
func NewTraceLogger(
	timeTeller sim.TimeTeller,
	logger *logrus.Logger,
) *TraceLogger {
	return &TraceLogger{
		timeTeller:    timeTeller,
		logger:        logger,
		startingTasks: make(map[string]Task),
	}
}

// StartTask narrates the start of a process or a wait.
func (t *TraceLogger) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()
	task.StartTime = now
	t.startingTasks[task.ID] = task

	switch task.Kind {
	case TaskKindProcess:
		t.entry(task, now).Info("process started")
	case TaskKindWait:
		t.entry(task, now).Info("requesting resource")
	}
}

// StepTask narrates a milestone within a span at debug level.
func (t *TraceLogger) StepTask(task Task) {
	original, ok := t.startingTasks[task.ID]
	if !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, step := range task.Steps {
		t.entry(original, now).WithField("step", step.What).Debug("step")
	}
}

// EndTask narrates the end of a span. The end of a wait is the grant, so it
// reports how long the process waited.
func (t *TraceLogger) EndTask(task Task) {
	original, ok := t.startingTasks[task.ID]
	if !ok {
		return
	}
	delete(t.startingTasks, task.ID)

	now := t.timeTeller.CurrentTime()
	entry := t.entry(original, now)

	switch original.Kind {
	case TaskKindProcess:
		entry.Info("process ended")
	case TaskKindWait:
		entry.WithField("waited", duration(now-original.StartTime)).
			Info("resource granted")
	case TaskKindHold:
		entry.WithField("held", duration(now-original.StartTime)).
			Info("resource released")
	}
}

func (t *TraceLogger) entry(task Task, now sim.SimTime) *logrus.Entry {
	fields := logrus.Fields{
		"t":       duration(now),
		"process": task.What,
	}

	if task.Kind != TaskKindProcess {
		fields["resource"] = task.Where
	}

	return t.logger.WithFields(fields)
}

func duration(t sim.SimTime) string {
	return fmt.Sprintf("%.3f", float64(t))
}
