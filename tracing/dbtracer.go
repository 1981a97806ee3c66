package tracing

import (
	"sync"

	"github.com/pythonhealthdatascience/intro-open-sim/datarecording"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/tebeka/atexit"
)

// taskTableEntry is one finished span as stored in the trace table.
type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Where     string
	StartTime float64
	EndTime   float64
}

// A DBTracer stores finished task spans with a DataRecorder, one row per
// span in the trace table. A time range can restrict recording to part of
// the run, such as the period after a warm-up.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	startTime, endTime sim.SimTime

	tracingTasks map[string]Task
}

// NewDBTracer creates a DBTracer that writes into the trace table of the
// given recorder. The remaining buffered rows are flushed at exit.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable("trace", taskTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange restricts recording to spans that overlap [startTime,
// endTime]. Spans starting after endTime are not tracked, and spans ending
// before startTime are dropped.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.SimTime) {
	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startingTaskMustBeValid(task)

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

func (t *DBTracer) startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}

// StepTask does nothing.
func (t *DBTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask marks the end of a task and writes the completed span.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.EndTime = t.timeTeller.CurrentTime()

	if t.startTime > 0 && task.EndTime < t.startTime {
		delete(t.tracingTasks, task.ID)
		return
	}

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = task.EndTime
	t.writeTask(originalTask)
	delete(t.tracingTasks, task.ID)
}

// Terminate closes the spans that are still open at the current time and
// flushes the backend. Call it once the simulation has shut down.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.timeTeller.CurrentTime()
	for _, task := range t.tracingTasks {
		task.EndTime = now
		t.writeTask(task)
	}

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

func (t *DBTracer) writeTask(task Task) {
	t.backend.InsertData("trace", taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Where:     task.Where,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
	})
}
