package tracing

import (
	"fmt"
	"os"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A CSVTracer writes finished task spans into a CSV file. Spans are buffered
// and flushed in batches, with a final flush at exit.
type CSVTracer struct {
	timeTeller sim.TimeTeller
	path       string
	file       *os.File

	startingTasks map[string]Task
	tasks         []Task
	bufferSize    int
}

// NewCSVTracer creates a CSVTracer writing to path plus a ".csv" suffix. An
// empty path picks a unique file name in the working directory.
func NewCSVTracer(timeTeller sim.TimeTeller, path string) *CSVTracer {
	t := &CSVTracer{
		timeTeller:    timeTeller,
		path:          path,
		startingTasks: make(map[string]Task),
		bufferSize:    1000,
	}
	t.createFile()

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})

	return t
}

func (t *CSVTracer) createFile() {
	if t.path == "" {
		t.path = "introsim_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, ParentID, Kind, What, Where, Start, End\n")
}

// StartTask records the task start time.
func (t *CSVTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()
	t.startingTasks[task.ID] = task
}

// StepTask does nothing.
func (t *CSVTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask completes the span and buffers it for writing.
func (t *CSVTracer) EndTask(task Task) {
	originalTask, ok := t.startingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = t.timeTeller.CurrentTime()
	delete(t.startingTasks, task.ID)

	t.tasks = append(t.tasks, originalTask)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered spans to the CSV file.
func (t *CSVTracer) Flush() {
	for _, task := range t.tasks {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %.10f, %.10f\n",
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
		)
	}

	t.tasks = nil
}
