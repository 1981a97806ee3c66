package tracing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A JSONTracer writes finished task spans into a JSON file as one array of
// tasks, steps included. Spans are written as they finish and the array is
// closed at exit.
type JSONTracer struct {
	timeTeller sim.TimeTeller
	path       string
	file       *os.File

	startingTasks map[string]Task
	firstTask     bool
	finished      bool
}

// NewJSONTracer creates a JSONTracer writing to path plus a ".json" suffix.
// An empty path picks a unique file name in the working directory.
func NewJSONTracer(timeTeller sim.TimeTeller, path string) *JSONTracer {
	t := &JSONTracer{
		timeTeller:    timeTeller,
		path:          path,
		startingTasks: make(map[string]Task),
		firstTask:     true,
	}
	t.createFile()

	atexit.Register(t.Finish)

	return t
}

func (t *JSONTracer) createFile() {
	if t.path == "" {
		t.path = "introsim_trace_" + xid.New().String()
	}

	filename := t.path + ".json"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	_, err = file.Write([]byte("[\n"))
	if err != nil {
		panic(err)
	}
}

// StartTask records the task start time.
func (t *JSONTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()
	t.startingTasks[task.ID] = task
}

// StepTask stamps the step times and attaches the steps to the task.
func (t *JSONTracer) StepTask(task Task) {
	originalTask, ok := t.startingTasks[task.ID]
	if !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, step := range task.Steps {
		step.Time = now
		originalTask.Steps = append(originalTask.Steps, step)
	}

	t.startingTasks[task.ID] = originalTask
}

// EndTask completes the span and writes it out.
func (t *JSONTracer) EndTask(task Task) {
	originalTask, ok := t.startingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = t.timeTeller.CurrentTime()
	delete(t.startingTasks, task.ID)

	if t.firstTask {
		t.firstTask = false
	} else {
		_, err := t.file.Write([]byte(",\n"))
		if err != nil {
			panic(err)
		}
	}

	b, err := json.Marshal(originalTask)
	if err != nil {
		panic(err)
	}

	_, err = t.file.Write(b)
	if err != nil {
		panic(err)
	}
}

// Finish closes the JSON array and the file. Calling it again does nothing.
func (t *JSONTracer) Finish() {
	if t.finished {
		return
	}
	t.finished = true

	_, err := t.file.Write([]byte("\n]\n"))
	if err != nil {
		panic(err)
	}

	err = t.file.Close()
	if err != nil {
		panic(err)
	}
}
