package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfo is one property of a recorded run.
type RunInfo struct {
	Property string
	Value    string
}

// A RunInfoRecorder stores provenance about one simulation run: wall-clock
// times, the command line, and model settings such as the seed.
type RunInfoRecorder struct {
	tableName string
	recorder  DataRecorder
	entries   []RunInfo
}

// NewRunInfoRecorder creates a RunInfoRecorder that writes a run_info table
// through the given recorder.
func NewRunInfoRecorder(recorder DataRecorder) *RunInfoRecorder {
	r := &RunInfoRecorder{
		tableName: "run_info",
		recorder:  recorder,
	}

	r.recorder.CreateTable(r.tableName, RunInfo{})

	return r
}

// Start records the wall-clock start time, the command line, and the
// working directory of the run.
func (r *RunInfoRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	r.entries = append(r.entries, RunInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	r.entries = append(r.entries, RunInfo{"Command", cmd})

	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	r.entries = append(r.entries, RunInfo{"Working Directory", wd})
}

// AddDetail records one extra property of the run, such as the master seed
// or the number of replications.
func (r *RunInfoRecorder) AddDetail(property, value string) {
	r.entries = append(r.entries, RunInfo{property, value})
}

// End writes everything recorded plus the wall-clock end time, then
// flushes.
func (r *RunInfoRecorder) End() {
	for _, entry := range r.entries {
		r.recorder.InsertData(r.tableName, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	r.recorder.InsertData(r.tableName, RunInfo{"End Time", endTime})

	r.entries = nil

	r.recorder.Flush()
}
