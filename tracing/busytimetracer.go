package tracing

import (
	"sync"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// A BusyTimeTracer measures how much simulated time at least one span
// selected by the filter was open. Overlapping spans count once, so filtered
// on the hold spans of a resource it reports the time the resource was in
// use at all, no matter how many slots were busy.
//
// Spans open and close in nondecreasing time order, so the tracer only has
// to track when the count of open spans leaves and returns to zero.
type BusyTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock          sync.Mutex
	open          map[string]bool
	intervalStart sim.SimTime
	busyTime      sim.SimTime
}

// NewBusyTimeTracer creates a BusyTimeTracer. A nil filter selects every
// span.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		open:       make(map[string]bool),
	}
}

// BusyTime returns the time covered by at least one span so far. Spans still
// open count up to the current instant.
func (t *BusyTimeTracer) BusyTime() sim.SimTime {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.open) > 0 {
		return t.busyTime + t.timeTeller.CurrentTime() - t.intervalStart
	}

	return t.busyTime
}

// StartTask opens a span. A span opening while none is open starts a new
// busy interval.
func (t *BusyTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.open) == 0 {
		t.intervalStart = task.StartTime
	}

	t.open[task.ID] = true
}

// StepTask does nothing.
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask closes a span. Closing the last open span ends the busy interval.
func (t *BusyTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.open[task.ID] {
		return
	}

	delete(t.open, task.ID)

	if len(t.open) == 0 {
		t.busyTime += now - t.intervalStart
	}
}

// Terminate closes every span still open at the current instant, as a
// shutdown discards the processes that would have closed them. Later ends
// of those spans are ignored.
func (t *BusyTimeTracer) Terminate() {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.open) == 0 {
		return
	}

	t.busyTime += now - t.intervalStart
	t.open = make(map[string]bool)
}
