package analysis

import (
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

type warmUpResetHandler struct {
	resetters []Resetter
}

func (h *warmUpResetHandler) Handle(e sim.Event) error {
	for _, r := range h.resetters {
		r.Reset()
	}

	return nil
}

// ScheduleWarmUpReset schedules a single reset of the given resetters at the
// end of the warm-up period. The event is secondary, so observations that
// model events record at the same instant still land before the discard.
func ScheduleWarmUpReset(
	scheduler sim.EventScheduler,
	at sim.SimTime,
	resetters ...Resetter,
) {
	handler := &warmUpResetHandler{resetters: resetters}
	scheduler.Schedule(sim.NewSecondaryEventBase(at, handler))
}
