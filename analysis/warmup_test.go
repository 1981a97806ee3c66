package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

type observeOnHandle struct {
	collector *Collector
}

func (h *observeOnHandle) Handle(e sim.Event) error {
	h.collector.Observe("WaitingTime", e.Time(), 1)
	return nil
}

var _ = Describe("ScheduleWarmUpReset", func() {
	var (
		engine    sim.Engine
		collector *Collector
		handler   *observeOnHandle
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		collector = NewCollector(0)
		handler = &observeOnHandle{collector: collector}
	})

	It("should discard observations recorded up to the warm-up end", func() {
		engine.Schedule(sim.NewEventBase(4, handler))
		engine.Schedule(sim.NewEventBase(10, handler))
		ScheduleWarmUpReset(engine, 10, collector)

		Expect(engine.Run()).To(Succeed())

		Expect(collector.Count("WaitingTime")).To(Equal(0))
	})

	It("should keep observations recorded after the warm-up end", func() {
		engine.Schedule(sim.NewEventBase(4, handler))
		engine.Schedule(sim.NewEventBase(15, handler))
		ScheduleWarmUpReset(engine, 10, collector)

		Expect(engine.Run()).To(Succeed())

		Expect(collector.Count("WaitingTime")).To(Equal(1))
		Expect(collector.Values("WaitingTime")).To(Equal([]float64{1}))
	})
})
