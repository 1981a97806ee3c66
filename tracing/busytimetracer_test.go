package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var _ = Describe("BusyTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		tracer     *BusyTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		tracer = NewBusyTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report zero before any span opens", func() {
		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(0)))
	})

	It("should measure a single span", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(3))
		tracer.EndTask(Task{ID: "1"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(2)))
	})

	It("should count overlapping spans once", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2))
		tracer.StartTask(Task{ID: "2"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(4))
		tracer.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(6))
		tracer.EndTask(Task{ID: "2"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(5)))
	})

	It("should add up disjoint spans", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(3))
		tracer.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(5))
		tracer.StartTask(Task{ID: "2"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(6))
		tracer.EndTask(Task{ID: "2"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(3)))
	})

	It("should count an open span up to the current instant", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(4))
		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(3)))
	})

	It("should ignore an end without a start", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(5))
		tracer.EndTask(Task{ID: "unseen"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(0)))
	})

	It("should only measure the spans the filter selects", func() {
		tracer = NewBusyTimeTracer(
			timeTeller, FilterByWhere(TaskKindHold, "Operators"))

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID: "1", Kind: TaskKindHold, Where: "Operators"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID: "2", Kind: TaskKindWait, Where: "Operators"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(5))
		tracer.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(9))
		tracer.EndTask(Task{ID: "2"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(4)))
	})

	It("should close open spans on terminate", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(6))
		tracer.Terminate()

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(8))
		tracer.EndTask(Task{ID: "1"})

		Expect(tracer.BusyTime()).To(Equal(sim.SimTime(5)))
	})
})
