package tracing

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var _ = Describe("TraceLogger", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		buf        *bytes.Buffer
		tracer     *TraceLogger
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		logger := logrus.New()
		buf = &bytes.Buffer{}
		logger.SetOutput(buf)

		tracer = NewTraceLogger(timeTeller, logger)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should narrate a process lifetime", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID:    "t1",
			Kind:  TaskKindProcess,
			What:  "Caller[1]",
			Where: "Caller[1]",
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(4))
		tracer.EndTask(Task{ID: "t1"})

		out := buf.String()
		Expect(out).To(ContainSubstring("process started"))
		Expect(out).To(ContainSubstring("process ended"))
		Expect(out).To(ContainSubstring("Caller[1]"))
		Expect(out).To(ContainSubstring("t=1.000"))
		Expect(out).To(ContainSubstring("t=4.000"))
	})

	It("should report the waiting time when a wait ends", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID:    "t1",
			Kind:  TaskKindWait,
			What:  "Caller[3]",
			Where: "Operators",
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2.5))
		tracer.EndTask(Task{ID: "t1"})

		out := buf.String()
		Expect(out).To(ContainSubstring("requesting resource"))
		Expect(out).To(ContainSubstring("resource granted"))
		Expect(out).To(ContainSubstring("waited=1.500"))
		Expect(out).To(ContainSubstring("resource=Operators"))
	})

	It("should stay silent about spans it has not seen", func() {
		tracer.EndTask(Task{ID: "unseen"})

		Expect(buf.Len()).To(BeZero())
	})
})
