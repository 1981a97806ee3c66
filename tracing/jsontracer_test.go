package tracing

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var _ = Describe("JSONTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		path       string
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		path = filepath.Join(GinkgoT().TempDir(), "trace")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	readTasks := func() []Task {
		data, err := os.ReadFile(path + ".json")
		Expect(err).ToNot(HaveOccurred())

		var tasks []Task
		Expect(json.Unmarshal(data, &tasks)).To(Succeed())

		return tasks
	}

	It("should write finished spans with their steps", func() {
		tracer := NewJSONTracer(timeTeller, path)

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID:    "t1",
			Kind:  TaskKindProcess,
			What:  "Caller[1]",
			Where: "Caller[1]",
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2))
		tracer.StepTask(Task{ID: "t1",
			Steps: []TaskStep{{What: "granted Operators"}}})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(3))
		tracer.EndTask(Task{ID: "t1"})

		tracer.Finish()

		tasks := readTasks()
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal("t1"))
		Expect(tasks[0].What).To(Equal("Caller[1]"))
		Expect(tasks[0].StartTime).To(Equal(sim.SimTime(1)))
		Expect(tasks[0].EndTime).To(Equal(sim.SimTime(3)))
		Expect(tasks[0].Steps).To(Equal(
			[]TaskStep{{Time: 2, What: "granted Operators"}}))
	})

	It("should keep the array valid across spans", func() {
		tracer := NewJSONTracer(timeTeller, path)

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1)).Times(2)
		tracer.StartTask(Task{ID: "t1", Kind: TaskKindWait, What: "A"})
		tracer.EndTask(Task{ID: "t1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2)).Times(2)
		tracer.StartTask(Task{ID: "t2", Kind: TaskKindHold, What: "A"})
		tracer.EndTask(Task{ID: "t2"})

		tracer.Finish()

		tasks := readTasks()
		Expect(tasks).To(HaveLen(2))
		Expect(tasks[0].ID).To(Equal("t1"))
		Expect(tasks[1].ID).To(Equal("t2"))
	})

	It("should not write spans that have not ended", func() {
		tracer := NewJSONTracer(timeTeller, path)

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "t1"})

		tracer.Finish()

		Expect(readTasks()).To(BeEmpty())
	})

	It("should refuse to overwrite an existing trace", func() {
		Expect(os.WriteFile(path+".json", []byte("x"), 0644)).To(Succeed())

		Expect(func() {
			NewJSONTracer(timeTeller, path)
		}).To(Panic())
	})
})
