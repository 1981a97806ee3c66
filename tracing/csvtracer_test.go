package tracing

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var _ = Describe("CSVTracer", func() {
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

	It("should write finished spans with their times", func() {
		tracer := NewCSVTracer(timeTeller, path)

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{
			ID:    "t1",
			Kind:  TaskKindWait,
			What:  "Caller[1]",
			Where: "Operators",
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2.5))
		tracer.EndTask(Task{ID: "t1"})

		tracer.Flush()

		data, err := os.ReadFile(path + ".csv")
		Expect(err).ToNot(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(
			Equal("ID, ParentID, Kind, What, Where, Start, End"))
		Expect(lines[1]).To(Equal(
			"t1, , wait, Caller[1], Operators, " +
				"1.0000000000, 2.5000000000"))
	})

	It("should not write spans that have not ended", func() {
		tracer := NewCSVTracer(timeTeller, path)

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		tracer.StartTask(Task{ID: "t1", Kind: TaskKindProcess, What: "A"})

		tracer.Flush()

		data, err := os.ReadFile(path + ".csv")
		Expect(err).ToNot(HaveOccurred())
		Expect(strings.Split(strings.TrimSpace(string(data)), "\n")).
			To(HaveLen(1))
	})

	It("should refuse to overwrite an existing trace", func() {
		Expect(os.WriteFile(path+".csv", []byte("x"), 0644)).To(Succeed())

		Expect(func() {
			NewCSVTracer(timeTeller, path)
		}).To(Panic())
	})
})
