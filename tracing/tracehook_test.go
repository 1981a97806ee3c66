package tracing

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// A taskRecorder keeps the tracer calls in order, labelled with the fields
// of the task that started the span.
type taskRecorder struct {
	started map[string]Task
	calls   []string
}

func newTaskRecorder() *taskRecorder {
	return &taskRecorder{started: make(map[string]Task)}
}

func (r *taskRecorder) StartTask(task Task) {
	r.started[task.ID] = task
	r.record("start", task)
}

func (r *taskRecorder) StepTask(task Task) {
	r.record("step", r.started[task.ID])
}

func (r *taskRecorder) EndTask(task Task) {
	r.record("end", r.started[task.ID])
}

func (r *taskRecorder) record(action string, task Task) {
	r.calls = append(r.calls,
		fmt.Sprintf("%s %s %s@%s", action, task.Kind, task.What, task.Where))
}

var _ = Describe("CollectTrace", func() {
	var (
		env      *sim.Environment
		desk     *sim.Resource
		recorder *taskRecorder
	)

	BeforeEach(func() {
		env = sim.NewEnvironment()

		var err error
		desk, err = env.NewResource("Desk", 1)
		Expect(err).ToNot(HaveOccurred())

		recorder = newTaskRecorder()
		CollectEnvTrace(env, recorder)
	})

	It("should span a process lifetime", func() {
		env.Process("Worker", func(p *sim.Process) error {
			return p.Timeout(3)
		})

		Expect(env.Run()).To(Succeed())

		Expect(recorder.calls).To(Equal([]string{
			"start process Worker@Worker",
			"end process Worker@Worker",
		}))
	})

	It("should end the process span when the process fails", func() {
		env.Process("Worker", func(p *sim.Process) error {
			return errors.New("broken")
		})

		Expect(env.Run()).To(Succeed())

		Expect(recorder.calls).To(Equal([]string{
			"start process Worker@Worker",
			"end process Worker@Worker",
		}))
	})

	It("should trace waits and holds around a contended resource", func() {
		env.Process("A", func(p *sim.Process) error {
			req := desk.Request(p)
			if err := p.Timeout(2); err != nil {
				return err
			}
			return req.Release()
		})
		env.Process("B", func(p *sim.Process) error {
			req := desk.Request(p)
			if err := p.Timeout(1); err != nil {
				return err
			}
			return req.Release()
		})

		Expect(env.Run()).To(Succeed())

		Expect(recorder.calls).To(Equal([]string{
			"start process A@A",
			"start wait A@Desk",
			"end wait A@Desk",
			"step process A@A",
			"start hold A@Desk",
			"start process B@B",
			"start wait B@Desk",
			"end hold A@Desk",
			"end wait B@Desk",
			"step process B@B",
			"start hold B@Desk",
			"end process A@A",
			"end hold B@Desk",
			"end process B@B",
		}))
	})

	It("should link wait and hold spans to the process span", func() {
		env.Process("A", func(p *sim.Process) error {
			req := desk.Request(p)
			if err := p.Timeout(2); err != nil {
				return err
			}
			return req.Release()
		})

		Expect(env.Run()).To(Succeed())

		byKind := make(map[string]Task)
		for _, task := range recorder.started {
			byKind[task.Kind] = task
		}

		Expect(byKind[TaskKindWait].ParentID).
			To(Equal(byKind[TaskKindProcess].ID))
		Expect(byKind[TaskKindHold].ParentID).
			To(Equal(byKind[TaskKindProcess].ID))
	})

	It("should trace resources declared after attachment", func() {
		printer, err := env.NewResource("Printer", 1)
		Expect(err).ToNot(HaveOccurred())

		env.Process("A", func(p *sim.Process) error {
			req := printer.Request(p)
			if err := p.Timeout(1); err != nil {
				return err
			}
			return req.Release()
		})

		Expect(env.Run()).To(Succeed())

		Expect(recorder.calls).To(Equal([]string{
			"start process A@A",
			"start wait A@Printer",
			"end wait A@Printer",
			"step process A@A",
			"start hold A@Printer",
			"end hold A@Printer",
			"end process A@A",
		}))
	})

	It("should close spans when the run is shut down", func() {
		env.Process("A", func(p *sim.Process) error {
			req := desk.Request(p)
			defer req.Release()
			return p.Timeout(100)
		})

		Expect(env.RunUntil(5)).To(Succeed())
		env.Shutdown()

		Expect(recorder.calls).To(Equal([]string{
			"start process A@A",
			"start wait A@Desk",
			"end wait A@Desk",
			"step process A@A",
			"start hold A@Desk",
			"end hold A@Desk",
			"end process A@A",
		}))
	})

	It("should name grant steps after the resource", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		tracer := NewMockTracer(mockCtrl)
		tracer.EXPECT().StartTask(gomock.Any()).AnyTimes()
		tracer.EXPECT().EndTask(gomock.Any()).AnyTimes()

		var step Task
		tracer.EXPECT().StepTask(gomock.Any()).Do(func(task Task) {
			step = task
		})

		env := sim.NewEnvironment()
		desk, err := env.NewResource("Desk", 1)
		Expect(err).ToNot(HaveOccurred())

		CollectEnvTrace(env, tracer)

		env.Process("A", func(p *sim.Process) error {
			req := desk.Request(p)
			if err := p.Timeout(1); err != nil {
				return err
			}
			return req.Release()
		})

		Expect(env.Run()).To(Succeed())

		Expect(step.Steps).To(Equal([]TaskStep{{What: "granted Desk"}}))
	})
})
