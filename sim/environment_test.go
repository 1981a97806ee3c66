package sim

import (
	"bytes"
	"fmt"
	"log"
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// orderHandler appends its label when its event fires, so tests can check
// dispatch order against model code.
type orderHandler struct {
	order *[]string
	label string
}

func (h *orderHandler) Handle(e Event) error {
	*h.order = append(*h.order, h.label)
	return nil
}

// eventTraceHook records (time, event type) for every dispatched event.
type eventTraceHook struct {
	entries []string
}

func (h *eventTraceHook) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt := ctx.Item.(Event)
	h.entries = append(h.entries,
		fmt.Sprintf("%.6f/%s", evt.Time(), reflect.TypeOf(evt)))
}

var _ = Describe("Environment", func() {
	var env *Environment

	BeforeEach(func() {
		env = NewEnvironment()
	})

	AfterEach(func() {
		env.Shutdown()
	})

	It("should start at time zero with nothing registered", func() {
		Expect(env.Now()).To(Equal(SimTime(0)))
		Expect(env.Processes()).To(BeEmpty())
		Expect(env.Resources()).To(BeEmpty())
		Expect(env.Failures()).To(BeEmpty())
	})

	It("should list processes and resources in registration order", func() {
		body := func(p *Process) error { return nil }
		env.Process("A", body)
		env.Process("B", body)
		res, _ := env.NewResource("Res", 1)

		Expect(env.Processes()).To(HaveLen(2))
		Expect(env.Processes()[0].Name()).To(Equal("A"))
		Expect(env.Processes()[1].Name()).To(Equal("B"))
		Expect(env.Resources()).To(HaveLen(1))
		Expect(env.Resources()[0]).To(BeIdenticalTo(res))
	})

	It("should not share any state between environments", func() {
		env2 := NewEnvironment()
		defer env2.Shutdown()

		env.Process("Proc", func(p *Process) error {
			return p.Timeout(7)
		})
		_ = env.Run()

		Expect(env.Now()).To(Equal(SimTime(7)))
		Expect(env2.Now()).To(Equal(SimTime(0)))
	})

	It("should dispatch a secondary reset after same-instant model events",
		func() {
			var order []string

			env.Process("Obs", func(p *Process) error {
				if err := p.Timeout(5); err != nil {
					return err
				}
				order = append(order, "observation")
				return nil
			})

			reset := &orderHandler{order: &order, label: "reset"}
			env.Engine().Schedule(NewSecondaryEventBase(5, reset))

			_ = env.Run()

			Expect(order).To(Equal([]string{"observation", "reset"}))
			Expect(env.Now()).To(Equal(SimTime(5)))
		})

	It("should replay identically given identical model logic", func() {
		runOnce := func() []string {
			replication := NewEnvironment()
			defer replication.Shutdown()

			trace := &eventTraceHook{}
			replication.Engine().AcceptHook(trace)

			res, _ := replication.NewResource("Res", 1)
			for i := 0; i < 3; i++ {
				name := BuildNameWithIndex("", "Proc", i)
				d := SimTime(i)
				replication.Process(name, func(p *Process) error {
					if err := p.Timeout(d); err != nil {
						return err
					}
					req := res.Request(p)
					if err := p.Timeout(4); err != nil {
						return err
					}
					return req.Release()
				})
			}
			_ = replication.Run()

			return trace.entries
		}

		first := runOnce()
		second := runOnce()

		Expect(second).To(Equal(first))
		Expect(first).ToNot(BeEmpty())
	})

	It("should log dispatched events with the process name", func() {
		var buf bytes.Buffer
		env.Engine().AcceptHook(NewEventLogger(log.New(&buf, "", 0)))

		env.Process("Proc", func(p *Process) error { return nil })
		_ = env.Run()

		Expect(buf.String()).To(ContainSubstring("startEvent"))
		Expect(buf.String()).To(ContainSubstring("Proc"))
	})
})
