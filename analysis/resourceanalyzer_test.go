package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var _ = Describe("ResourceAnalyzer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		logger     *MockObservationLogger
		resource   *MockResourceState
		analyzer   *ResourceAnalyzer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		logger = NewMockObservationLogger(mockCtrl)
		resource = NewMockResourceState(mockCtrl)
		resource.EXPECT().Name().Return("Operators").AnyTimes()
		resource.EXPECT().Capacity().Return(2).AnyTimes()

		analyzer = MakeResourceAnalyzerBuilder().
			WithObservationLogger(logger).
			WithTimeTeller(timeTeller).
			WithPeriod(1).
			WithResource(resource).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record the average granted count per period", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(0.1))
		resource.EXPECT().Granted().Return(1)
		resource.EXPECT().Pending().Return(0)

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceGrant,
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1.1)).AnyTimes()
		resource.EXPECT().Granted().Return(0)
		resource.EXPECT().Pending().Return(0)
		logger.EXPECT().Record(Observation{
			Name:  "Operators.Granted",
			Time:  1.0,
			Value: 0.9,
		})

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceRelease,
		})
	})

	It("should report multiple periods together", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(0.1))
		resource.EXPECT().Granted().Return(1)
		resource.EXPECT().Pending().Return(0)

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceGrant,
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(2.1)).AnyTimes()
		resource.EXPECT().Granted().Return(0)
		resource.EXPECT().Pending().Return(0)
		logger.EXPECT().Record(Observation{
			Name:  "Operators.Granted",
			Time:  1.0,
			Value: 0.9,
		})
		logger.EXPECT().Record(Observation{
			Name:  "Operators.Granted",
			Time:  2.0,
			Value: 1.0,
		})

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceRelease,
		})
	})

	It("should record the pending queue length alongside the granted count", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(0.1))
		resource.EXPECT().Granted().Return(2)
		resource.EXPECT().Pending().Return(2)

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceRequest,
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1.1)).AnyTimes()
		resource.EXPECT().Granted().Return(2)
		resource.EXPECT().Pending().Return(1)
		logger.EXPECT().Record(Observation{
			Name:  "Operators.Granted",
			Time:  1.0,
			Value: 1.8,
		})
		logger.EXPECT().Record(Observation{
			Name:  "Operators.PendingRequests",
			Time:  1.0,
			Value: 1.8,
		})

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceRelease,
		})
	})

	It("should compute time-weighted utilization", func() {
		analyzer = MakeResourceAnalyzerBuilder().
			WithObservationLogger(logger).
			WithTimeTeller(timeTeller).
			WithResource(resource).
			Build()

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		resource.EXPECT().Granted().Return(2)
		resource.EXPECT().Pending().Return(0)

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceGrant,
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(3))

		Expect(analyzer.Utilization()).To(Equal(2.0 / 3.0))
	})

	It("should report zero utilization before any time passes", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(0))

		Expect(analyzer.Utilization()).To(Equal(0.0))
	})

	It("should start a fresh window on reset", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(1))
		resource.EXPECT().Granted().Return(2)
		resource.EXPECT().Pending().Return(0)

		analyzer.Func(sim.HookCtx{
			Domain: resource,
			Pos:    sim.HookPosResourceGrant,
		})

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(5))
		analyzer.Reset()

		timeTeller.EXPECT().CurrentTime().Return(sim.SimTime(7))

		Expect(analyzer.Utilization()).To(Equal(1.0))
	})

	It("should measure a live resource end to end", func() {
		env := sim.NewEnvironment()
		res, err := env.NewResource("Operators", 1)
		Expect(err).To(BeNil())

		collector := NewCollector(0)
		live := MakeResourceAnalyzerBuilder().
			WithObservationLogger(collector).
			WithTimeTeller(env.Engine()).
			WithResource(res).
			Build()
		res.AcceptHook(live)

		env.Process("Worker", func(p *sim.Process) error {
			req := res.Request(p)
			if err := p.Timeout(4); err != nil {
				return err
			}
			return req.Release()
		})

		Expect(env.Run()).To(Succeed())
		Expect(env.Failures()).To(BeEmpty())
		Expect(live.Utilization()).To(Equal(1.0))
	})
})
