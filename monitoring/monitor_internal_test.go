package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gorilla/mux"
	"github.com/pythonhealthdatascience/intro-open-sim/analysis"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// buildBusyEnvironment stands up a run frozen in the middle of contention:
// two operators granted, one caller queueing, the nurses untouched.
func buildBusyEnvironment() (*sim.Environment, *sim.Resource) {
	env := sim.NewEnvironment()

	operators, err := env.NewResource("Operators", 2)
	Expect(err).ToNot(HaveOccurred())
	_, err = env.NewResource("Nurses", 1)
	Expect(err).ToNot(HaveOccurred())

	for i := 0; i < 3; i++ {
		env.Process(fmt.Sprintf("Caller[%d]", i),
			func(p *sim.Process) error {
				req := operators.Request(p)
				defer req.Release()
				return p.Timeout(10)
			})
	}

	Expect(env.RunUntil(1)).To(Succeed())

	return env, operators
}

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should report the current time", func() {
		env := sim.NewEnvironment()
		m.RegisterEnvironment(env)

		env.Process("Worker", func(p *sim.Process) error {
			return p.Timeout(2)
		})
		Expect(env.Run()).To(Succeed())

		w := httptest.NewRecorder()
		m.now(w, httptest.NewRequest("GET", "/api/now", nil))

		Expect(w.Body.String()).To(Equal(`{"now":2.0000000000}`))
	})

	It("should list processes with their states", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		m.listProcesses(w, httptest.NewRequest("GET", "/api/processes", nil))

		var rsp []processRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp).To(HaveLen(3))
		Expect(rsp[0].Name).To(Equal("Caller[0]"))
		Expect(rsp[0].State).To(Equal("suspended"))
		Expect(rsp[0].Awaiting).To(Equal("timeout"))
		Expect(rsp[2].Awaiting).To(Equal("resource grant"))
	})

	It("should list resources ordered by occupancy", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		m.listResources(w, httptest.NewRequest("GET", "/api/resources", nil))

		Expect(w.Body.String()).To(Equal(
			`[{"resource":"Operators","capacity":2,` +
				`"granted":2,"pending":1},` +
				`{"resource":"Nurses","capacity":1,` +
				`"granted":0,"pending":0}]`))
	})

	It("should respect limit and offset", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		m.listResources(w, httptest.NewRequest(
			"GET", "/api/resources?limit=1&offset=1", nil))

		Expect(w.Body.String()).To(Equal(
			`[{"resource":"Nurses","capacity":1,` +
				`"granted":0,"pending":0}]`))
	})

	It("should reject an invalid sort method", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		m.listResources(w, httptest.NewRequest(
			"GET", "/api/resources?sort=bogus", nil))

		Expect(w.Code).To(Equal(400))
	})

	It("should answer 404 for an unknown process", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		r := mux.SetURLVars(
			httptest.NewRequest("GET", "/api/process/Nobody", nil),
			map[string]string{"name": "Nobody"})
		m.listProcessDetails(w, r)

		Expect(w.Code).To(Equal(404))
	})

	It("should list process failures", func() {
		env := sim.NewEnvironment()
		m.RegisterEnvironment(env)

		env.Process("Broken", func(p *sim.Process) error {
			if err := p.Timeout(1); err != nil {
				return err
			}
			return errors.New("no operator data")
		})
		Expect(env.Run()).To(Succeed())

		w := httptest.NewRecorder()
		m.listFailures(w, httptest.NewRequest("GET", "/api/failures", nil))

		var rsp []failureRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Process).To(Equal("Broken"))
		Expect(rsp[0].Time).To(Equal(1.0))
		Expect(rsp[0].Value).To(Equal("no operator data"))
	})

	It("should report the utilization of an analyzed resource", func() {
		env := sim.NewEnvironment()
		operators, err := env.NewResource("Operators", 1)
		Expect(err).ToNot(HaveOccurred())
		m.RegisterEnvironment(env)

		ra := analysis.MakeResourceAnalyzerBuilder().
			WithObservationLogger(analysis.NewCollector(0)).
			WithTimeTeller(env.Engine()).
			WithResource(operators).
			Build()
		operators.AcceptHook(ra)
		m.RegisterResourceAnalyzer(ra)

		env.Process("Caller[0]", func(p *sim.Process) error {
			req := operators.Request(p)
			defer req.Release()
			return p.Timeout(10)
		})
		Expect(env.RunUntil(4)).To(Succeed())

		w := httptest.NewRecorder()
		r := mux.SetURLVars(
			httptest.NewRequest("GET", "/api/utilization/Operators", nil),
			map[string]string{"name": "Operators"})
		m.resourceUtilization(w, r)

		Expect(w.Body.String()).To(Equal(
			`{"resource":"Operators","utilization":1.0000000000}`))
	})

	It("should answer 404 for a resource without an analyzer", func() {
		env, _ := buildBusyEnvironment()
		m.RegisterEnvironment(env)

		w := httptest.NewRecorder()
		r := mux.SetURLVars(
			httptest.NewRequest("GET", "/api/utilization/Nurses", nil),
			map[string]string{"name": "Nurses"})
		m.resourceUtilization(w, r)

		Expect(w.Code).To(Equal(404))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Replications", 10)
		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)

		w := httptest.NewRecorder()
		m.listProgressBars(w, httptest.NewRequest("GET", "/api/progress", nil))

		var rsp []*ProgressBar
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Replications"))
		Expect(rsp[0].Finished).To(Equal(uint64(1)))
		Expect(rsp[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)

		w = httptest.NewRecorder()
		m.listProgressBars(w, httptest.NewRequest("GET", "/api/progress", nil))
		Expect(w.Body.String()).To(Equal("[]"))
	})
})
