package callcentre

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pythonhealthdatascience/intro-open-sim/analysis"
	"github.com/pythonhealthdatascience/intro-open-sim/dist"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/pythonhealthdatascience/intro-open-sim/tracing"
)

// Series names the collector records the model's observations under.
const (
	SeriesWaitingTime       = "WaitingTime"
	SeriesCallDuration      = "CallDuration"
	SeriesNurseWaitingTime  = "NurseWaitingTime"
	SeriesNurseCallDuration = "NurseCallDuration"
)

// samplers bundles the random streams of one replication. Each model
// activity draws from its own stream, so changing how often one activity
// samples does not disturb the others.
type samplers struct {
	arrival  *dist.Exponential
	call     *dist.Triangular
	callback *dist.Bernoulli
	nurse    *dist.Uniform
}

func newSamplers(exp Experiment, rep int) *samplers {
	seed := exp.Seed + uint64(rep)

	return &samplers{
		arrival: dist.NewExponential(exp.MeanIAT,
			dist.Stream(seed, "arrivals")),
		call: dist.NewTriangular(exp.CallLow, exp.CallMode, exp.CallHigh,
			dist.Stream(seed, "calls")),
		callback: dist.NewBernoulli(exp.ChanceCallback,
			dist.Stream(seed, "callbacks")),
		nurse: dist.NewUniform(exp.NurseCallLow, exp.NurseCallHigh,
			dist.Stream(seed, "nurse")),
	}
}

// A Model is one replication of the call centre, wired and ready to run. It
// owns a fresh environment, so replications can run side by side.
type Model struct {
	exp       Experiment
	env       *sim.Environment
	samplers  *samplers
	collector *analysis.Collector

	operators *sim.Resource
	nurses    *sim.Resource
}

// NewModel builds the model of one replication of the experiment.
// Replication rep draws from random number set Seed + rep, so a rerun of the
// same replication reproduces its results exactly.
func NewModel(exp Experiment, rep int) (*Model, error) {
	return NewModelWithBackend(exp, rep, nil)
}

// NewModelWithBackend builds the model with a collector that forwards every
// observation to the given backend for persistence.
func NewModelWithBackend(
	exp Experiment,
	rep int,
	backend analysis.ObservationLogger,
) (*Model, error) {
	return NewModelInEnvironment(sim.NewEnvironment(), exp, rep, backend)
}

// NewModelInEnvironment builds the model into an existing environment, so
// the run is visible to services already attached to it, such as a monitor
// or a database tracer.
func NewModelInEnvironment(
	env *sim.Environment,
	exp Experiment,
	rep int,
	backend analysis.ObservationLogger,
) (*Model, error) {
	if err := exp.validate(); err != nil {
		return nil, err
	}

	m := &Model{
		exp:      exp,
		env:      env,
		samplers: newSamplers(exp, rep),
	}

	if backend == nil {
		m.collector = analysis.NewCollector(rep)
	} else {
		m.collector = analysis.NewCollectorWithBackend(rep, backend)
	}

	var err error

	m.operators, err = m.env.NewResource("Operators", exp.NOperators)
	if err != nil {
		return nil, err
	}

	m.nurses, err = m.env.NewResource("Nurses", exp.NNurses)
	if err != nil {
		return nil, err
	}

	if exp.Trace {
		tracing.CollectEnvTrace(m.env,
			tracing.NewTraceLogger(m.env.Engine(), logrus.StandardLogger()))
	}

	m.env.Process("Arrivals", m.arrivals)

	return m, nil
}

// Environment returns the environment the model runs in.
func (m *Model) Environment() *sim.Environment {
	return m.env
}

// Collector returns the collector the model records its observations into.
func (m *Model) Collector() *analysis.Collector {
	return m.collector
}

// Operators returns the call operator resource.
func (m *Model) Operators() *sim.Resource {
	return m.operators
}

// Nurses returns the nurse resource.
func (m *Model) Nurses() *sim.Resource {
	return m.nurses
}

// Run drives the model to the end of the results collection period and
// returns the replication's results. With a warm-up period set, the run
// lasts WarmUp + RunLength and the observations recorded during the warm-up
// are discarded.
func (m *Model) Run() (Results, error) {
	if m.exp.WarmUp > 0 {
		analysis.ScheduleWarmUpReset(m.env.Engine(), m.exp.WarmUp, m.collector)
	}

	if err := m.env.RunUntil(m.exp.WarmUp + m.exp.RunLength); err != nil {
		return Results{}, err
	}

	m.env.Shutdown()

	if failures := m.env.Failures(); len(failures) > 0 {
		return Results{}, fmt.Errorf("%d processes failed, first was %s: %v",
			len(failures), failures[0].ProcessName, failures[0].Value)
	}

	return m.results(), nil
}

// arrivals generates the incoming calls, one service process per call.
func (m *Model) arrivals(p *sim.Process) error {
	for n := 1; ; n++ {
		iat := m.samplers.arrival.Sample()
		if err := p.Timeout(sim.SimTime(iat)); err != nil {
			return err
		}

		m.env.Process(sim.BuildNameWithIndex("", "Caller", n), m.service)
	}
}

// service answers one call: wait for an operator, triage, and decide whether
// a nurse should call the patient back.
func (m *Model) service(p *sim.Process) error {
	req := m.operators.Request(p)

	m.collector.Observe(SeriesWaitingTime, p.Now(), float64(req.WaitTime()))

	callDuration := m.samplers.call.Sample()
	if err := p.Timeout(sim.SimTime(callDuration)); err != nil {
		return err
	}

	// Only completed calls count towards the operators' busy time.
	m.collector.Observe(SeriesCallDuration, p.Now(), callDuration)

	if err := req.Release(); err != nil {
		return err
	}

	if m.samplers.callback.SampleBool() {
		m.env.Process(sim.BuildName(p.Name(), "Callback"), m.callback)
	}

	return nil
}

// callback is the nurse consultation sub-process following triage.
func (m *Model) callback(p *sim.Process) error {
	req := m.nurses.Request(p)

	m.collector.Observe(SeriesNurseWaitingTime, p.Now(),
		float64(req.WaitTime()))

	consultDuration := m.samplers.nurse.Sample()
	if err := p.Timeout(sim.SimTime(consultDuration)); err != nil {
		return err
	}

	m.collector.Observe(SeriesNurseCallDuration, p.Now(), consultDuration)

	return req.Release()
}

func (m *Model) results() Results {
	operatorTime := float64(m.exp.RunLength) * float64(m.exp.NOperators)
	nurseTime := float64(m.exp.RunLength) * float64(m.exp.NNurses)

	return Results{
		MeanWaitingTime:      m.collector.Mean(SeriesWaitingTime),
		OperatorUtil:         100 * m.collector.Sum(SeriesCallDuration) / operatorTime,
		MeanNurseWaitingTime: m.collector.Mean(SeriesNurseWaitingTime),
		NurseUtil:            100 * m.collector.Sum(SeriesNurseCallDuration) / nurseTime,
	}
}
