package simulation

import (
	"github.com/rs/xid"

	"github.com/pythonhealthdatascience/intro-open-sim/datarecording"
	"github.com/pythonhealthdatascience/intro-open-sim/monitoring"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/pythonhealthdatascience/intro-open-sim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	dbTracingOn    bool
	traceStart     sim.SimTime
	traceEnd       sim.SimTime
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMonitoring serves the monitoring API and the dashboard while the
// simulation runs.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowserOpen opens the dashboard in the default browser once the
// monitoring server is up.
func (b Builder) WithBrowserOpen() Builder {
	b.openBrowser = true
	return b
}

// WithDBTracing records process, wait, and hold spans into the output
// database.
func (b Builder) WithDBTracing() Builder {
	b.dbTracingOn = true
	return b
}

// WithTraceTimeRange keeps only the spans that overlap [start, end].
func (b Builder) WithTraceTimeRange(start, end sim.SimTime) Builder {
	b.traceStart = start
	b.traceEnd = end
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}

	if !b.dbTracingOn && (b.traceStart != 0 || b.traceEnd != 0) {
		panic("trace time range cannot be set when tracing is disabled")
	}
}

// Build builds the simulation. The tracer, when enabled, is attached before
// any model code runs, so it covers every resource the model declares.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{}

	s.id = xid.New().String()
	s.env = sim.NewEnvironment()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "introsim_" + s.id
	}

	s.dataRecorder = datarecording.New(outputPath)
	s.runInfo = datarecording.NewRunInfoRecorder(s.dataRecorder)
	s.runInfo.Start()

	if b.dbTracingOn {
		s.tracer = tracing.NewDBTracer(s.env.Engine(), s.dataRecorder)
		if b.traceStart != 0 || b.traceEnd != 0 {
			s.tracer.SetTimeRange(b.traceStart, b.traceEnd)
		}

		tracing.CollectEnvTrace(s.env, s.tracer)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowserOpen()
		}

		s.monitor.RegisterEnvironment(s.env)
		s.monitor.StartServer()
	}

	return s
}
