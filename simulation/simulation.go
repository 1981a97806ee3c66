// Package simulation bundles an environment with the recording, tracing,
// and monitoring services of one run.
package simulation

import (
	"github.com/pythonhealthdatascience/intro-open-sim/datarecording"
	"github.com/pythonhealthdatascience/intro-open-sim/monitoring"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/pythonhealthdatascience/intro-open-sim/tracing"
)

// A Simulation provides the services required to run one simulation.
type Simulation struct {
	id  string
	env *sim.Environment

	dataRecorder datarecording.DataRecorder
	runInfo      *datarecording.RunInfoRecorder
	tracer       *tracing.DBTracer
	monitor      *monitoring.Monitor
}

// ID returns the unique ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEnvironment returns the environment that the model runs in.
func (s *Simulation) GetEnvironment() *sim.Environment {
	return s.env
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.env.Engine()
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetRunInfo returns the recorder that stores the run provenance.
func (s *Simulation) GetRunInfo() *datarecording.RunInfoRecorder {
	return s.runInfo
}

// GetMonitor returns the monitor used in the simulation. It is nil unless
// the simulation was built with monitoring.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetTracer returns the task tracer. It is nil unless the simulation was
// built with tracing.
func (s *Simulation) GetTracer() *tracing.DBTracer {
	return s.tracer
}

// Terminate shuts the environment down, closes the open trace spans, and
// writes the run information before closing the output database.
func (s *Simulation) Terminate() {
	s.env.Shutdown()

	if s.tracer != nil {
		s.tracer.Terminate()
	}

	s.runInfo.End()
	s.dataRecorder.Close()
}
