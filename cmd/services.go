package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/intro-open-sim/analysis"
	"github.com/pythonhealthdatascience/intro-open-sim/callcentre"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
	"github.com/pythonhealthdatascience/intro-open-sim/simulation"
)

var (
	outputName   string // Base name of the output database
	observations string // Base name of the raw observation dump
	obsFormat    string // Format of the raw observation dump

	monitorOn   bool // Serve the monitoring dashboard during the run
	monitorPort int  // Port of the monitoring server
	openBrowser bool // Open the dashboard in the default browser

	dbTrace    bool    // Record process and resource spans into the database
	traceStart float64 // Start of the recorded trace window
	traceEnd   float64 // End of the recorded trace window
)

// registerOutputFlags declares the flags that control where results and raw
// observations go.
func registerOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&outputName, "output", "",
		"Base name of the output database (default introsim_<run id>)")
	flags.StringVar(&observations, "observations", "",
		"Base name of a file to dump every raw observation into")
	flags.StringVar(&obsFormat, "observations-format", "csv",
		"Format of the raw observation dump (csv, sqlite)")
}

// registerMonitorFlags declares the flags that control the monitoring
// server.
func registerMonitorFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.BoolVar(&monitorOn, "monitor", false,
		"Serve the monitoring dashboard during the run")
	flags.IntVar(&monitorPort, "monitor-port", 0,
		"Port of the monitoring server (default a random free port)")
	flags.BoolVar(&openBrowser, "open", false,
		"Open the dashboard in the default browser")
}

// serviceFlagsMustAgree rejects service flags whose prerequisite flag is
// off.
func serviceFlagsMustAgree(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if !monitorOn {
		if flags.Changed("monitor-port") {
			return errors.New("--monitor-port requires --monitor")
		}
		if openBrowser {
			return errors.New("--open requires --monitor")
		}
	}

	if !dbTrace &&
		(flags.Changed("trace-start") || flags.Changed("trace-end")) {
		return errors.New("--trace-start and --trace-end require --db-trace")
	}

	return nil
}

// buildSimulation assembles the simulation services the flags ask for.
func buildSimulation() *simulation.Simulation {
	builder := simulation.MakeBuilder()

	if outputName != "" {
		builder = builder.WithOutputFileName(outputName)
	}

	if monitorOn {
		builder = builder.WithMonitoring()
		if monitorPort != 0 {
			builder = builder.WithMonitorPort(monitorPort)
		}
		if openBrowser {
			builder = builder.WithBrowserOpen()
		}
	}

	if dbTrace {
		builder = builder.WithDBTracing()
		if traceStart != 0 || traceEnd != 0 {
			builder = builder.WithTraceTimeRange(
				sim.SimTime(traceStart), sim.SimTime(traceEnd))
		}
	}

	return builder.Build()
}

// newObservationBackend opens the raw observation dump named by the flags.
// Without --observations it returns nil and nothing is dumped.
func newObservationBackend() (analysis.ObservationBackend, error) {
	if observations == "" {
		return nil, nil
	}

	switch obsFormat {
	case "csv":
		return analysis.NewCSVBackend(observations), nil
	case "sqlite":
		return analysis.NewSQLiteBackend(observations), nil
	default:
		return nil, fmt.Errorf(
			"observations-format must be csv or sqlite, got %s", obsFormat)
	}
}

// recordExperimentDetails stores the experiment parameters in the run_info
// table, so a recorded run can be traced back to its configuration.
func recordExperimentDetails(
	s *simulation.Simulation,
	exp callcentre.Experiment,
) {
	info := s.GetRunInfo()

	info.AddDetail("Operators", strconv.Itoa(exp.NOperators))
	info.AddDetail("Nurses", strconv.Itoa(exp.NNurses))
	info.AddDetail("Mean IAT", formatValue(exp.MeanIAT))
	info.AddDetail("Call Duration",
		formatValue(exp.CallLow)+"/"+formatValue(exp.CallMode)+"/"+
			formatValue(exp.CallHigh))
	info.AddDetail("Chance Callback", formatValue(exp.ChanceCallback))
	info.AddDetail("Nurse Consultation",
		formatValue(exp.NurseCallLow)+"-"+formatValue(exp.NurseCallHigh))
	info.AddDetail("Run Length", formatValue(float64(exp.RunLength)))
	info.AddDetail("Warm Up", formatValue(float64(exp.WarmUp)))
	info.AddDetail("Seed", strconv.FormatUint(exp.Seed, 10))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
