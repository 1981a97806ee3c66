package cmd

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/intro-open-sim/callcentre"
)

var replication int // Replication index to run

// runCmd executes a single replication of the experiment. The model runs in
// the environment of the built simulation, so the monitor and the tracer
// see it.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one replication of the call centre model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		exp, err := buildExperiment(cmd)
		if err != nil {
			return err
		}

		if err := serviceFlagsMustAgree(cmd); err != nil {
			return err
		}

		backend, err := newObservationBackend()
		if err != nil {
			return err
		}
		if backend != nil {
			defer backend.Flush()
		}

		s := buildSimulation()
		defer s.Terminate()

		model, err := callcentre.NewModelInEnvironment(
			s.GetEnvironment(), exp, replication, backend)
		if err != nil {
			return err
		}

		recordExperimentDetails(s, exp)
		s.GetRunInfo().AddDetail("Replication", strconv.Itoa(replication))

		logrus.WithFields(logrus.Fields{
			"replication": replication,
			"operators":   exp.NOperators,
			"nurses":      exp.NNurses,
		}).Info("starting run")

		results, err := model.Run()
		if err != nil {
			return err
		}

		printResults(os.Stdout, replication, results)

		return nil
	},
}

func init() {
	registerExperimentFlags(runCmd)
	registerOutputFlags(runCmd)
	registerMonitorFlags(runCmd)

	runCmd.Flags().IntVar(&replication, "rep", 0,
		"Replication index selecting the random number set")
	runCmd.Flags().BoolVar(&dbTrace, "db-trace", false,
		"Record process and resource spans into the output database")
	runCmd.Flags().Float64Var(&traceStart, "trace-start", 0,
		"Start of the recorded trace window")
	runCmd.Flags().Float64Var(&traceEnd, "trace-end", 0,
		"End of the recorded trace window")

	rootCmd.AddCommand(runCmd)
}
