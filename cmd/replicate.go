package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/intro-open-sim/callcentre"
	"github.com/pythonhealthdatascience/intro-open-sim/monitoring"
)

var nReplications int // Number of replications to run

// resultsTable is the table the per-replication results are recorded into.
const resultsTable = "results"

// replicationRow is one replication's results as recorded in the results
// table.
type replicationRow struct {
	Replication          int
	MeanWaitingTime      float64
	OperatorUtil         float64
	MeanNurseWaitingTime float64
	NurseUtil            float64
}

// replicateCmd runs the experiment repeatedly, each replication on its own
// random number set, records the per-replication results, and prints a
// summary.
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run multiple replications and summarize the results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		exp, err := buildExperiment(cmd)
		if err != nil {
			return err
		}

		if err := serviceFlagsMustAgree(cmd); err != nil {
			return err
		}

		if nReplications < 1 {
			return fmt.Errorf("replications must be at least 1, got %d",
				nReplications)
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

		recordExperimentDetails(s, exp)
		s.GetRunInfo().AddDetail("Replications",
			strconv.Itoa(nReplications))

		recorder := s.GetDataRecorder()
		recorder.CreateTable(resultsTable, replicationRow{})

		var bar *monitoring.ProgressBar
		if monitor := s.GetMonitor(); monitor != nil {
			bar = monitor.CreateProgressBar("Replications",
				uint64(nReplications))
		}

		results := make([]callcentre.Results, 0, nReplications)

		for rep := 0; rep < nReplications; rep++ {
			model, err := callcentre.NewModelWithBackend(exp, rep, backend)
			if err != nil {
				return err
			}

			// The dashboard follows the replication currently running.
			if monitor := s.GetMonitor(); monitor != nil {
				monitor.RegisterEnvironment(model.Environment())
			}

			res, err := model.Run()
			if err != nil {
				return fmt.Errorf("replication %d: %w", rep, err)
			}

			recorder.InsertData(resultsTable, replicationRow{
				Replication:          rep,
				MeanWaitingTime:      res.MeanWaitingTime,
				OperatorUtil:         res.OperatorUtil,
				MeanNurseWaitingTime: res.MeanNurseWaitingTime,
				NurseUtil:            res.NurseUtil,
			})

			results = append(results, res)

			if bar != nil {
				bar.IncrementFinished(1)
			}

			logrus.WithField("replication", rep).Debug("replication done")
		}

		if bar != nil {
			s.GetMonitor().CompleteProgressBar(bar)
		}

		printSummary(os.Stdout, nReplications, callcentre.Summarize(results))

		return nil
	},
}

func init() {
	registerExperimentFlags(replicateCmd)
	registerOutputFlags(replicateCmd)
	registerMonitorFlags(replicateCmd)

	replicateCmd.Flags().IntVarP(&nReplications, "replications", "n", 5,
		"Number of replications to run")

	rootCmd.AddCommand(replicateCmd)
}
