package cmd

import (
	"fmt"
	"io"

	"github.com/pythonhealthdatascience/intro-open-sim/callcentre"
)

const (
	labelWaitingTime      = "Mean waiting time (min)"
	labelOperatorUtil     = "Operator utilisation (%)"
	labelNurseWaitingTime = "Mean nurse callback wait (min)"
	labelNurseUtil        = "Nurse utilisation (%)"
)

func printResults(w io.Writer, rep int, r callcentre.Results) {
	fmt.Fprintf(w, "Results of replication %d:\n", rep)
	printResultRow(w, labelWaitingTime, r.MeanWaitingTime)
	printResultRow(w, labelOperatorUtil, r.OperatorUtil)
	printResultRow(w, labelNurseWaitingTime, r.MeanNurseWaitingTime)
	printResultRow(w, labelNurseUtil, r.NurseUtil)
}

func printResultRow(w io.Writer, label string, value float64) {
	fmt.Fprintf(w, "  %-32s %9.3f\n", label, value)
}

func printSummary(w io.Writer, n int, s callcentre.ResultsSummary) {
	fmt.Fprintf(w, "Summary over %d replications:\n", n)
	fmt.Fprintf(w, "  %-32s %9s %9s %9s %9s\n", "", "mean", "std", "min",
		"max")

	printSummaryRow(w, labelWaitingTime, s.MeanWaitingTime)
	printSummaryRow(w, labelOperatorUtil, s.OperatorUtil)
	printSummaryRow(w, labelNurseWaitingTime, s.MeanNurseWaitingTime)
	printSummaryRow(w, labelNurseUtil, s.NurseUtil)
}

func printSummaryRow(w io.Writer, label string, s callcentre.Summary) {
	fmt.Fprintf(w, "  %-32s %9.3f %9.3f %9.3f %9.3f\n",
		label, s.Mean, s.Std, s.Min, s.Max)
}
