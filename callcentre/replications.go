package callcentre

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Results holds the key performance indicators of one replication.
// Utilizations are percentages of the resource's total capacity over the
// results collection period. The mean waiting times are NaN when no call of
// the corresponding kind completed during the collection period.
type Results struct {
	MeanWaitingTime      float64
	OperatorUtil         float64
	MeanNurseWaitingTime float64
	NurseUtil            float64
}

// SingleRun performs one replication of the experiment and returns its key
// performance indicators.
func SingleRun(exp Experiment, rep int) (Results, error) {
	m, err := NewModel(exp, rep)
	if err != nil {
		return Results{}, err
	}

	return m.Run()
}

// MultipleReplications performs n independent replications of the
// experiment, numbered 0 to n-1.
func MultipleReplications(exp Experiment, n int) ([]Results, error) {
	results := make([]Results, 0, n)

	for rep := 0; rep < n; rep++ {
		r, err := SingleRun(exp, rep)
		if err != nil {
			return nil, err
		}

		results = append(results, r)
	}

	return results, nil
}

// A Summary reports the spread of one KPI across replications. Std is the
// sample standard deviation, NaN for a single replication.
type Summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// A ResultsSummary reports the spread of every KPI across replications.
type ResultsSummary struct {
	MeanWaitingTime      Summary
	OperatorUtil         Summary
	MeanNurseWaitingTime Summary
	NurseUtil            Summary
}

// Summarize computes per-KPI summaries across replications.
func Summarize(results []Results) ResultsSummary {
	if len(results) == 0 {
		return ResultsSummary{}
	}

	return ResultsSummary{
		MeanWaitingTime: summarize(results,
			func(r Results) float64 { return r.MeanWaitingTime }),
		OperatorUtil: summarize(results,
			func(r Results) float64 { return r.OperatorUtil }),
		MeanNurseWaitingTime: summarize(results,
			func(r Results) float64 { return r.MeanNurseWaitingTime }),
		NurseUtil: summarize(results,
			func(r Results) float64 { return r.NurseUtil }),
	}
}

func summarize(results []Results, kpi func(Results) float64) Summary {
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = kpi(r)
	}

	return Summary{
		Mean: stat.Mean(values, nil),
		Std:  stat.StdDev(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
}
