package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/intro-open-sim/callcentre"
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

var (
	configFile string // Path of an experiment YAML file

	nOperators     int     // Number of call operators on shift
	nNurses        int     // Number of nurses making callbacks
	meanIAT        float64 // Mean time between incoming calls
	callLow        float64 // Shortest triage call
	callMode       float64 // Most likely triage call duration
	callHigh       float64 // Longest triage call
	chanceCallback float64 // Probability a call needs a nurse callback
	nurseLow       float64 // Shortest nurse consultation
	nurseHigh      float64 // Longest nurse consultation
	runLength      float64 // Results collection period
	warmUp         float64 // Warm-up period discarded from the results
	seed           uint64  // Seed selecting the random number sets
	trace          bool    // Narrate every model step through the log
)

// registerExperimentFlags declares the flags that configure the experiment
// on the given command.
func registerExperimentFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&configFile, "config", "",
		"Experiment YAML file laid over the defaults")
	flags.IntVar(&nOperators, "operators", callcentre.DefaultNOperators,
		"Number of call operators on shift")
	flags.IntVar(&nNurses, "nurses", callcentre.DefaultNNurses,
		"Number of nurses making callbacks")
	flags.Float64Var(&meanIAT, "mean-iat", callcentre.DefaultMeanIAT,
		"Mean time between incoming calls (minutes)")
	flags.Float64Var(&callLow, "call-low", callcentre.DefaultCallLow,
		"Shortest triage call (minutes)")
	flags.Float64Var(&callMode, "call-mode", callcentre.DefaultCallMode,
		"Most likely triage call duration (minutes)")
	flags.Float64Var(&callHigh, "call-high", callcentre.DefaultCallHigh,
		"Longest triage call (minutes)")
	flags.Float64Var(&chanceCallback, "chance-callback",
		callcentre.DefaultChanceCallback,
		"Probability a call needs a nurse callback")
	flags.Float64Var(&nurseLow, "nurse-low", callcentre.DefaultNurseCallLow,
		"Shortest nurse consultation (minutes)")
	flags.Float64Var(&nurseHigh, "nurse-high", callcentre.DefaultNurseCallHigh,
		"Longest nurse consultation (minutes)")
	flags.Float64Var(&runLength, "run-length",
		float64(callcentre.DefaultRunLength),
		"Results collection period (minutes)")
	flags.Float64Var(&warmUp, "warm-up", float64(callcentre.DefaultWarmUp),
		"Warm-up period discarded from the results (minutes)")
	flags.Uint64Var(&seed, "seed", 0,
		"Seed selecting the random number sets")
	flags.BoolVar(&trace, "trace", false,
		"Narrate every model step through the log")
}

// buildExperiment resolves the experiment of one invocation. The YAML file
// named by --config is laid over the defaults first; flags set on the
// command line or through INTROSIM variables override the file.
func buildExperiment(cmd *cobra.Command) (callcentre.Experiment, error) {
	exp := callcentre.DefaultExperiment()

	if configFile != "" {
		var err error

		exp, err = callcentre.LoadExperiment(configFile)
		if err != nil {
			return callcentre.Experiment{}, err
		}
	}

	flags := cmd.Flags()

	if flags.Changed("operators") {
		exp.NOperators = nOperators
	}
	if flags.Changed("nurses") {
		exp.NNurses = nNurses
	}
	if flags.Changed("mean-iat") {
		exp.MeanIAT = meanIAT
	}
	if flags.Changed("call-low") {
		exp.CallLow = callLow
	}
	if flags.Changed("call-mode") {
		exp.CallMode = callMode
	}
	if flags.Changed("call-high") {
		exp.CallHigh = callHigh
	}
	if flags.Changed("chance-callback") {
		exp.ChanceCallback = chanceCallback
	}
	if flags.Changed("nurse-low") {
		exp.NurseCallLow = nurseLow
	}
	if flags.Changed("nurse-high") {
		exp.NurseCallHigh = nurseHigh
	}
	if flags.Changed("run-length") {
		exp.RunLength = sim.SimTime(runLength)
	}
	if flags.Changed("warm-up") {
		exp.WarmUp = sim.SimTime(warmUp)
	}
	if flags.Changed("seed") {
		exp.Seed = seed
	}
	if flags.Changed("trace") {
		exp.Trace = trace
	}

	return exp, nil
}
