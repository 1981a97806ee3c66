// Package callcentre models an urgent care call centre where operators
// triage incoming calls and nurses call a share of the patients back.
package callcentre

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// Default experiment parameters. Times are in minutes.
const (
	DefaultNOperators = 13
	DefaultNNurses    = 10

	// 100 calls per hour.
	DefaultMeanIAT = 60.0 / 100.0

	DefaultCallLow  = 5.0
	DefaultCallMode = 7.0
	DefaultCallHigh = 10.0

	DefaultChanceCallback = 0.4
	DefaultNurseCallLow   = 10.0
	DefaultNurseCallHigh  = 20.0

	DefaultRunLength = sim.SimTime(1000)
	DefaultWarmUp    = sim.SimTime(0)
)

// An Experiment holds the parameters of one call centre configuration. Each
// replication of an experiment draws its own random streams, so one
// Experiment value can drive any number of replications.
type Experiment struct {
	NOperators int `yaml:"n_operators"`
	NNurses    int `yaml:"n_nurses"`

	MeanIAT float64 `yaml:"mean_iat"`

	CallLow  float64 `yaml:"call_low"`
	CallMode float64 `yaml:"call_mode"`
	CallHigh float64 `yaml:"call_high"`

	ChanceCallback float64 `yaml:"chance_callback"`
	NurseCallLow   float64 `yaml:"nurse_call_low"`
	NurseCallHigh  float64 `yaml:"nurse_call_high"`

	RunLength sim.SimTime `yaml:"run_length"`
	WarmUp    sim.SimTime `yaml:"warm_up"`

	Seed  uint64 `yaml:"seed"`
	Trace bool   `yaml:"trace"`
}

// DefaultExperiment returns the default call centre configuration.
func DefaultExperiment() Experiment {
	return Experiment{
		NOperators:     DefaultNOperators,
		NNurses:        DefaultNNurses,
		MeanIAT:        DefaultMeanIAT,
		CallLow:        DefaultCallLow,
		CallMode:       DefaultCallMode,
		CallHigh:       DefaultCallHigh,
		ChanceCallback: DefaultChanceCallback,
		NurseCallLow:   DefaultNurseCallLow,
		NurseCallHigh:  DefaultNurseCallHigh,
		RunLength:      DefaultRunLength,
		WarmUp:         DefaultWarmUp,
	}
}

// LoadExperiment reads an experiment from a YAML file. Fields the file does
// not set keep their defaults.
func LoadExperiment(path string) (Experiment, error) {
	exp := DefaultExperiment()

	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, fmt.Errorf("reading experiment file: %w", err)
	}

	if err := yaml.Unmarshal(data, &exp); err != nil {
		return Experiment{}, fmt.Errorf("parsing experiment file: %w", err)
	}

	return exp, nil
}

func (e Experiment) validate() error {
	if e.NOperators < 1 {
		return fmt.Errorf("NOperators must be at least 1, got %d", e.NOperators)
	}

	if e.NNurses < 1 {
		return fmt.Errorf("NNurses must be at least 1, got %d", e.NNurses)
	}

	if e.MeanIAT <= 0 {
		return fmt.Errorf("MeanIAT must be positive, got %v", e.MeanIAT)
	}

	if !(e.CallLow <= e.CallMode && e.CallMode <= e.CallHigh &&
		e.CallLow < e.CallHigh) {
		return fmt.Errorf("call duration must satisfy low <= mode <= high "+
			"with low < high, got %v, %v, %v",
			e.CallLow, e.CallMode, e.CallHigh)
	}

	if e.ChanceCallback < 0 || e.ChanceCallback > 1 {
		return fmt.Errorf("ChanceCallback must be in [0, 1], got %v",
			e.ChanceCallback)
	}

	if e.NurseCallLow >= e.NurseCallHigh {
		return fmt.Errorf("nurse consultation must satisfy low < high, "+
			"got %v and %v", e.NurseCallLow, e.NurseCallHigh)
	}

	if e.RunLength <= 0 {
		return fmt.Errorf("RunLength must be positive, got %v", e.RunLength)
	}

	if e.WarmUp < 0 {
		return fmt.Errorf("WarmUp must be non-negative, got %v", e.WarmUp)
	}

	return nil
}
