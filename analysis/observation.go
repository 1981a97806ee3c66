// Package analysis collects observations from running models and summarizes
// resource occupancy over time.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// An Observation is a single named measurement taken during a run.
type Observation struct {
	Name        string
	Time        sim.SimTime
	Replication int
	Value       float64
}

// An ObservationLogger records observations as a model produces them.
type ObservationLogger interface {
	Record(obs Observation)
}

// A Resetter discards what it has accumulated so far. Collectors and
// analyzers implement it so that a warm-up reset can clear them mid-run.
type Resetter interface {
	Reset()
}

// A Collector accumulates observations in memory, grouped by name. Every
// observation is stamped with the collector's replication index, and
// optionally forwarded to a backend for persistence.
type Collector struct {
	replication int
	backend     ObservationLogger

	byName map[string][]float64
}

// NewCollector creates a Collector for the given replication index.
func NewCollector(replication int) *Collector {
	return &Collector{
		replication: replication,
		byName:      make(map[string][]float64),
	}
}

// NewCollectorWithBackend creates a Collector that also forwards every
// recorded observation to the given backend.
func NewCollectorWithBackend(
	replication int,
	backend ObservationLogger,
) *Collector {
	c := NewCollector(replication)
	c.backend = backend

	return c
}

// Replication returns the replication index the collector was created for.
func (c *Collector) Replication() int {
	return c.replication
}

// Observe records one value for the named series at the given time.
func (c *Collector) Observe(name string, now sim.SimTime, value float64) {
	c.Record(Observation{
		Name:  name,
		Time:  now,
		Value: value,
	})
}

// Record stores one observation, stamped with the collector's replication
// index.
func (c *Collector) Record(obs Observation) {
	obs.Replication = c.replication

	c.byName[obs.Name] = append(c.byName[obs.Name], obs.Value)

	if c.backend != nil {
		c.backend.Record(obs)
	}
}

// Reset drops every observation recorded so far. Values recorded before the
// reset no longer contribute to any summary, which is how a warm-up period
// is discarded. Observations already forwarded to a backend stay there.
func (c *Collector) Reset() {
	c.byName = make(map[string][]float64)
}

// Names returns the recorded series names in alphabetical order.
func (c *Collector) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Values returns the values recorded for the named series in recording
// order. The returned slice is the collector's own storage and must not be
// modified.
func (c *Collector) Values(name string) []float64 {
	return c.byName[name]
}

// Count returns how many values the named series holds.
func (c *Collector) Count(name string) int {
	return len(c.byName[name])
}

// Sum returns the sum of the named series.
func (c *Collector) Sum(name string) float64 {
	return floats.Sum(c.byName[name])
}

// Mean returns the mean of the named series. It is NaN when the series is
// empty.
func (c *Collector) Mean(name string) float64 {
	return stat.Mean(c.byName[name], nil)
}
