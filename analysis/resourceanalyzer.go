package analysis

import (
	"math"

	"github.com/tebeka/atexit"

	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// A ResourceState reports the instantaneous occupancy of a resource.
type ResourceState interface {
	sim.Hookable

	Name() string
	Capacity() int
	Granted() int
	Pending() int
}

// A ResourceAnalyzer observes one resource through its hooks and reports
// time-weighted occupancy. With a period set, it records one observation per
// series per period; without one, it records whole-run averages when the
// program exits. Attach it to the resource with AcceptHook.
type ResourceAnalyzer struct {
	ObservationLogger
	sim.TimeTeller

	resource  ResourceState
	usePeriod bool
	period    sim.SimTime

	startTime         sim.SimTime
	lastTime          sim.SimTime
	lastGranted       int
	lastPending       int
	grantedToDuration map[int]sim.SimTime
	pendingToDuration map[int]sim.SimTime
	grantedTimeTotal  float64
}

// Func records the occupancy change the hooked resource just went through.
func (a *ResourceAnalyzer) Func(ctx sim.HookCtx) {
	now := a.CurrentTime()
	res := ctx.Domain.(ResourceState)

	if a.usePeriod {
		lastPeriodEndTime := a.periodEndTime(a.lastTime)

		if now > lastPeriodEndTime {
			a.summarize()
			a.resetPeriod()
		}
	}

	duration := now - a.lastTime
	a.grantedToDuration[a.lastGranted] += duration
	a.pendingToDuration[a.lastPending] += duration
	a.grantedTimeTotal += float64(a.lastGranted) * float64(duration)

	a.lastGranted = res.Granted()
	a.lastPending = res.Pending()
	a.lastTime = now
}

// Resource returns the resource under observation.
func (a *ResourceAnalyzer) Resource() ResourceState {
	return a.resource
}

// Utilization returns the time-weighted share of the resource's capacity
// held since observation started (or since the last Reset).
func (a *ResourceAnalyzer) Utilization() float64 {
	now := a.CurrentTime()

	grantedTime := a.grantedTimeTotal +
		float64(a.lastGranted)*float64(now-a.lastTime)
	capacityTime := float64(a.resource.Capacity()) * float64(now-a.startTime)

	if capacityTime == 0 {
		return 0
	}

	return grantedTime / capacityTime
}

// Reset discards the occupancy history accumulated so far. The resource's
// current occupancy carries over as the starting state of the new
// observation window.
func (a *ResourceAnalyzer) Reset() {
	now := a.CurrentTime()

	a.grantedToDuration = make(map[int]sim.SimTime)
	a.pendingToDuration = make(map[int]sim.SimTime)
	a.grantedTimeTotal = 0
	a.startTime = now
	a.lastTime = now
}

func (a *ResourceAnalyzer) summarize() {
	now := a.CurrentTime()

	if !a.usePeriod {
		a.summarizePeriod(now, a.startTime, now)
		return
	}

	periodStartTime := a.periodStartTime(a.lastTime)
	periodEndTime := a.periodEndTime(a.lastTime)

	for periodEndTime < now {
		a.summarizePeriod(now, periodStartTime, periodEndTime)

		a.grantedToDuration = make(map[int]sim.SimTime)
		a.pendingToDuration = make(map[int]sim.SimTime)
		a.lastTime = periodEndTime
		periodStartTime = periodEndTime
		periodEndTime = periodStartTime + a.period
	}
}

func (a *ResourceAnalyzer) summarizePeriod(
	now, periodStartTime, periodEndTime sim.SimTime,
) {
	a.recordAverage(now, periodEndTime,
		a.grantedToDuration, a.lastGranted, ".Granted")
	a.recordAverage(now, periodEndTime,
		a.pendingToDuration, a.lastPending, ".PendingRequests")
}

func (a *ResourceAnalyzer) recordAverage(
	now, periodEndTime sim.SimTime,
	levelToDuration map[int]sim.SimTime,
	lastLevel int,
	series string,
) {
	sumLevel := 0.0
	sumDuration := 0.0
	for level, duration := range levelToDuration {
		sumLevel += float64(level) * float64(duration)
		sumDuration += float64(duration)
	}

	summarizeEndTime := minTime(periodEndTime, now)
	if summarizeEndTime > a.lastTime {
		remainingTime := summarizeEndTime - a.lastTime
		sumLevel += float64(lastLevel) * float64(remainingTime)
		sumDuration += float64(remainingTime)
	}

	if sumDuration == 0 {
		return
	}

	avgLevel := sumLevel / sumDuration
	if avgLevel == 0 {
		return
	}

	a.Record(Observation{
		Name:  a.resource.Name() + series,
		Time:  periodEndTime,
		Value: avgLevel,
	})
}

func (a *ResourceAnalyzer) resetPeriod() {
	now := a.CurrentTime()

	a.grantedToDuration = make(map[int]sim.SimTime)
	a.pendingToDuration = make(map[int]sim.SimTime)

	a.lastTime = a.periodStartTime(now)
}

func (a *ResourceAnalyzer) periodStartTime(t sim.SimTime) sim.SimTime {
	return sim.SimTime(math.Floor(float64(t/a.period))) * a.period
}

func (a *ResourceAnalyzer) periodEndTime(t sim.SimTime) sim.SimTime {
	return a.periodStartTime(t) + a.period
}

func minTime(a, b sim.SimTime) sim.SimTime {
	if a < b {
		return a
	}

	return b
}

// ResourceAnalyzerBuilder can build a ResourceAnalyzer.
type ResourceAnalyzerBuilder struct {
	logger     ObservationLogger
	timeTeller sim.TimeTeller
	usePeriod  bool
	period     sim.SimTime
	resource   ResourceState
}

// MakeResourceAnalyzerBuilder creates a ResourceAnalyzerBuilder.
func MakeResourceAnalyzerBuilder() ResourceAnalyzerBuilder {
	return ResourceAnalyzerBuilder{}
}

// WithObservationLogger sets the logger that receives the summaries.
func (b ResourceAnalyzerBuilder) WithObservationLogger(
	logger ObservationLogger,
) ResourceAnalyzerBuilder {
	b.logger = logger
	return b
}

// WithTimeTeller sets the time source to use.
func (b ResourceAnalyzerBuilder) WithTimeTeller(
	timeTeller sim.TimeTeller,
) ResourceAnalyzerBuilder {
	b.timeTeller = timeTeller
	return b
}

// WithPeriod makes the analyzer record one summary per period.
func (b ResourceAnalyzerBuilder) WithPeriod(
	period sim.SimTime,
) ResourceAnalyzerBuilder {
	b.usePeriod = true
	b.period = period
	return b
}

// WithResource sets the resource to observe.
func (b ResourceAnalyzerBuilder) WithResource(
	resource ResourceState,
) ResourceAnalyzerBuilder {
	b.resource = resource
	return b
}

// Build creates a ResourceAnalyzer and registers its end-of-run summary.
func (b ResourceAnalyzerBuilder) Build() *ResourceAnalyzer {
	if b.logger == nil {
		panic("observation logger is not set")
	}

	if b.timeTeller == nil {
		panic("time teller is not set")
	}

	if b.resource == nil {
		panic("resource is not set")
	}

	analyzer := &ResourceAnalyzer{
		ObservationLogger: b.logger,
		TimeTeller:        b.timeTeller,
		resource:          b.resource,
		usePeriod:         b.usePeriod,
		period:            b.period,
		grantedToDuration: make(map[int]sim.SimTime),
		pendingToDuration: make(map[int]sim.SimTime),
	}

	atexit.Register(analyzer.summarize)

	return analyzer
}
