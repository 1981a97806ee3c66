package sim

import (
	"log"
	"reflect"
)

// HookPosProcessStart is triggered when a process takes its first turn.
var HookPosProcessStart = &HookPos{Name: "ProcessStart"}

// HookPosProcessTerminate is triggered when a process terminates, including
// when it is discarded at shutdown.
var HookPosProcessTerminate = &HookPos{Name: "ProcessTerminate"}

// HookPosProcessFail is triggered when a process body ends with an error or
// a panic. The HookCtx detail carries the ProcessFailure.
var HookPosProcessFail = &HookPos{Name: "ProcessFail"}

// HookPosResourceDeclare is triggered when a resource is declared. The
// HookCtx item carries the new Resource.
var HookPosResourceDeclare = &HookPos{Name: "ResourceDeclare"}

// An Environment binds a clock, an event queue, and a set of processes and
// resources into one simulation run. Every run owns a fresh Environment.
// Nothing is shared between instances, so replications can run side by side
// as long as each one keeps to its own Environment.
type Environment struct {
	HookableBase

	engine     Engine
	processes  []*Process
	resources  []*Resource
	failures   []ProcessFailure
	isShutdown bool
}

// NewEnvironment creates an Environment driven by its own serial engine.
func NewEnvironment() *Environment {
	env := new(Environment)
	env.engine = NewSerialEngine()
	return env
}

// Engine returns the event engine driving the environment.
func (env *Environment) Engine() Engine {
	return env.engine
}

// Now returns the current simulated time.
func (env *Environment) Now() SimTime {
	return env.engine.CurrentTime()
}

// Process registers body as a new process named name. The process starts in
// the pending state and takes its first turn at the current simulated time,
// after the events already queued there. Registration itself never runs any
// model logic.
func (env *Environment) Process(name string, body ProcessBody) *Process {
	if env.isShutdown {
		log.Panic("cannot register a process after shutdown")
	}

	p := newProcess(env, name, body)
	env.processes = append(env.processes, p)

	evt := newStartEvent(env.Now(), env, p)
	env.engine.Schedule(evt)

	return p
}

// NewResource declares a resource with the given number of slots. A capacity
// smaller than 1 is rejected with InvalidCapacityError, as it could never
// grant a request.
func (env *Environment) NewResource(
	name string,
	capacity int,
) (*Resource, error) {
	if capacity < 1 {
		return nil, InvalidCapacityError{Capacity: capacity}
	}

	NameMustBeValid(name)

	r := &Resource{
		name:     name,
		env:      env,
		capacity: capacity,
	}
	env.resources = append(env.resources, r)

	hookCtx := HookCtx{
		Domain: env,
		Pos:    HookPosResourceDeclare,
		Item:   r,
	}
	env.InvokeHook(hookCtx)

	return r, nil
}

// Run processes events until the queue drains. A drained queue is the normal
// end of a run, not an error. Process failures do not stop the run; inspect
// Failures afterwards.
func (env *Environment) Run() error {
	return env.engine.Run()
}

// RunUntil processes events up to and including simulated time t and leaves
// the clock at exactly t. A process still suspended at t simply never
// resumes.
func (env *Environment) RunUntil(t SimTime) error {
	return env.engine.RunUntil(t)
}

// Failures returns the failures of processes that ended with an error or a
// panic, in the order they failed.
func (env *Environment) Failures() []ProcessFailure {
	return env.failures
}

// Processes returns every registered process, in registration order.
func (env *Environment) Processes() []*Process {
	return env.processes
}

// Resources returns every declared resource, in declaration order.
func (env *Environment) Resources() []*Resource {
	return env.resources
}

// Handle dispatches the environment's own events. Each event gives one
// process its turn.
func (env *Environment) Handle(e Event) error {
	switch evt := e.(type) {
	case *startEvent:
		env.takeTurn(evt.process)
	case *timeoutEvent:
		env.takeTurn(evt.process)
	case *grantEvent:
		env.takeTurn(evt.request.process)
	default:
		log.Panicf("cannot handle event %s", reflect.TypeOf(e))
	}

	return nil
}

// takeTurn resumes a process and blocks until it suspends again or
// terminates.
func (env *Environment) takeTurn(p *Process) {
	if p.state == ProcessTerminated {
		log.Panicf("process %s resumed after termination", p.name)
	}

	if p.state == ProcessPending {
		hookCtx := HookCtx{
			Domain: env,
			Pos:    HookPosProcessStart,
			Item:   p,
		}
		env.InvokeHook(hookCtx)
	}

	if p.turn() == parkTerminated {
		env.recordEnd(p)
	}
}

func (env *Environment) recordEnd(p *Process) {
	if p.failure != nil {
		env.failures = append(env.failures, *p.failure)

		hookCtx := HookCtx{
			Domain: env,
			Pos:    HookPosProcessFail,
			Item:   p,
			Detail: *p.failure,
		}
		env.InvokeHook(hookCtx)

		return
	}

	hookCtx := HookCtx{
		Domain: env,
		Pos:    HookPosProcessTerminate,
		Item:   p,
	}
	env.InvokeHook(hookCtx)
}

// Shutdown discards every process that has not terminated, in registration
// order, and then runs the registered simulation end handlers. A discarded
// process unwinds through its deferred calls, so scoped releases still run.
// Discarding is not a failure. The environment cannot register processes
// after Shutdown.
func (env *Environment) Shutdown() {
	if env.isShutdown {
		return
	}

	for i := 0; i < len(env.processes); i++ {
		p := env.processes[i]
		if p.state == ProcessTerminated {
			continue
		}

		p.discard()

		if p.failure != nil {
			env.failures = append(env.failures, *p.failure)
		}

		hookCtx := HookCtx{
			Domain: env,
			Pos:    HookPosProcessTerminate,
			Item:   p,
		}
		env.InvokeHook(hookCtx)
	}

	env.isShutdown = true
	env.engine.Finished()
}

func (env *Environment) scheduleGrant(req *Request) {
	evt := newGrantEvent(env.Now(), env, req)
	env.engine.Schedule(evt)
}

// A ProcessEvent is an event that resumes a specific process.
type ProcessEvent interface {
	Event
	Process() *Process
}

// A startEvent gives a newly registered process its first turn.
type startEvent struct {
	*EventBase
	process *Process
}

func newStartEvent(t SimTime, handler Handler, p *Process) *startEvent {
	return &startEvent{
		EventBase: NewEventBase(t, handler),
		process:   p,
	}
}

// Process returns the process the event resumes.
func (e *startEvent) Process() *Process {
	return e.process
}

// A timeoutEvent resumes a process when its requested delay has elapsed.
type timeoutEvent struct {
	*EventBase
	process *Process
}

func newTimeoutEvent(t SimTime, handler Handler, p *Process) *timeoutEvent {
	return &timeoutEvent{
		EventBase: NewEventBase(t, handler),
		process:   p,
	}
}

// Process returns the process the event resumes.
func (e *timeoutEvent) Process() *Process {
	return e.process
}

// A grantEvent resumes a process whose queued resource request has been
// granted by a release.
type grantEvent struct {
	*EventBase
	request *Request
}

func newGrantEvent(t SimTime, handler Handler, req *Request) *grantEvent {
	return &grantEvent{
		EventBase: NewEventBase(t, handler),
		request:   req,
	}
}

// Process returns the process the event resumes.
func (e *grantEvent) Process() *Process {
	return e.request.process
}
