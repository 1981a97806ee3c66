package sim

import "errors"

// ProcessState identifies where a process is in its lifecycle.
type ProcessState string

// A process starts pending, alternates between running and suspended, and
// ends terminated. Terminated is the only terminal state.
const (
	ProcessPending    ProcessState = "pending"
	ProcessRunning    ProcessState = "running"
	ProcessSuspended  ProcessState = "suspended"
	ProcessTerminated ProcessState = "terminated"
)

// AwaitReason tells what a suspended process is waiting for.
type AwaitReason string

// A process suspends in exactly two ways, waiting for a timeout to elapse or
// waiting for a resource grant.
const (
	AwaitNothing       AwaitReason = ""
	AwaitTimeout       AwaitReason = "timeout"
	AwaitResourceGrant AwaitReason = "resource grant"
)

// A ProcessBody is the model logic of one process. Bodies run cooperatively.
// Between suspension points a body is the only code executing in the
// simulation, so it can touch shared model state without locking. Returning
// a non-nil error terminates the process and records a ProcessFailure.
type ProcessBody func(p *Process) error

type resumeSignal int

const (
	resumeRun resumeSignal = iota
	resumeShutdown
)

type parkSignal int

const (
	parkSuspended parkSignal = iota
	parkTerminated
)

// errProcessShutdown unwinds the goroutine of a discarded process so that
// its deferred calls still run. It never escapes the process runner.
var errProcessShutdown = errors.New("simulation shut down")

// A Process is one cooperative unit of model logic. The environment backs
// each process with a goroutine, but execution stays logically
// single-threaded. A turn resumes the goroutine and blocks the dispatch loop
// until the process parks again.
type Process struct {
	id   string
	name string
	env  *Environment

	state    ProcessState
	awaiting AwaitReason
	failure  *ProcessFailure

	resume chan resumeSignal
	parked chan parkSignal
}

func newProcess(env *Environment, name string, body ProcessBody) *Process {
	NameMustBeValid(name)

	p := &Process{
		id:     GetIDGenerator().Generate(),
		name:   name,
		env:    env,
		state:  ProcessPending,
		resume: make(chan resumeSignal),
		parked: make(chan parkSignal),
	}

	go p.run(body)

	return p
}

// ID returns the unique ID of the process.
func (p *Process) ID() string {
	return p.id
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// State returns the lifecycle state of the process.
func (p *Process) State() ProcessState {
	return p.state
}

// Awaiting tells what the process is suspended on, if it is suspended.
func (p *Process) Awaiting() AwaitReason {
	return p.awaiting
}

// Env returns the environment the process runs in.
func (p *Process) Env() *Environment {
	return p.env
}

// Now returns the current simulated time.
func (p *Process) Now() SimTime {
	return p.env.Now()
}

// Timeout suspends the process for d units of simulated time. A negative d
// is rejected with InvalidDelayError before anything is scheduled. A zero d
// is legal. The process yields its turn and resumes at the same simulated
// instant, after the events already queued there.
//
// Timeout must only be called from the process's own body.
func (p *Process) Timeout(d SimTime) error {
	if d < 0 {
		return InvalidDelayError{Delay: d}
	}

	evt := newTimeoutEvent(p.env.Now()+d, p.env, p)
	p.env.engine.Schedule(evt)

	p.suspend(AwaitTimeout)

	return nil
}

// suspend parks the calling goroutine until the environment delivers the
// next turn. It must only be called from the process's own body.
func (p *Process) suspend(reason AwaitReason) {
	p.state = ProcessSuspended
	p.awaiting = reason

	p.parked <- parkSuspended

	sig := <-p.resume
	if sig == resumeShutdown {
		panic(errProcessShutdown)
	}

	p.state = ProcessRunning
	p.awaiting = AwaitNothing
}

// turn resumes the process and blocks until it parks again. Exactly one
// process body executes at any instant.
func (p *Process) turn() parkSignal {
	p.resume <- resumeRun
	return <-p.parked
}

// discard unwinds a process that will never resume because the run is over.
// The body's deferred calls run, so scoped releases still happen. A discard
// is not a failure.
func (p *Process) discard() {
	p.resume <- resumeShutdown
	<-p.parked
}

func (p *Process) run(body ProcessBody) {
	defer p.finish()

	sig := <-p.resume
	if sig == resumeShutdown {
		return
	}
	p.state = ProcessRunning

	if err := body(p); err != nil {
		p.fail(err)
	}
}

// finish runs as the process goroutine unwinds, whether the body returned,
// panicked, or was discarded at shutdown.
func (p *Process) finish() {
	if r := recover(); r != nil && r != errProcessShutdown {
		p.fail(r)
	}

	p.state = ProcessTerminated
	p.awaiting = AwaitNothing
	p.parked <- parkTerminated
}

func (p *Process) fail(value any) {
	p.failure = &ProcessFailure{
		ProcessID:   p.id,
		ProcessName: p.name,
		Time:        p.env.Now(),
		Value:       value,
	}
}
