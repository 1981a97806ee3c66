package sim

import (
	"log"

	"github.com/gammazero/deque"
)

// HookPosResourceRequest is triggered when a process requests a slot. A
// request that cannot be granted at once is already in the queue when the
// hook fires.
var HookPosResourceRequest = &HookPos{Name: "ResourceRequest"}

// HookPosResourceGrant is triggered at the instant a request is granted.
var HookPosResourceGrant = &HookPos{Name: "ResourceGrant"}

// HookPosResourceRelease is triggered when a granted slot is given back.
var HookPosResourceRelease = &HookPos{Name: "ResourceRelease"}

// A Request is one process's claim on one slot of a resource.
type Request struct {
	id       string
	resource *Resource
	process  *Process

	granted  bool
	released bool

	requestTime SimTime
	grantTime   SimTime
}

// ID returns the unique ID of the request.
func (r *Request) ID() string {
	return r.id
}

// Process returns the requesting process.
func (r *Request) Process() *Process {
	return r.process
}

// Resource returns the resource the request is against.
func (r *Request) Resource() *Resource {
	return r.resource
}

// RequestTime returns the simulated time the request was made.
func (r *Request) RequestTime() SimTime {
	return r.requestTime
}

// GrantTime returns the simulated time the request was granted. It is only
// meaningful once the request is granted.
func (r *Request) GrantTime() SimTime {
	return r.grantTime
}

// WaitTime returns how long the request waited in the queue.
func (r *Request) WaitTime() SimTime {
	return r.grantTime - r.requestTime
}

// Release gives the slot back. If requests are waiting, the head of the
// queue is granted the freed slot and its process is resumed at the current
// instant. Releasing a request that is not held returns NotHeldError and
// changes nothing.
func (r *Request) Release() error {
	return r.resource.release(r)
}

// A Resource bounds how many processes can hold one of its slots at the same
// time. Requests beyond the capacity wait in a queue. Among all pending
// requests, the earliest one is always granted first, strict FIFO, even when
// several releases happen at the same simulated instant.
//
// Resources are declared through Environment.NewResource.
type Resource struct {
	HookableBase

	name     string
	env      *Environment
	capacity int

	granted int
	pending deque.Deque[*Request]
}

// Name returns the name of the resource.
func (r *Resource) Name() string {
	return r.name
}

// Capacity returns the number of slots of the resource.
func (r *Resource) Capacity() int {
	return r.capacity
}

// Granted returns the number of slots currently held.
func (r *Resource) Granted() int {
	return r.granted
}

// Pending returns the number of requests waiting for a slot.
func (r *Resource) Pending() int {
	return r.pending.Len()
}

// Request claims a slot for process p. When a slot is free, the request is
// granted at once and p keeps running, with zero simulated time elapsed.
// Otherwise the request joins the queue and p suspends until a release
// grants it.
//
// Request must only be called from p's own body.
func (r *Resource) Request(p *Process) *Request {
	req := &Request{
		id:          GetIDGenerator().Generate(),
		resource:    r,
		process:     p,
		requestTime: r.env.Now(),
	}

	hookCtx := HookCtx{
		Domain: r,
		Pos:    HookPosResourceRequest,
		Item:   req,
	}

	if r.granted < r.capacity {
		r.InvokeHook(hookCtx)
		r.grant(req)
		return req
	}

	r.pending.PushBack(req)
	r.InvokeHook(hookCtx)
	p.suspend(AwaitResourceGrant)

	return req
}

func (r *Resource) grant(req *Request) {
	if r.granted >= r.capacity {
		log.Panic("granting beyond resource capacity")
	}

	r.granted++
	req.granted = true
	req.grantTime = r.env.Now()

	hookCtx := HookCtx{
		Domain: r,
		Pos:    HookPosResourceGrant,
		Item:   req,
	}
	r.InvokeHook(hookCtx)
}

func (r *Resource) release(req *Request) error {
	if !req.granted || req.released {
		return NotHeldError{Resource: r.name}
	}

	req.released = true
	r.granted--

	hookCtx := HookCtx{
		Domain: r,
		Pos:    HookPosResourceRelease,
		Item:   req,
	}
	r.InvokeHook(hookCtx)

	if r.pending.Len() > 0 {
		next := r.pending.PopFront()
		r.grant(next)
		r.env.scheduleGrant(next)
	}

	return nil
}
