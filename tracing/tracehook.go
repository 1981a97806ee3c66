package tracing

import (
	"github.com/pythonhealthdatascience/intro-open-sim/sim"
)

// CollectTrace lets the tracer collect task spans from a domain. Hooking an
// Environment produces process spans and covers resources declared after the
// call. Hooking a Resource produces wait and hold spans for every request
// against it.
func CollectTrace(domain sim.Hookable, tracer Tracer) {
	domain.AcceptHook(&traceHook{t: tracer})
}

// CollectEnvTrace attaches the tracer to the environment and to every
// resource it declares, including resources declared after this call.
func CollectEnvTrace(env *sim.Environment, tracer Tracer) {
	CollectTrace(env, tracer)

	for _, r := range env.Resources() {
		CollectTrace(r, tracer)
	}
}

// A traceHook translates environment and resource hooks into tracer calls.
type traceHook struct {
	t Tracer
}

// Func calls the tracer when a span starts or ends. A resource declaration
// hooks the same traceHook onto the new resource.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosProcessStart:
		h.processStart(ctx.Item.(*sim.Process))
	case sim.HookPosProcessTerminate, sim.HookPosProcessFail:
		h.t.EndTask(Task{ID: processTaskID(ctx.Item.(*sim.Process))})
	case sim.HookPosResourceDeclare:
		ctx.Item.(*sim.Resource).AcceptHook(h)
	case sim.HookPosResourceRequest:
		h.waitStart(ctx.Item.(*sim.Request))
	case sim.HookPosResourceGrant:
		h.grant(ctx.Item.(*sim.Request))
	case sim.HookPosResourceRelease:
		h.t.EndTask(Task{ID: holdTaskID(ctx.Item.(*sim.Request))})
	}
}

func (h *traceHook) processStart(p *sim.Process) {
	h.t.StartTask(Task{
		ID:    processTaskID(p),
		Kind:  TaskKindProcess,
		What:  p.Name(),
		Where: p.Name(),
	})
}

func (h *traceHook) waitStart(req *sim.Request) {
	h.t.StartTask(Task{
		ID:       waitTaskID(req),
		ParentID: processTaskID(req.Process()),
		Kind:     TaskKindWait,
		What:     req.Process().Name(),
		Where:    req.Resource().Name(),
	})
}

// grant closes the wait span, marks the grant as a step of the process span,
// and opens the hold span, all at the same instant.
func (h *traceHook) grant(req *sim.Request) {
	h.t.EndTask(Task{ID: waitTaskID(req)})

	h.t.StepTask(Task{
		ID:    processTaskID(req.Process()),
		Steps: []TaskStep{{What: "granted " + req.Resource().Name()}},
	})

	h.t.StartTask(Task{
		ID:       holdTaskID(req),
		ParentID: processTaskID(req.Process()),
		Kind:     TaskKindHold,
		What:     req.Process().Name(),
		Where:    req.Resource().Name(),
	})
}

func processTaskID(p *sim.Process) string {
	return p.ID() + "_process"
}

func waitTaskID(req *sim.Request) string {
	return req.ID() + "_wait"
}

func holdTaskID(req *sim.Request) string {
	return req.ID() + "_hold"
}
