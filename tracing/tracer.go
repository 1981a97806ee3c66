package tracing

// A Tracer can collect task spans. Tracers stamp the start and end times
// themselves, so the tasks handed to StartTask and EndTask only need to carry
// an ID and, on start, the describing fields.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}
