package sim

import "fmt"

// InvalidDelayError is returned when a timeout is requested with a negative
// duration. The request is rejected before anything is scheduled.
type InvalidDelayError struct {
	Delay SimTime
}

func (e InvalidDelayError) Error() string {
	return fmt.Sprintf("invalid delay %g, delay must be non-negative", e.Delay)
}

// InvalidCapacityError is returned when a resource is declared with a
// capacity smaller than 1. A zero-capacity resource could never grant a
// request.
type InvalidCapacityError struct {
	Capacity int
}

func (e InvalidCapacityError) Error() string {
	return fmt.Sprintf(
		"invalid capacity %d, capacity must be at least 1", e.Capacity)
}

// NotHeldError is returned when a request is released twice, or released
// before it was ever granted. The resource state is left untouched.
type NotHeldError struct {
	Resource string
}

func (e NotHeldError) Error() string {
	return fmt.Sprintf("request on resource %q is not held", e.Resource)
}

// A ProcessFailure records one process body ending with an error or a panic.
// A failure terminates its own process only. The rest of the simulation,
// including the event queue and all other processes, keeps running.
type ProcessFailure struct {
	ProcessID   string
	ProcessName string
	Time        SimTime
	Value       any
}

func (e ProcessFailure) Error() string {
	return fmt.Sprintf("process %s failed at time %.6f: %v",
		e.ProcessName, e.Time, e.Value)
}
