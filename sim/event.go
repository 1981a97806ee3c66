package sim

// SimTime is the logical simulation time. It has no relation to wall-clock
// time and is only ever advanced by the engine.
type SimTime float64

// An Event is something going to happen in the future.
type Event interface {
	// Return the time that the event should happen
	Time() SimTime

	// Returns the handler that should handle the event
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all same-time primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID        string
	time      SimTime
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase
func NewEventBase(t SimTime, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler
	e.secondary = false
	return e
}

// NewSecondaryEventBase creates an EventBase for a secondary event, one
// that is dispatched after all the same-time primary events.
func NewSecondaryEventBase(t SimTime, handler Handler) *EventBase {
	e := NewEventBase(t, handler)
	e.secondary = true
	return e
}

// Time returns the time that the event is going to happen
func (e EventBase) Time() SimTime {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler is the unit that an event is dispatched to.
//
// An event is always constrained to one handler. The handler is the only
// object that the event is allowed to directly modify.
type Handler interface {
	Handle(e Event) error
}
