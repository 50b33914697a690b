package events

// Subscriber is an interface for event consumers.
// Implementations adapt the event stream to a transport.
type Subscriber interface {
	// Send delivers an event to the subscriber. It must not block: the
	// broker delivers events to subscribers one after another.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}
