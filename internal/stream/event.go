// Package stream implements the incremental response protocol every branch of
// a turn writes through: one start, non-overlapping text (or reasoning)
// blocks, one finish.
package stream

// EventType is the kind of a protocol event.
type EventType string

const (
	EventStart     EventType = "start"
	EventTextStart EventType = "text-start"
	EventTextDelta EventType = "text-delta"
	EventTextEnd   EventType = "text-end"
	EventFinish    EventType = "finish"

	// Reasoning events are only produced by the completion path.
	EventReasoningStart EventType = "reasoning-start"
	EventReasoningDelta EventType = "reasoning-delta"
	EventReasoningEnd   EventType = "reasoning-end"
)

// Event is one protocol event as it goes over the wire.
type Event struct {
	Type  EventType `json:"type"`
	ID    string    `json:"id,omitempty"`
	Delta string    `json:"delta,omitempty"`
}

// Sink receives events in emission order.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error {
	return f(e)
}

// Tee sends every event to each sink in order, stopping at the first error.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) error {
		for _, s := range sinks {
			if err := s.Send(e); err != nil {
				return err
			}
		}
		return nil
	})
}
