package stream

import "strings"

// Recorder keeps every event it receives.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Send(e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Text concatenates all text deltas, separating blocks with a blank line.
func (r *Recorder) Text() string {
	var blocks []string
	var b strings.Builder
	for _, e := range r.Events {
		switch e.Type {
		case EventTextDelta:
			b.WriteString(e.Delta)
		case EventTextEnd:
			blocks = append(blocks, b.String())
			b.Reset()
		}
	}
	return strings.Join(blocks, "\n\n")
}

// Types lists the event types in order.
func (r *Recorder) Types() []EventType {
	types := make([]EventType, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
