package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ProtocolHeader marks responses that carry the UI message stream.
const ProtocolHeader = "x-vercel-ai-ui-message-stream"

// SSESink writes events as server-sent events, flushing after each one.
type SSESink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSESink sets the streaming headers on w.
func NewSSESink(w http.ResponseWriter) *SSESink {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set(ProtocolHeader, "v1")

	flusher, _ := w.(http.Flusher)
	return &SSESink{w: w, flusher: flusher}
}

func (s *SSESink) Send(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "stream: encode event")
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return errors.Wrap(err, "stream: write event")
	}
	if e.Type == EventFinish {
		if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
			return errors.Wrap(err, "stream: write terminator")
		}
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
