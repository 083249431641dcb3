package stream

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotStarted     = errors.New("stream: not started")
	ErrAlreadyStarted = errors.New("stream: already started")
	ErrFinished       = errors.New("stream: already finished")
	ErrBlockOpen      = errors.New("stream: another block is open")
	ErrUnknownBlock   = errors.New("stream: no open block with this id")
)

type blockKind int

const (
	blockNone blockKind = iota
	blockText
	blockReasoning
)

// Writer enforces the event ordering on top of a Sink. It is not safe for
// concurrent use; a turn writes from a single goroutine.
type Writer struct {
	sink     Sink
	started  bool
	finished bool
	open     string
	kind     blockKind
}

func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

func (w *Writer) Started() bool  { return w.started }
func (w *Writer) Finished() bool { return w.finished }

// Open returns the id of the open block, or "".
func (w *Writer) Open() string { return w.open }

func (w *Writer) Start() error {
	if w.finished {
		return ErrFinished
	}
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true
	return w.sink.Send(Event{Type: EventStart})
}

// TextStart opens a text block and returns its id.
func (w *Writer) TextStart() (string, error) {
	return w.openBlock(blockText, EventTextStart)
}

func (w *Writer) TextDelta(id, delta string) error {
	return w.delta(blockText, EventTextDelta, id, delta)
}

func (w *Writer) TextEnd(id string) error {
	return w.closeBlock(blockText, EventTextEnd, id)
}

// ReasoningStart opens a reasoning block and returns its id.
func (w *Writer) ReasoningStart() (string, error) {
	return w.openBlock(blockReasoning, EventReasoningStart)
}

func (w *Writer) ReasoningDelta(id, delta string) error {
	return w.delta(blockReasoning, EventReasoningDelta, id, delta)
}

func (w *Writer) ReasoningEnd(id string) error {
	return w.closeBlock(blockReasoning, EventReasoningEnd, id)
}

// Finish emits the closing event. Every block must be closed first.
func (w *Writer) Finish() error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.open != "" {
		return ErrBlockOpen
	}
	w.finished = true
	return w.sink.Send(Event{Type: EventFinish})
}

// Close ends the stream in a well-formed state: an open block is closed and
// finish is emitted. It returns false without emitting anything when the
// stream was never started, so the caller can still write a full message.
func (w *Writer) Close() (bool, error) {
	if !w.started {
		return false, nil
	}
	if w.finished {
		return true, nil
	}
	if err := w.EndOpen(); err != nil {
		return true, err
	}
	return true, w.Finish()
}

// EndOpen closes the open block, if any.
func (w *Writer) EndOpen() error {
	switch {
	case w.open == "":
		return nil
	case w.kind == blockReasoning:
		return w.ReasoningEnd(w.open)
	default:
		return w.TextEnd(w.open)
	}
}

func (w *Writer) ready() error {
	if !w.started {
		return ErrNotStarted
	}
	if w.finished {
		return ErrFinished
	}
	return nil
}

func (w *Writer) openBlock(kind blockKind, t EventType) (string, error) {
	if err := w.ready(); err != nil {
		return "", err
	}
	if w.open != "" {
		return "", ErrBlockOpen
	}
	id := uuid.NewString()
	w.open, w.kind = id, kind
	return id, w.sink.Send(Event{Type: t, ID: id})
}

func (w *Writer) delta(kind blockKind, t EventType, id, delta string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.open != id || w.kind != kind {
		return errors.Wrapf(ErrUnknownBlock, "%s %q", t, id)
	}
	return w.sink.Send(Event{Type: t, ID: id, Delta: delta})
}

func (w *Writer) closeBlock(kind blockKind, t EventType, id string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.open != id || w.kind != kind {
		return errors.Wrapf(ErrUnknownBlock, "%s %q", t, id)
	}
	w.open, w.kind = "", blockNone
	return w.sink.Send(Event{Type: t, ID: id})
}

// WriteMessage emits text as a complete single-block response.
func WriteMessage(w *Writer, text string) error {
	if err := w.Start(); err != nil {
		return err
	}
	if err := WriteBlock(w, text); err != nil {
		return err
	}
	return w.Finish()
}

// WriteBlock emits text as one text block inside an already started stream.
func WriteBlock(w *Writer, text string) error {
	id, err := w.TextStart()
	if err != nil {
		return err
	}
	if err := w.TextDelta(id, text); err != nil {
		return err
	}
	return w.TextEnd(id)
}
