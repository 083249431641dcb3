package stream

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMessage(t *testing.T) {
	rec := &Recorder{}
	w := NewWriter(rec)

	require.NoError(t, WriteMessage(w, "hello"))

	assert.Equal(t, []EventType{EventStart, EventTextStart, EventTextDelta, EventTextEnd, EventFinish}, rec.Types())
	assert.Equal(t, "hello", rec.Text())
	id := rec.Events[1].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Events[2].ID)
	assert.Equal(t, id, rec.Events[3].ID)
	assert.True(t, w.Finished())
}

func TestWriterOrdering(t *testing.T) {
	t.Run("delta before start", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		_, err := w.TextStart()
		assert.True(t, errors.Is(err, ErrNotStarted))
	})

	t.Run("double start", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, w.Start())
		assert.True(t, errors.Is(w.Start(), ErrAlreadyStarted))
	})

	t.Run("overlapping blocks", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, w.Start())
		_, err := w.TextStart()
		require.NoError(t, err)
		_, err = w.ReasoningStart()
		assert.True(t, errors.Is(err, ErrBlockOpen))
	})

	t.Run("wrong id", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, w.Start())
		_, err := w.TextStart()
		require.NoError(t, err)
		assert.True(t, errors.Is(w.TextDelta("other", "x"), ErrUnknownBlock))
	})

	t.Run("text end on reasoning block", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, w.Start())
		id, err := w.ReasoningStart()
		require.NoError(t, err)
		assert.True(t, errors.Is(w.TextEnd(id), ErrUnknownBlock))
	})

	t.Run("finish with open block", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, w.Start())
		_, err := w.TextStart()
		require.NoError(t, err)
		assert.True(t, errors.Is(w.Finish(), ErrBlockOpen))
	})

	t.Run("write after finish", func(t *testing.T) {
		w := NewWriter(&Recorder{})
		require.NoError(t, WriteMessage(w, "x"))
		_, err := w.TextStart()
		assert.True(t, errors.Is(err, ErrFinished))
		assert.True(t, errors.Is(w.Start(), ErrFinished))
	})
}

func TestSequentialBlocks(t *testing.T) {
	rec := &Recorder{}
	w := NewWriter(rec)
	require.NoError(t, w.Start())

	rid, err := w.ReasoningStart()
	require.NoError(t, err)
	require.NoError(t, w.ReasoningDelta(rid, "hmm"))
	require.NoError(t, w.ReasoningEnd(rid))

	require.NoError(t, WriteBlock(w, "one"))
	require.NoError(t, WriteBlock(w, "two"))
	require.NoError(t, w.Finish())

	assert.Equal(t, "one\n\ntwo", rec.Text())
	assert.NotEqual(t, rec.Events[4].ID, rec.Events[7].ID)
}

func TestClose(t *testing.T) {
	t.Run("never started", func(t *testing.T) {
		rec := &Recorder{}
		started, err := NewWriter(rec).Close()
		require.NoError(t, err)
		assert.False(t, started)
		assert.Empty(t, rec.Events)
	})

	t.Run("open block", func(t *testing.T) {
		rec := &Recorder{}
		w := NewWriter(rec)
		require.NoError(t, w.Start())
		id, err := w.ReasoningStart()
		require.NoError(t, err)
		require.NoError(t, w.ReasoningDelta(id, "partial"))

		started, err := w.Close()
		require.NoError(t, err)
		assert.True(t, started)
		assert.Equal(t, []EventType{EventStart, EventReasoningStart, EventReasoningDelta, EventReasoningEnd, EventFinish}, rec.Types())
	})

	t.Run("already finished", func(t *testing.T) {
		rec := &Recorder{}
		w := NewWriter(rec)
		require.NoError(t, WriteMessage(w, "done"))
		_, err := w.Close()
		require.NoError(t, err)
		assert.Len(t, rec.Events, 5)
	})
}

func TestTee(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	require.NoError(t, WriteMessage(NewWriter(Tee(a, b)), "both"))
	assert.Equal(t, a.Events, b.Events)
}

func TestSSESink(t *testing.T) {
	rr := httptest.NewRecorder()
	w := NewWriter(NewSSESink(rr))

	require.NoError(t, WriteMessage(w, `say "hi"`))

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "v1", rr.Header().Get(ProtocolHeader))

	body := rr.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, frames, 6)
	assert.Equal(t, `data: {"type":"start"}`, frames[0])
	assert.Contains(t, frames[2], `"type":"text-delta"`)
	assert.Contains(t, frames[2], `"delta":"say \"hi\""`)
	assert.Equal(t, `data: {"type":"finish"}`, frames[4])
	assert.Equal(t, "data: [DONE]", frames[5])
	assert.True(t, rr.Flushed)
}
