// Package orchestrator runs one chat turn: moderation, then attachment
// handling, then completion. Every branch answers through a single stream.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m2tx/chat_orchestrator/internal/attachment"
	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/m2tx/chat_orchestrator/internal/moderation"
	"github.com/m2tx/chat_orchestrator/internal/repository"
	"github.com/m2tx/chat_orchestrator/internal/stream"
	"github.com/rs/zerolog"
)

const (
	ModerationUnavailable = "I couldn't check your message right now, so I can't answer it. Please try again in a moment."
	CompletionFailed      = "Sorry, something went wrong while generating the answer. Please try again."
)

const archiveTimeout = 5 * time.Second

type Screener interface {
	Screen(ctx context.Context, history []model.Turn) (moderation.Verdict, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, a model.Attachment) string
}

type Completer interface {
	Stream(ctx context.Context, history []model.Turn, w *stream.Writer) error
}

// Branch names the path a turn took.
type Branch string

const (
	BranchModerationError Branch = "moderation_error"
	BranchDenied          Branch = "denied"
	BranchAcknowledge     Branch = "acknowledge"
	BranchAnalyze         Branch = "analyze"
	BranchComplete        Branch = "complete"
)

type Orchestrator struct {
	screener  Screener
	analyzer  Analyzer
	completer Completer
	archive   repository.TranscriptRepository
	logger    zerolog.Logger
}

// New builds an orchestrator. archive may be nil to disable transcripts.
func New(screener Screener, analyzer Analyzer, completer Completer, archive repository.TranscriptRepository, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		screener:  screener,
		analyzer:  analyzer,
		completer: completer,
		archive:   archive,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Handle answers the newest turn of history through sink. Failures of the
// classifier, analyzers or model become user-visible text; the returned error
// is only about writing to sink.
func (o *Orchestrator) Handle(ctx context.Context, conversationID string, history []model.Turn, sink stream.Sink) (Branch, error) {
	started := time.Now()
	log := o.logger.With().Str("conversation_id", conversationID).Int("turns", len(history)).Logger()

	rec := &stream.Recorder{}
	w := stream.NewWriter(stream.Tee(sink, rec))

	branch, err := o.run(ctx, log, history, w)

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.Str("branch", string(branch)).Dur("elapsed", time.Since(started)).Msg("turn handled")

	if w.Finished() {
		o.save(ctx, log, conversationID, history, rec)
	}
	return branch, err
}

func (o *Orchestrator) run(ctx context.Context, log zerolog.Logger, history []model.Turn, w *stream.Writer) (Branch, error) {
	verdict, err := o.screener.Screen(ctx, history)
	if err != nil {
		log.Error().Err(err).Msg("moderation failed")
		return BranchModerationError, stream.WriteMessage(w, ModerationUnavailable)
	}
	if verdict.Flagged {
		log.Info().Msg("turn flagged by moderation")
		return BranchDenied, stream.WriteMessage(w, verdict.Message())
	}

	d := attachment.Track(history)
	log.Debug().
		Str("action", d.Action.String()).
		Int("anchor", d.Anchor).
		Int("follow_up", d.FollowUp).
		Bool("acknowledged", d.Acknowledged).
		Bool("intent", d.Intent).
		Msg("attachment decision")

	switch d.Action {
	case attachment.ActionAcknowledge:
		return BranchAcknowledge, stream.WriteMessage(w, attachment.AcknowledgmentMessage(d.Attachment))
	case attachment.ActionAnalyze:
		return BranchAnalyze, stream.WriteMessage(w, o.analyzer.Analyze(ctx, d.Attachment))
	}

	if err := o.completer.Stream(ctx, history, w); err != nil {
		log.Error().Err(err).Bool("stream_started", w.Started()).Msg("completion failed")
		return BranchComplete, recoverStream(w)
	}
	return BranchComplete, nil
}

// recoverStream ends a failed completion with an error block, or sends the
// error as the whole response when nothing was written yet.
func recoverStream(w *stream.Writer) error {
	switch {
	case !w.Started():
		return stream.WriteMessage(w, CompletionFailed)
	case w.Finished():
		return nil
	}
	if err := w.EndOpen(); err != nil {
		return err
	}
	if err := stream.WriteBlock(w, CompletionFailed); err != nil {
		return err
	}
	return w.Finish()
}

func (o *Orchestrator) save(ctx context.Context, log zerolog.Logger, conversationID string, history []model.Turn, rec *stream.Recorder) {
	if o.archive == nil || conversationID == "" {
		return
	}

	turns := make([]model.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, model.Turn{
		ID:    uuid.NewString(),
		Role:  model.RoleAssistant,
		Parts: replyParts(rec.Events),
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := o.archive.Save(ctx, conversationID, turns); err != nil {
		log.Warn().Err(err).Msg("transcript not archived")
	}
}

// replyParts rebuilds the assistant message from emitted events, one part
// per block.
func replyParts(events []stream.Event) []model.Part {
	var parts []model.Part
	var current *model.Part
	for _, e := range events {
		switch e.Type {
		case stream.EventTextStart:
			p := model.NewText("")
			current = &p
		case stream.EventReasoningStart:
			p := model.NewReasoning("")
			current = &p
		case stream.EventTextDelta, stream.EventReasoningDelta:
			if current != nil {
				current.Text += e.Delta
			}
		case stream.EventTextEnd, stream.EventReasoningEnd:
			if current != nil {
				parts = append(parts, *current)
				current = nil
			}
		}
	}
	return parts
}
