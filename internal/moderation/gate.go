package moderation

import (
	"context"

	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/pkg/errors"
)

// DefaultDenial is sent when the classifier flags input without a message of its own.
const DefaultDenial = "Sorry, I can't help with that request because it goes against the usage policy."

// Verdict is the outcome of screening one turn.
type Verdict struct {
	Flagged       bool
	DenialMessage string
}

// Message returns the denial text to show the user.
func (v Verdict) Message() string {
	if v.DenialMessage == "" {
		return DefaultDenial
	}
	return v.DenialMessage
}

// Classifier decides whether a piece of user text violates policy.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Verdict, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Verdict, error) {
	return f(ctx, text)
}

// Nop never flags anything.
var Nop = ClassifierFunc(func(context.Context, string) (Verdict, error) {
	return Verdict{}, nil
})

// Gate screens the newest user turn of a conversation.
type Gate struct {
	classifier Classifier
}

func NewGate(classifier Classifier) *Gate {
	if classifier == nil {
		classifier = Nop
	}
	return &Gate{classifier: classifier}
}

// Screen classifies the text of the newest user turn. Histories without a user
// turn, or whose newest user turn has no text, pass without a classifier call.
func (g *Gate) Screen(ctx context.Context, history []model.Turn) (Verdict, error) {
	i := model.LastIndex(history, model.RoleUser, 0)
	if i < 0 {
		return Verdict{}, nil
	}

	text := history[i].Text()
	if text == "" {
		return Verdict{}, nil
	}

	v, err := g.classifier.Classify(ctx, text)
	if err != nil {
		return Verdict{}, errors.Wrap(err, "moderation: classify")
	}
	return v, nil
}
