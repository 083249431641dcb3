// Package attachment decides, from the history alone, what to do with the
// newest file a user has sent.
package attachment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/m2tx/chat_orchestrator/internal/model"
)

// Action is what the orchestrator should do with the turn.
type Action int

const (
	// ActionComplete hands the turn to the completion engine.
	ActionComplete Action = iota
	// ActionAcknowledge sends the one-time receipt and menu.
	ActionAcknowledge
	// ActionAnalyze runs the content analyzer on the anchor attachment.
	ActionAnalyze
)

func (a Action) String() string {
	switch a {
	case ActionAcknowledge:
		return "acknowledge"
	case ActionAnalyze:
		return "analyze"
	default:
		return "complete"
	}
}

// intentPattern is the single place analysis requests are recognized. The bare
// "3" matches the menu choice but also any text containing the digit.
var intentPattern = regexp.MustCompile(`(?i)analy[sz]|analysis|\bocr\b|3`)

// Decision is the result of Track. Anchor and FollowUp are -1 when absent.
type Decision struct {
	Action       Action
	Anchor       int
	FollowUp     int
	Acknowledged bool
	Intent       bool
	Attachment   model.Attachment
}

// HasIntent reports whether text asks for the attachment to be analyzed.
func HasIntent(text string) bool {
	return intentPattern.MatchString(text)
}

// Marker is the text whose presence in a later assistant turn means the file
// has already been acknowledged.
func Marker(fileName string) string {
	return fmt.Sprintf("Received \"%s\"", fileName)
}

// Track scans the history and decides how to treat its newest attachment.
func Track(history []model.Turn) Decision {
	d := Decision{Action: ActionComplete, Anchor: -1, FollowUp: -1}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].HasAttachment() {
			d.Anchor = i
			break
		}
	}
	if d.Anchor < 0 {
		return d
	}

	d.Attachment = *history[d.Anchor].Metadata
	d.Acknowledged = acknowledged(history[d.Anchor+1:], d.Attachment.Name())
	d.FollowUp = model.LastIndex(history, model.RoleUser, d.Anchor+1)
	if d.FollowUp >= 0 {
		d.Intent = HasIntent(history[d.FollowUp].Text())
	}

	switch {
	case d.Intent:
		d.Action = ActionAnalyze
	case !d.Acknowledged:
		d.Action = ActionAcknowledge
	default:
		d.Action = ActionComplete
	}

	return d
}

func acknowledged(after []model.Turn, fileName string) bool {
	marker := Marker(fileName)
	for _, t := range after {
		if t.Role != model.RoleAssistant {
			continue
		}
		for _, p := range t.Parts {
			if p.Type == model.PartText && strings.Contains(p.Text, marker) {
				return true
			}
		}
	}
	return false
}
