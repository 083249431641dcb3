package repository

import (
	"context"

	"github.com/m2tx/chat_orchestrator/internal/model"
)

// TranscriptRepository archives finished conversation turns.
type TranscriptRepository interface {
	// Save persists the full transcript for a conversation, replacing any
	// previously stored one.
	Save(ctx context.Context, conversationID string, turns []model.Turn) error

	// Load returns nil, nil if the conversation was never archived.
	Load(ctx context.Context, conversationID string) ([]model.Turn, error)

	// Delete is a no-op if the conversation does not exist.
	Delete(ctx context.Context, conversationID string) error
}
