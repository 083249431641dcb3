package repository

import (
	"context"
	"sync"

	"github.com/m2tx/chat_orchestrator/internal/model"
)

// MemoryTranscriptRepository keeps transcripts in process memory. Like the
// MongoDB store it drops attachment contents.
type MemoryTranscriptRepository struct {
	mu          sync.RWMutex
	transcripts map[string][]model.Turn
}

func NewMemoryTranscriptRepository() *MemoryTranscriptRepository {
	return &MemoryTranscriptRepository{transcripts: make(map[string][]model.Turn)}
}

func (r *MemoryTranscriptRepository) Save(_ context.Context, conversationID string, turns []model.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[conversationID] = archived(turns)
	return nil
}

func (r *MemoryTranscriptRepository) Load(_ context.Context, conversationID string) ([]model.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns, ok := r.transcripts[conversationID]
	if !ok {
		return nil, nil
	}
	return append([]model.Turn(nil), turns...), nil
}

func (r *MemoryTranscriptRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transcripts, conversationID)
	return nil
}

func archived(turns []model.Turn) []model.Turn {
	out := make([]model.Turn, len(turns))
	for i, t := range turns {
		t.Parts = append([]model.Part(nil), t.Parts...)
		if t.Metadata != nil {
			meta := *t.Metadata
			meta.FileContent = ""
			t.Metadata = &meta
		}
		out[i] = t
	}
	return out
}
