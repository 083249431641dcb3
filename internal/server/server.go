package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/m2tx/chat_orchestrator/internal/orchestrator"
	"github.com/m2tx/chat_orchestrator/internal/repository"
	"github.com/m2tx/chat_orchestrator/internal/stream"
	"github.com/rs/zerolog"
)

// ConversationHeader carries the conversation id back to the client.
const ConversationHeader = "X-Conversation-Id"

const maxBodyBytes = 32 << 20

// Pipeline answers one chat turn.
type Pipeline interface {
	Handle(ctx context.Context, conversationID string, history []model.Turn, sink stream.Sink) (orchestrator.Branch, error)
}

type Server struct {
	pipeline       Pipeline
	archive        repository.TranscriptRepository
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// New builds the HTTP layer. archive may be nil.
func New(pipeline Pipeline, archive repository.TranscriptRepository, requestTimeout time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		pipeline:       pipeline,
		archive:        archive,
		requestTimeout: requestTimeout,
		logger:         logger.With().Str("component", "server").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.chat)
	mux.HandleFunc("GET /api/transcripts/{id}", s.getTranscript)
	mux.HandleFunc("DELETE /api/transcripts/{id}", s.deleteTranscript)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logRequests(mux)
}

type chatRequest struct {
	ID       string       `json:"id"`
	Messages []model.Turn `json:"messages"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := model.Validate(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conversationID := req.ID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	w.Header().Set(ConversationHeader, conversationID)

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	if _, err := s.pipeline.Handle(ctx, conversationID, req.Messages, stream.NewSSESink(w)); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("response stream interrupted")
	}
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "transcripts are not enabled")
		return
	}

	id := r.PathValue("id")
	turns, err := s.archive.Load(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", id).Msg("load transcript")
		writeError(w, http.StatusInternalServerError, "could not load transcript")
		return
	}
	if turns == nil {
		writeError(w, http.StatusNotFound, "transcript not found")
		return
	}

	writeJSON(w, http.StatusOK, chatRequest{ID: id, Messages: turns})
}

func (s *Server) deleteTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "transcripts are not enabled")
		return
	}

	id := r.PathValue("id")
	if err := s.archive.Delete(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", id).Msg("delete transcript")
		writeError(w, http.StatusInternalServerError, "could not delete transcript")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
