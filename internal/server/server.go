package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mediahaus/siterag/internal/retrieve"
	"github.com/mediahaus/siterag/pkg/models"
)

// Answerer produces a grounded answer for a conversation.
type Answerer interface {
	Ask(ctx context.Context, messages []models.ChatMessage) (*retrieve.Answer, error)
}

// Server exposes the chat endpoint over HTTP.
type Server struct {
	answerer Answerer
	httpSrv  *http.Server
}

// chatRequest is the chat endpoint request body.
type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

// errorResponse is what visitors see on failure. Internal details stay in
// the server logs.
type errorResponse struct {
	Error string `json:"error"`
}

const genericFailure = "Sorry, we hit a snag answering that. Please try again."

// New creates a chat server listening on addr.
func New(addr string, answerer Answerer) *Server {
	s := &Server{answerer: answerer}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("chat server listening", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the underlying handler (for tests).
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "messages are required"})
		return
	}

	answer, err := s.answerer.Ask(r.Context(), req.Messages)
	if err != nil {
		slog.Error("chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: genericFailure})
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
