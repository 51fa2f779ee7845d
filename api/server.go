// Package api exposes the question-answering session over HTTP. A
// question is submitted with one call and the answer polled with
// another, mirroring the pending/answered lifecycle of the session.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fabfab/doc-explorer/chat"
	"github.com/fabfab/doc-explorer/config"
	"github.com/fabfab/doc-explorer/embeddings"
	"github.com/fabfab/doc-explorer/llm"
	"github.com/fabfab/doc-explorer/session"
)

// Server exposes HTTP handlers around one long-lived session.
type Server struct {
	cfg     config.Config
	logger  zerolog.Logger
	session *session.Session
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type documentRequest struct {
	Text string `json:"text"`
}

type documentResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

type configRequest struct {
	ChunkSize *int `json:"chunkSize"`
	TopK      *int `json:"topK"`
}

type configResponse struct {
	ChunkSize int `json:"chunkSize"`
	TopK      int `json:"topK"`
	Chunks    int `json:"chunks"`
}

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	State    string `json:"state"`
	Answer   string `json:"answer"`
	TopChunk string `json:"topChunk"`
}

// New wires the embedding and generation providers into a fresh session
// and returns a Server ready to serve the HTTP API.
func New(cfg config.Config, logger zerolog.Logger) (*Server, error) {
	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	svc := chat.NewService(embedder, llmClient, logger)
	sess, err := session.New(svc, cfg.Session, logger)
	if err != nil {
		return nil, fmt.Errorf("session setup: %w", err)
	}

	s := &Server{cfg: cfg, logger: logger, session: sess}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/document", s.handleDocument)
	mux.HandleFunc("/v1/config", s.handleConfig)
	mux.HandleFunc("/v1/ask", s.handleAsk)
	mux.HandleFunc("/v1/answer", s.handleAnswer)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	s.session.SetDocument(req.Text)
	s.writeJSON(w, http.StatusOK, documentResponse{
		Message: "document loaded",
		Chunks:  len(s.session.Chunks()),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req configRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.ChunkSize != nil {
		if err := s.session.SetChunkSize(*req.ChunkSize); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.TopK != nil {
		if err := s.session.SetTopK(*req.TopK); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, configResponse{
		ChunkSize: s.session.ChunkSize(),
		TopK:      s.session.TopK(),
		Chunks:    len(s.session.Chunks()),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	// The request returns as soon as the question is submitted; clients
	// poll /v1/answer. The session discards results of questions that a
	// newer submission has superseded.
	go func(question string) {
		if _, err := s.session.Ask(context.Background(), question); err != nil && !errors.Is(err, session.ErrSuperseded) {
			s.logger.Error().Err(err).Msg("ask failed")
		}
	}(req.Question)

	s.writeJSON(w, http.StatusAccepted, messageResponse{Message: "question submitted"})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, answerResponse{
		State:    s.session.State().String(),
		Answer:   s.session.Answer(),
		TopChunk: s.session.TopChunk(),
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Err(err).Msg("request failed")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
