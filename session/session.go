// Package session owns the mutable state of one question-answering
// session: the current document, its chunk set, the retrieval settings,
// and the lifecycle of the most recent question.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fabfab/doc-explorer/chat"
	"github.com/fabfab/doc-explorer/config"
	"github.com/fabfab/doc-explorer/ingestion"
)

// ErrSuperseded reports that a question finished after a newer one was
// submitted; its result has been discarded.
var ErrSuperseded = errors.New("question superseded by a newer one")

// Sentinel answer strings shown before and during a question.
const (
	AnswerUnanswered = "Nothing asked yet..."
	AnswerPending    = "Loading..."
)

type State int

const (
	StateIdle State = iota
	StatePending
	StateAnswered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateAnswered:
		return "answered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Answerer runs the retrieval-and-generation pipeline for one question.
type Answerer interface {
	Answer(ctx context.Context, question string, chunks []string, topK int) (chat.Result, error)
}

// Session is safe for concurrent use; all state lives behind one mutex
// and only the latest submitted question may commit its result. Every
// Ask carries a fresh token, and a pipeline whose token is no longer
// current discards its outcome instead of overwriting newer state.
type Session struct {
	mu       sync.Mutex
	answerer Answerer
	logger   zerolog.Logger

	document  string
	chunks    []string
	chunkSize int
	topK      int

	state    State
	question string
	answer   string
	topChunk string
	err      error
	token    uuid.UUID
}

func New(answerer Answerer, cfg config.SessionConfig, logger zerolog.Logger) (*Session, error) {
	if answerer == nil {
		return nil, fmt.Errorf("answerer is not configured")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be a positive integer, got %d", cfg.ChunkSize)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("top-k must be a positive integer, got %d", cfg.TopK)
	}

	return &Session{
		answerer:  answerer,
		logger:    logger,
		chunkSize: cfg.ChunkSize,
		topK:      cfg.TopK,
		state:     StateIdle,
	}, nil
}

// SetDocument replaces the current document wholesale and regenerates
// the chunk set under the current chunk size. The last answer is left
// untouched.
func (s *Session) SetDocument(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = text
	s.chunks = ingestion.Split(text, s.chunkSize)
	s.logger.Info().Int("chunks", len(s.chunks)).Int("chunk_size", s.chunkSize).Msg("document loaded")
}

// SetChunkSize changes the chunk width and regenerates the chunk set
// from the current document.
func (s *Session) SetChunkSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("chunk size must be a positive integer, got %d", size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkSize = size
	s.chunks = ingestion.Split(s.document, s.chunkSize)
	return nil
}

// SetTopK changes how many chunks are kept as context. It takes effect
// on the next question; nothing is re-ranked immediately.
func (s *Session) SetTopK(k int) error {
	if k <= 0 {
		return fmt.Errorf("top-k must be a positive integer, got %d", k)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topK = k
	return nil
}

// Ask submits a question and blocks until it is answered, fails, or is
// superseded by a later question. With no chunks available it
// short-circuits back to the unanswered sentinel without any external
// call. When a later question wins the race, the stale result is
// discarded and ErrSuperseded returned.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	token := uuid.New()
	s.token = token
	s.question = question

	if len(s.chunks) == 0 {
		s.state = StateIdle
		s.answer = ""
		s.topChunk = ""
		s.err = nil
		s.mu.Unlock()
		return AnswerUnanswered, nil
	}

	s.state = StatePending
	chunks := make([]string, len(s.chunks))
	copy(chunks, s.chunks)
	topK := s.topK
	s.mu.Unlock()

	result, err := s.answerer.Answer(ctx, question, chunks, topK)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != token {
		s.logger.Debug().Str("question", question).Msg("discarding superseded result")
		return "", ErrSuperseded
	}

	if err != nil {
		s.state = StateFailed
		s.err = err
		s.logger.Error().Err(err).Str("question", question).Msg("question failed")
		return "", err
	}

	s.state = StateAnswered
	s.answer = result.Answer
	s.topChunk = result.TopChunk
	s.err = nil
	return s.answer, nil
}

// Answer reports the user-visible answer for the current state.
func (s *Session) Answer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePending:
		return AnswerPending
	case StateAnswered:
		return s.answer
	case StateFailed:
		return "Failed to answer: " + s.err.Error()
	default:
		return AnswerUnanswered
	}
}

// TopChunk reports the highest-ranked supporting chunk, with the same
// sentinel passthrough the answer uses while nothing has been answered.
func (s *Session) TopChunk() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePending:
		return AnswerPending
	case StateAnswered:
		return s.topChunk
	default:
		return AnswerUnanswered
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure behind a StateFailed session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// Chunks returns a copy of the current chunk set.
func (s *Session) Chunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks := make([]string, len(s.chunks))
	copy(chunks, s.chunks)
	return chunks
}

func (s *Session) ChunkSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkSize
}

func (s *Session) TopK() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topK
}
