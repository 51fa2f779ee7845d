// Package chat assembles a bounded context from ranked chunks, asks the
// generation capability, and post-processes the raw answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fabfab/doc-explorer/embeddings"
	"github.com/fabfab/doc-explorer/llm"
	"github.com/fabfab/doc-explorer/ranking"
)

// ErrEmptyContext reports that no chunks are available to answer from,
// before any external call is made.
var ErrEmptyContext = errors.New("no context available")

const systemInstruction = "Answer the question based only on this information and nothing else:"

// Result is the outcome of one answered question.
type Result struct {
	Answer   string
	TopChunk string
	Scored   []ranking.ScoredChunk
}

type Service struct {
	ranker *ranking.Ranker
	llm    llm.Client
	logger zerolog.Logger
}

func NewService(embedder embeddings.Embedder, llmClient llm.Client, logger zerolog.Logger) *Service {
	return &Service{
		ranker: ranking.NewRanker(embedder),
		llm:    llmClient,
		logger: logger,
	}
}

// Answer runs the full pipeline for one question: rank the chunks
// against the question, keep the top-K as context, generate, and trim
// the raw answer to a sentence boundary. An empty chunk set returns
// ErrEmptyContext without touching any external capability.
func (s *Service) Answer(ctx context.Context, question string, chunks []string, topK int) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("question cannot be empty")
	}
	if s.llm == nil {
		return Result{}, fmt.Errorf("llm client is not configured")
	}
	if len(chunks) == 0 {
		return Result{}, ErrEmptyContext
	}

	scored, err := s.ranker.Rank(ctx, question, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("rank chunks: %w", err)
	}

	top := ranking.SelectTop(scored, topK)
	if len(top) == 0 {
		return Result{}, ErrEmptyContext
	}

	s.logger.Debug().Int("chunks", len(chunks)).Int("selected", len(top)).
		Float64("top_score", top[0].Score).Msg("context assembled")

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemContext(top)},
		{Role: llm.RoleUser, Content: question},
	}

	raw, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	return Result{
		Answer:   TrimToSentence(raw),
		TopChunk: top[0].Text,
		Scored:   scored,
	}, nil
}

// buildSystemContext embeds the selected chunks, highest similarity
// first, into the system-level instruction. The question itself always
// travels separately as the user turn.
func buildSystemContext(top []ranking.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString(systemInstruction)
	for _, chunk := range top {
		sb.WriteString(" \n\n ")
		sb.WriteString(chunk.Text)
	}
	return sb.String()
}
