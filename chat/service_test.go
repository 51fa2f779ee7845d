package chat

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/doc-explorer/llm"
)

type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

type stubLLM struct {
	answer   string
	err      error
	calls    int
	messages []llm.Message
}

func (s *stubLLM) Generate(_ context.Context, messages []llm.Message) (string, error) {
	s.calls++
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func unitVec(score float64) []float32 {
	return []float32{float32(score), float32(math.Sqrt(1 - score*score))}
}

func TestAnswerAssemblesContextAndTrims(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"what?": {1, 0},
		"c0":    unitVec(0.2),
		"c1":    unitVec(0.9),
		"c2":    unitVec(0.5),
	}}
	generator := &stubLLM{answer: "An answer. And a cut-off fragment without"}

	svc := NewService(embedder, generator, zerolog.Nop())
	result, err := svc.Answer(context.Background(), "what?", []string{"c0", "c1", "c2"}, 3)
	require.NoError(t, err)

	require.Equal(t, "An answer.", result.Answer)
	require.Equal(t, "c1", result.TopChunk)
	require.Len(t, result.Scored, 3)

	require.Len(t, generator.messages, 2)
	system := generator.messages[0]
	user := generator.messages[1]
	require.Equal(t, llm.RoleSystem, system.Role)
	require.Equal(t, llm.RoleUser, user.Role)
	require.Equal(t, "what?", user.Content)

	require.True(t, strings.HasPrefix(system.Content, systemInstruction))
	// Chunks appear in descending-similarity order.
	require.Less(t, strings.Index(system.Content, "c1"), strings.Index(system.Content, "c2"))
	require.Less(t, strings.Index(system.Content, "c2"), strings.Index(system.Content, "c0"))
}

func TestAnswerRespectsTopK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"q":     {1, 0},
		"best":  unitVec(0.9),
		"next":  unitVec(0.5),
		"worst": unitVec(0.1),
	}}
	generator := &stubLLM{answer: "Fine."}

	svc := NewService(embedder, generator, zerolog.Nop())
	_, err := svc.Answer(context.Background(), "q", []string{"worst", "best", "next"}, 2)
	require.NoError(t, err)

	system := generator.messages[0].Content
	require.Contains(t, system, "best")
	require.Contains(t, system, "next")
	require.NotContains(t, system, "worst")
}

func TestAnswerEmptyChunkSetShortCircuits(t *testing.T) {
	embedder := &stubEmbedder{}
	generator := &stubLLM{answer: "should never be called"}

	svc := NewService(embedder, generator, zerolog.Nop())
	_, err := svc.Answer(context.Background(), "anything?", nil, 3)
	require.ErrorIs(t, err, ErrEmptyContext)

	require.Zero(t, embedder.calls, "no embedding call may happen without context")
	require.Zero(t, generator.calls, "no generation call may happen without context")
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubLLM{}, zerolog.Nop())
	_, err := svc.Answer(context.Background(), "   ", []string{"chunk"}, 3)
	require.Error(t, err)
}

func TestAnswerGenerationFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	svc := NewService(&stubEmbedder{}, &stubLLM{err: boom}, zerolog.Nop())

	_, err := svc.Answer(context.Background(), "q", []string{"chunk"}, 3)
	require.ErrorIs(t, err, boom)
}
