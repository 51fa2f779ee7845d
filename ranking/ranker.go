package ranking

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fabfab/doc-explorer/embeddings"
)

// ScoredChunk pairs a chunk with its similarity score against the
// current query. Index is the chunk's position in the original
// sequence.
type ScoredChunk struct {
	Index int
	Text  string
	Score float64
}

// Ranker orders chunks by similarity to a query.
type Ranker struct {
	embedder embeddings.Embedder
}

func NewRanker(embedder embeddings.Embedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank embeds the query once and every chunk concurrently, scores each
// chunk against the query, and returns the chunks sorted by descending
// similarity. Ties keep original chunk order (stable sort), so top-K
// selection is reproducible. Any embedding or similarity failure fails
// the whole operation; partial results are never returned.
func (r *Ranker) Rank(ctx context.Context, query string, chunks []string) ([]ScoredChunk, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("embedder is not configured")
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors := make([][]float32, len(chunks))
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range chunks {
		i := i
		group.Go(func() error {
			vec, err := r.embedder.Embed(groupCtx, chunks[i])
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	scored := make([]ScoredChunk, len(chunks))
	for i := range chunks {
		score, err := Cosine(vectors[i], queryVec)
		if err != nil {
			return nil, fmt.Errorf("score chunk %d: %w", i, err)
		}
		scored[i] = ScoredChunk{Index: i, Text: chunks[i], Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}

// SelectTop returns the first k entries of an already sorted scored
// sequence, or fewer if the sequence is shorter.
func SelectTop(scored []ScoredChunk, k int) []ScoredChunk {
	if k < 0 {
		k = 0
	}
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
