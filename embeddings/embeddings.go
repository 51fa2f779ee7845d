// Package embeddings turns text into vector representations via an
// external embedding capability.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fabfab/doc-explorer/config"
)

// ErrEmbedding marks a failed call to the external embedding capability.
// Callers decide on retry policy; none is performed here.
var ErrEmbedding = errors.New("embedding request failed")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Options struct {
	Provider  string
	Model     string
	Dimension int

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewEmbedder(cfg config.Config) (Embedder, error) {
	opts := Options{
		Provider:      cfg.Embeddings.Provider,
		Model:         cfg.Embeddings.Model,
		Dimension:     cfg.Embeddings.Dimension,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaEmbedder(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIEmbedder(opts), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}

// NormalizeInput collapses the first newline in the text to a space
// before it is sent to the provider. Only the first occurrence is
// replaced; later newlines pass through unchanged. Known limitation,
// kept for output parity.
func NormalizeInput(text string) string {
	return strings.Replace(text, "\n", " ", 1)
}
