package embeddings

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabfab/doc-explorer/config"
)

func TestNormalizeInputCollapsesFirstNewlineOnly(t *testing.T) {
	require.Equal(t, "a b\nc", NormalizeInput("a\nb\nc"))
	require.Equal(t, "no newline here", NormalizeInput("no newline here"))
	require.Equal(t, " leading", NormalizeInput("\nleading"))
}

func TestNewEmbedderOllama(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOllama,
			Model:     "nomic-embed-text",
			Dimension: 3,
		},
		OllamaHost: "http://localhost:11434",
	}

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	require.NotNil(t, embedder)
}

func TestNewEmbedderOpenAIMissingKey(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{
			Provider:  config.ProviderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
	}

	_, err := NewEmbedder(cfg)
	require.Error(t, err)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingConfig{Provider: "mystery"},
	}

	_, err := NewEmbedder(cfg)
	require.Error(t, err)
}
