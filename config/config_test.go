package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, ProviderOpenAI, cfg.Embeddings.Provider)
	require.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	require.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	require.Equal(t, 65, cfg.LLM.MaxTokens)
	require.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	require.Equal(t, 500, cfg.Session.ChunkSize)
	require.Equal(t, 3, cfg.Session.TopK)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("llm:\n  provider: ollama\n  model: llama3.1:8b\nsession:\n  chunk_size: 200\n  top_k: 5\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ProviderOllama, cfg.LLM.Provider)
	require.Equal(t, "llama3.1:8b", cfg.LLM.Model)
	require.Equal(t, 200, cfg.Session.ChunkSize)
	require.Equal(t, 5, cfg.Session.TopK)
	// Unset fields still get defaults.
	require.Equal(t, 65, cfg.LLM.MaxTokens)
	require.Equal(t, ProviderOpenAI, cfg.Embeddings.Provider)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "nomic-embed-text")
	t.Setenv("CHUNK_SIZE", "128")
	t.Setenv("TOP_K", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	require.Equal(t, 128, cfg.Session.ChunkSize)
	require.Equal(t, 7, cfg.Session.TopK)
}

func TestValidateRejectsNonPositiveSettings(t *testing.T) {
	cfg := Config{Session: SessionConfig{ChunkSize: 0, TopK: 3}}
	require.Error(t, Validate(cfg))

	cfg = Config{Session: SessionConfig{ChunkSize: 500, TopK: 0}}
	require.Error(t, Validate(cfg))

	cfg = Config{Session: SessionConfig{ChunkSize: 500, TopK: 3}}
	require.NoError(t, Validate(cfg))
}
