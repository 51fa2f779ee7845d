package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// EmbeddingConfig selects the embedding provider and model.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// LLMConfig selects the generation provider and its request caps.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
}

// SessionConfig holds the user-tunable retrieval settings.
type SessionConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	TopK      int `yaml:"top_k"`
}

type Config struct {
	Embeddings EmbeddingConfig `yaml:"embeddings"`
	LLM        LLMConfig       `yaml:"llm"`
	Session    SessionConfig   `yaml:"session"`

	ListenAddr    string `yaml:"listen_addr"`
	OllamaHost    string `yaml:"ollama_host"`
	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
}

// Load reads an optional YAML config file, applies defaults, and then
// lets environment variables override the result. A missing file is not
// an error; the defaults cover local use.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the session contract cannot accept.
func Validate(cfg Config) error {
	if cfg.Session.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be a positive integer, got %d", cfg.Session.ChunkSize)
	}
	if cfg.Session.TopK <= 0 {
		return fmt.Errorf("top-k must be a positive integer, got %d", cfg.Session.TopK)
	}
	return nil
}

func defaults() Config {
	return Config{
		Embeddings: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    "text-embedding-3-small",
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-3.5-turbo",
			MaxTokens:   65,
			Temperature: 0.7,
			TopP:        1,
		},
		Session: SessionConfig{
			ChunkSize: 500,
			TopK:      3,
		},
		ListenAddr: ":8080",
		OllamaHost: "http://localhost:11434",
	}
}

func applyDefaults(cfg *Config) {
	def := defaults()
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = def.Embeddings.Provider
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = def.Embeddings.Model
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = def.LLM.Temperature
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = def.LLM.TopP
	}
	if cfg.Session.ChunkSize == 0 {
		cfg.Session.ChunkSize = def.Session.ChunkSize
	}
	if cfg.Session.TopK == 0 {
		cfg.Session.TopK = def.Session.TopK
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = def.OllamaHost
	}
}

func applyEnv(cfg *Config) {
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.Embeddings.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embeddings.Provider)
	cfg.Embeddings.Model = getEnv("EMBEDDING_MODEL", cfg.Embeddings.Model)
	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.Session.ChunkSize = getEnvInt("CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.TopK = getEnvInt("TOP_K", cfg.Session.TopK)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
