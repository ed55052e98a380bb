package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks invalid tunables. It is fatal at startup.
var ErrConfiguration = errors.New("invalid configuration")

// RAGConfig holds the pipeline tunables.
type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	RetrievalK       int     `yaml:"retrieval_k"`
	Temperature      float64 `yaml:"llm_temperature"`
	MaxDocumentBytes int     `yaml:"max_document_bytes"`
	MaxContextChars  int     `yaml:"max_context_chars"`
	MaxTokens        int     `yaml:"max_tokens"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type Config struct {
	RAG       RAGConfig       `yaml:"rag"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
}

// Load reads a config from path. A missing file yields the defaults.
// The file is decoded over a defaults-prefilled config, so absent fields
// fall back while explicit zero values (chunk_overlap: 0,
// llm_temperature: 0) are kept.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		RAG: RAGConfig{
			ChunkSize:        500,
			ChunkOverlap:     50,
			RetrievalK:       3,
			Temperature:      0.1,
			MaxDocumentBytes: 50_000_000,
			MaxContextChars:  4000,
			MaxTokens:        1024,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			BaseURL:     "https://openrouter.ai/api/v1",
			APIKeyEnv:   "OPENROUTER_API_KEY",
			Model:       "nomic-embed-text",
			TimeoutSecs: 30,
			BatchSize:   16,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			APIKeyEnv:   "OPENROUTER_API_KEY",
			Model:       "mistralai/mistral-7b-instruct",
			TimeoutSecs: 60,
		},
	}
}

// Validate rejects tunables the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrConfiguration, c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrConfiguration, c.RAG.ChunkOverlap)
	}
	if c.RAG.RetrievalK <= 0 {
		return fmt.Errorf("%w: retrieval_k must be positive, got %d", ErrConfiguration, c.RAG.RetrievalK)
	}
	if c.RAG.Temperature < 0 {
		return fmt.Errorf("%w: llm_temperature must not be negative, got %g", ErrConfiguration, c.RAG.Temperature)
	}
	if c.RAG.MaxDocumentBytes <= 0 {
		return fmt.Errorf("%w: max_document_bytes must be positive, got %d", ErrConfiguration, c.RAG.MaxDocumentBytes)
	}
	if c.RAG.MaxContextChars <= 0 {
		return fmt.Errorf("%w: max_context_chars must be positive, got %d", ErrConfiguration, c.RAG.MaxContextChars)
	}
	if c.Embedding.TimeoutSecs <= 0 || c.LLM.TimeoutSecs <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrConfiguration)
	}
	return nil
}

// APIKey resolves the embedding provider key from the environment.
func (e *EmbeddingConfig) APIKey() string {
	return os.Getenv(e.APIKeyEnv)
}

// APIKey resolves the completion provider key from the environment.
func (l *LLMConfig) APIKey() string {
	return os.Getenv(l.APIKeyEnv)
}
