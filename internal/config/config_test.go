package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("chunking defaults = %d/%d, want 500/50", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.RetrievalK != 3 {
		t.Errorf("retrieval_k default = %d, want 3", cfg.RAG.RetrievalK)
	}
	if cfg.RAG.Temperature != 0.1 {
		t.Errorf("llm_temperature default = %v, want 0.1", cfg.RAG.Temperature)
	}
	if cfg.RAG.MaxDocumentBytes != 50_000_000 {
		t.Errorf("max_document_bytes default = %d, want 50000000", cfg.RAG.MaxDocumentBytes)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("rag:\n  chunk_size: 200\n  chunk_overlap: 20\n  retrieval_k: 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.ChunkSize != 200 || cfg.RAG.ChunkOverlap != 20 || cfg.RAG.RetrievalK != 5 {
		t.Errorf("loaded rag config = %+v", cfg.RAG)
	}
	// untouched fields still get defaults
	if cfg.LLM.TimeoutSecs != 60 {
		t.Errorf("llm timeout default = %d, want 60", cfg.LLM.TimeoutSecs)
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("rag:\n  chunk_overlap: 0\n  llm_temperature: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.ChunkOverlap != 0 {
		t.Errorf("chunk_overlap = %d, want explicit 0 preserved", cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.Temperature != 0 {
		t.Errorf("llm_temperature = %v, want explicit 0 preserved", cfg.RAG.Temperature)
	}
	// absent fields still default
	if cfg.RAG.ChunkSize != 500 {
		t.Errorf("chunk_size = %d, want default 500", cfg.RAG.ChunkSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative chunk size", func(c *Config) { c.RAG.ChunkSize = -1 }},
		{"overlap >= chunk size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }},
		{"zero retrieval k", func(c *Config) { c.RAG.RetrievalK = -3 }},
		{"negative temperature", func(c *Config) { c.RAG.Temperature = -0.5 }},
		{"negative document cap", func(c *Config) { c.RAG.MaxDocumentBytes = -1 }},
		{"negative context budget", func(c *Config) { c.RAG.MaxContextChars = -1 }},
		{"zero embedder timeout", func(c *Config) { c.Embedding.TimeoutSecs = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v, want nil", err)
	}
}
