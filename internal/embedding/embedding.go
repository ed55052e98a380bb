package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// ErrEmbedding marks a failure of the embedding provider: unreachable
// model, oversized input, timeout.
var ErrEmbedding = errors.New("embedding failed")

// Embedder turns text into fixed-length vectors. Implementations are
// stateless and may be shared across sessions.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New selects the configured embedding provider.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", config.ErrConfiguration, cfg.Provider)
	}
}

// NewOpenAIEmbedder builds an embedder against an OpenAI-compatible API.
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.APIKey(), "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder builds an embedder against a local ollama server.
func NewOllamaEmbedder(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// Service wraps an Embedder with batching, per-call timeouts, and error
// classification. It satisfies Embedder itself.
type Service struct {
	embedder  Embedder
	batchSize int
	timeout   time.Duration
}

func NewService(embedder Embedder, cfg *config.EmbeddingConfig) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Service{
		embedder:  embedder,
		batchSize: batchSize,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

// EmbedDocuments embeds texts in configured batch sizes, preserving order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return s.EmbedDocumentsWithProgress(ctx, texts, nil)
}

// EmbedDocumentsWithProgress reports completed counts after each batch so
// callers can surface indexing progress.
func (s *Service) EmbedDocumentsWithProgress(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += s.batchSize {
		end := min(i+s.batchSize, len(texts))
		batch := texts[i:end]

		batchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		embedded, err := s.embedder.EmbedDocuments(batchCtx, batch)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", ErrEmbedding, i, end, err)
		}
		if len(embedded) != len(batch) {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts", ErrEmbedding, len(embedded), len(batch))
		}
		vectors = append(vectors, embedded...)

		log.Debug().Int("done", end).Int("total", len(texts)).Msg("embedded batch")
		if progress != nil {
			progress(end, len(texts))
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vector, err := s.embedder.EmbedQuery(queryCtx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	return vector, nil
}
