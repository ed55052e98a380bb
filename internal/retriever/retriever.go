package retriever

import (
	"context"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/models"
	"docqa/internal/vectorindex"
)

// Retrieve embeds the question as a single-item batch and returns the k
// most similar indexed chunks. Values of k larger than the index are
// clamped by the index; embedding and index errors pass through untouched.
func Retrieve(ctx context.Context, question string, idx *vectorindex.Index, embedder embedding.Embedder, k int) (models.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: retrieval k must be positive, got %d", config.ErrConfiguration, k)
	}

	vectors, err := embedder.EmbedDocuments(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", embedding.ErrEmbedding, len(vectors))
	}

	return idx.Query(ctx, vectors[0], k)
}
