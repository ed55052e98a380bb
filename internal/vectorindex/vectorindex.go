package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docqa/internal/helper"
	"docqa/internal/models"
)

var (
	// ErrIndexBuild marks a failed build; no partial index survives it.
	ErrIndexBuild = errors.New("index build failed")
	// ErrNotIndexed marks a query against an empty or unbuilt index.
	ErrNotIndexed = errors.New("no document indexed")
)

// Entry is one chunk plus its embedding, ready for indexing.
type Entry struct {
	Chunk     models.Chunk
	Embedding []float32
}

// Index holds the entries of exactly one document in process memory.
// Building replaces any prior contents; nothing is persisted.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	size       int
}

func New() *Index {
	return &Index{db: chromem.NewDB()}
}

// Build replaces the index contents with the given entries, preserving
// chunk order. An empty entry set fails: a document must yield at least
// one chunk.
func (ix *Index) Build(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrIndexBuild)
	}

	ix.Teardown()

	name := "docqa_" + helper.ShortID()
	collection, err := ix.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("chunk-%d", e.Chunk.Index),
			Content:   e.Chunk.Text,
			Embedding: e.Embedding,
			Metadata: map[string]string{
				"chunk_index": strconv.Itoa(e.Chunk.Index),
				"offset":      strconv.Itoa(e.Chunk.Offset),
				"length":      strconv.Itoa(e.Chunk.Length),
				"source":      e.Chunk.Source,
			},
		}
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		if delErr := ix.db.DeleteCollection(name); delErr != nil {
			log.Warn().Err(delErr).Str("collection", name).Msg("failed to drop collection after build error")
		}
		return fmt.Errorf("%w: %v", ErrIndexBuild, err)
	}

	ix.collection = collection
	ix.name = name
	ix.size = len(entries)
	log.Debug().Str("collection", name).Int("entries", ix.size).Msg("index built")
	return nil
}

// Query returns the k stored entries most similar to the vector, ordered
// by descending cosine similarity with ties broken by ascending chunk
// index. k larger than the index is clamped.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) (models.QueryResult, error) {
	if ix.collection == nil || ix.size == 0 {
		return nil, ErrNotIndexed
	}
	if k > ix.size {
		k = ix.size
	}

	results, err := ix.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	out := make(models.QueryResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{
			Chunk:      chunkFromResult(r),
			Similarity: r.Similarity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Chunk.Index < out[j].Chunk.Index
	})
	return out, nil
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	return ix.size
}

// Teardown discards the current contents. The index can be rebuilt.
func (ix *Index) Teardown() {
	if ix.collection == nil {
		return
	}
	if err := ix.db.DeleteCollection(ix.name); err != nil {
		log.Warn().Err(err).Str("collection", ix.name).Msg("failed to drop collection")
	}
	ix.collection = nil
	ix.name = ""
	ix.size = 0
}

func chunkFromResult(r chromem.Result) models.Chunk {
	index, _ := strconv.Atoi(r.Metadata["chunk_index"])
	offset, _ := strconv.Atoi(r.Metadata["offset"])
	length, _ := strconv.Atoi(r.Metadata["length"])
	return models.Chunk{
		Text:   r.Content,
		Offset: offset,
		Length: length,
		Index:  index,
		Source: r.Metadata["source"],
	}
}
