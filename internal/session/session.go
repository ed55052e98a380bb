package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/extract"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/retriever"
	"docqa/internal/splitter"
	"docqa/internal/vectorindex"
)

type State string

const (
	StateEmpty    State = "empty"
	StateIndexing State = "indexing"
	StateReady    State = "ready"
)

var (
	// ErrBusy rejects load or ask calls while a build is in progress.
	// Callers must wait for the current transition to resolve.
	ErrBusy = errors.New("indexing in progress")
	// ErrNotReady rejects ask calls before any document is loaded.
	ErrNotReady = errors.New("no document loaded")
)

// progressEmbedder is implemented by embedders that can report per-batch
// progress during document embedding.
type progressEmbedder interface {
	EmbedDocumentsWithProgress(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error)
}

// Session owns one document's pipeline: its text, its vector index, and
// its answer generator. The embedder and completion client are shared,
// stateless collaborators; everything else is exclusive to the session
// and is discarded when the document is replaced.
type Session struct {
	mu        sync.Mutex
	state     State
	cfg       *config.Config
	embedder  embedding.Embedder
	generator *rag.Generator
	index     *vectorindex.Index
	document  models.Document
	chunks    int
	progress  func(done, total int)
}

func New(cfg *config.Config, embedder embedding.Embedder, client llmservice.CompletionClient) *Session {
	return &Session{
		state:     StateEmpty,
		cfg:       cfg,
		embedder:  embedder,
		generator: rag.NewGenerator(client, &cfg.RAG),
		index:     vectorindex.New(),
	}
}

// OnProgress registers a hook invoked with embedding progress during
// LoadDocument. Intended for UI surfaces; the core never blocks on it.
func (s *Session) OnProgress(fn func(done, total int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = fn
}

// LoadDocument extracts, chunks, embeds and indexes the uploaded bytes,
// replacing any previously loaded document. Any failure leaves the
// session Empty with nothing retained.
func (s *Session) LoadDocument(ctx context.Context, data []byte, filename string) error {
	s.mu.Lock()
	if s.state == StateIndexing {
		s.mu.Unlock()
		return ErrBusy
	}
	s.index.Teardown()
	s.document = models.Document{}
	s.chunks = 0
	s.state = StateIndexing
	progress := s.progress
	s.mu.Unlock()

	doc, nChunks, err := s.build(ctx, data, filename, progress)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.index.Teardown()
		s.state = StateEmpty
		return err
	}
	s.document = doc
	s.chunks = nChunks
	s.state = StateReady
	log.Info().Str("source", doc.Source).Int("chunks", nChunks).Msg("document indexed")
	return nil
}

func (s *Session) build(ctx context.Context, data []byte, filename string, progress func(done, total int)) (models.Document, int, error) {
	doc, err := extract.Extract(data, filename, s.cfg.RAG.MaxDocumentBytes)
	if err != nil {
		return models.Document{}, 0, err
	}

	chunks, err := splitter.SplitDocument(doc, s.cfg.RAG.ChunkSize, s.cfg.RAG.ChunkOverlap)
	if err != nil {
		return models.Document{}, 0, err
	}

	stats := splitter.Stats(chunks)
	log.Debug().
		Int("chunks", stats.TotalChunks).
		Int("chars", stats.TotalChars).
		Float64("avg_chunk_size", stats.AvgChunkSize).
		Msg("document chunked")

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	if pe, ok := s.embedder.(progressEmbedder); ok && progress != nil {
		vectors, err = pe.EmbedDocumentsWithProgress(ctx, texts, progress)
	} else {
		vectors, err = s.embedder.EmbedDocuments(ctx, texts)
	}
	if err != nil {
		return models.Document{}, 0, err
	}
	if len(vectors) != len(chunks) {
		return models.Document{}, 0, embedding.ErrEmbedding
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i := range chunks {
		entries[i] = vectorindex.Entry{Chunk: chunks[i], Embedding: vectors[i]}
	}
	if err := s.index.Build(ctx, entries); err != nil {
		return models.Document{}, 0, err
	}
	return doc, len(chunks), nil
}

// Ask answers a question against the loaded document. Query-phase
// failures never mutate the index; the session stays Ready and the caller
// may retry.
func (s *Session) Ask(ctx context.Context, question string) (models.Answer, error) {
	s.mu.Lock()
	switch s.state {
	case StateIndexing:
		s.mu.Unlock()
		return models.Answer{Status: models.StatusFailure}, ErrBusy
	case StateEmpty:
		s.mu.Unlock()
		return models.Answer{Status: models.StatusFailure}, ErrNotReady
	}
	idx := s.index
	k := s.cfg.RAG.RetrievalK
	s.mu.Unlock()

	retrieved, err := retriever.Retrieve(ctx, question, idx, s.embedder, k)
	if err != nil {
		if errors.Is(err, vectorindex.ErrNotIndexed) {
			return models.Answer{
				Text:   models.NoContextMessage,
				Status: models.StatusFailure,
			}, rag.ErrNoContext
		}
		return models.Answer{Status: models.StatusFailure}, err
	}

	return s.generator.Generate(ctx, question, retrieved)
}

// Reset discards the document and index and returns the session to Empty.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Teardown()
	s.document = models.Document{}
	s.chunks = 0
	s.state = StateEmpty
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionInfo describes the loaded document, mirroring what a UI shows
// next to the question box.
type SessionInfo struct {
	State          State
	Source         string
	Chunks         int
	IndexedEntries int
}

func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		State:          s.state,
		Source:         s.document.Source,
		Chunks:         s.chunks,
		IndexedEntries: s.index.Len(),
	}
}
