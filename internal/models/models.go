package models

// Document is the raw text extracted from one uploaded file.
type Document struct {
	Text   string
	Source string
	Size   int
}

// Chunk is a contiguous rune window of a document's text.
// Offset and Length are rune counts, not byte counts.
type Chunk struct {
	Text   string
	Offset int
	Length int
	Index  int
	Source string
}

// SearchResult pairs a chunk with its similarity to a query vector.
type SearchResult struct {
	Chunk      Chunk
	Similarity float32
}

// QueryResult is ordered by descending similarity, ties broken by
// ascending chunk index.
type QueryResult []SearchResult

type AnswerStatus string

const (
	StatusSuccess AnswerStatus = "success"
	StatusPartial AnswerStatus = "partial"
	StatusFailure AnswerStatus = "failure"
)

// Answer is the generated response plus the chunks that were actually
// included in the prompt, for attribution.
type Answer struct {
	Text          string
	Sources       []Chunk
	Status        AnswerStatus
	DroppedChunks int
}
