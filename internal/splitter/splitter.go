package splitter

import (
	"fmt"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Split walks the text as a fixed-size rune window with overlap.
// Each chunk spans [offset, offset+chunkSize) clipped to the text length,
// and the offset advances by chunkSize-overlap. Offsets and lengths are
// rune counts, so multi-byte text chunks the same way as ASCII.
func Split(text string, chunkSize, overlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", config.ErrConfiguration, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size), got %d", config.ErrConfiguration, overlap)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := chunkSize - overlap
	var chunks []models.Chunk
	for offset, index := 0, 0; ; index++ {
		end := offset + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			Text:   string(runes[offset:end]),
			Offset: offset,
			Length: end - offset,
			Index:  index,
		})
		if end == len(runes) {
			break
		}
		offset += step
	}
	return chunks, nil
}

// SplitDocument chunks a document's text and stamps each chunk with the
// document's source filename.
func SplitDocument(doc models.Document, chunkSize, overlap int) ([]models.Chunk, error) {
	chunks, err := Split(doc.Text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Source = doc.Source
	}
	return chunks, nil
}

// ChunkStats summarizes a chunked document.
type ChunkStats struct {
	TotalChunks  int
	TotalChars   int
	AvgChunkSize float64
}

func Stats(chunks []models.Chunk) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}
	total := 0
	for _, c := range chunks {
		total += c.Length
	}
	return ChunkStats{
		TotalChunks:  len(chunks),
		TotalChars:   total,
		AvgChunkSize: float64(total) / float64(len(chunks)),
	}
}
