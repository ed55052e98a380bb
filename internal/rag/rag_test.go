package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// stubClient records the prompt it was called with.
type stubClient struct {
	answer      string
	err         error
	calls       int
	lastPrompt  string
	temperature float64
	maxTokens   int
}

func (s *stubClient) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.temperature = temperature
	s.maxTokens = maxTokens
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newGenerator(client llmservice.CompletionClient, budget int) *Generator {
	return NewGenerator(client, &config.RAGConfig{
		Temperature:     0.1,
		MaxTokens:       256,
		MaxContextChars: budget,
	})
}

func result(index int, text string, sim float32) models.SearchResult {
	return models.SearchResult{
		Chunk:      models.Chunk{Text: text, Index: index, Length: len([]rune(text)), Source: "doc.txt"},
		Similarity: sim,
	}
}

func TestGenerate(t *testing.T) {
	client := &stubClient{answer: "42"}
	gen := newGenerator(client, 1000)

	retrieved := models.QueryResult{
		result(3, "most relevant", 0.9),
		result(1, "less relevant", 0.5),
	}
	answer, err := gen.Generate(context.Background(), "what is the answer?", retrieved)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer.Status != models.StatusSuccess {
		t.Errorf("Status = %v, want success", answer.Status)
	}
	if answer.Text != "42" {
		t.Errorf("Text = %q, want 42", answer.Text)
	}
	if len(answer.Sources) != 2 || answer.Sources[0].Index != 3 || answer.Sources[1].Index != 1 {
		t.Errorf("Sources = %+v, want chunks 3 then 1", answer.Sources)
	}
	if answer.DroppedChunks != 0 {
		t.Errorf("DroppedChunks = %d, want 0", answer.DroppedChunks)
	}

	// Prompt carries the tagged sources in retriever order and the
	// verbatim question.
	if !strings.Contains(client.lastPrompt, "[Source 3]\nmost relevant") {
		t.Errorf("prompt missing tagged top chunk:\n%s", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "[Source 1]\nless relevant") {
		t.Errorf("prompt missing tagged second chunk:\n%s", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "Question: what is the answer?") {
		t.Errorf("prompt missing verbatim question:\n%s", client.lastPrompt)
	}
	if strings.Index(client.lastPrompt, "[Source 3]") > strings.Index(client.lastPrompt, "[Source 1]") {
		t.Errorf("chunks out of similarity order in prompt:\n%s", client.lastPrompt)
	}
	if client.temperature != 0.1 || client.maxTokens != 256 {
		t.Errorf("decoding params = %v/%d, want 0.1/256", client.temperature, client.maxTokens)
	}
}

func TestGenerateNoContext(t *testing.T) {
	client := &stubClient{answer: "should never be used"}
	gen := newGenerator(client, 1000)

	answer, err := gen.Generate(context.Background(), "anything", nil)
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("Generate() error = %v, want ErrNoContext", err)
	}
	if answer.Status != models.StatusFailure {
		t.Errorf("Status = %v, want failure", answer.Status)
	}
	if answer.Text != models.NoContextMessage {
		t.Errorf("Text = %q, want the user-facing no-context message", answer.Text)
	}
	if client.calls != 0 {
		t.Errorf("model called %d times with no context, want 0", client.calls)
	}
}

func TestGenerateClipsToBudget(t *testing.T) {
	client := &stubClient{answer: "clipped"}
	gen := newGenerator(client, 25)

	retrieved := models.QueryResult{
		result(0, strings.Repeat("a", 20), 0.9),
		result(1, strings.Repeat("b", 20), 0.5),
		result(2, strings.Repeat("c", 20), 0.2),
	}
	answer, err := gen.Generate(context.Background(), "q", retrieved)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer.Status != models.StatusPartial {
		t.Errorf("Status = %v, want partial", answer.Status)
	}
	if answer.DroppedChunks != 2 {
		t.Errorf("DroppedChunks = %d, want 2", answer.DroppedChunks)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Index != 0 {
		t.Errorf("Sources = %+v, want only chunk 0", answer.Sources)
	}
	if strings.Contains(client.lastPrompt, "bbbb") {
		t.Errorf("dropped chunk text leaked into prompt:\n%s", client.lastPrompt)
	}
}

func TestGenerateTruncatesOversizedTopChunk(t *testing.T) {
	client := &stubClient{answer: "ok"}
	gen := newGenerator(client, 10)

	retrieved := models.QueryResult{
		result(0, strings.Repeat("x", 50), 0.9),
	}
	answer, err := gen.Generate(context.Background(), "q", retrieved)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer.Status != models.StatusPartial {
		t.Errorf("Status = %v, want partial", answer.Status)
	}
	if strings.Contains(client.lastPrompt, strings.Repeat("x", 11)) {
		t.Errorf("prompt contains more than the budgeted chunk text:\n%s", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, strings.Repeat("x", 10)) {
		t.Errorf("prompt missing truncated top chunk:\n%s", client.lastPrompt)
	}
}

func TestGenerateModelError(t *testing.T) {
	modelErr := llmservice.ErrModelUnavailable
	client := &stubClient{err: modelErr}
	gen := newGenerator(client, 1000)

	answer, err := gen.Generate(context.Background(), "q", models.QueryResult{result(0, "ctx", 0.9)})
	if !errors.Is(err, modelErr) {
		t.Fatalf("Generate() error = %v, want the model error", err)
	}
	if answer.Status != models.StatusFailure {
		t.Errorf("Status = %v, want failure", answer.Status)
	}
}
