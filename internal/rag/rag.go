package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// ErrNoContext marks a question for which retrieval produced nothing.
// The model is never called in that case; the session stays usable.
var ErrNoContext = errors.New("no context retrieved")

// Generator assembles a bounded prompt from retrieved chunks and asks the
// completion model for a grounded answer.
type Generator struct {
	client        llmservice.CompletionClient
	temperature   float64
	maxTokens     int
	contextBudget int
}

func NewGenerator(client llmservice.CompletionClient, cfg *config.RAGConfig) *Generator {
	return &Generator{
		client:        client,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		contextBudget: cfg.MaxContextChars,
	}
}

// Generate produces an Answer for the question from the retrieved chunks,
// which must arrive ordered most-similar first. Retrieved text beyond the
// context budget is dropped lowest-similarity first and the answer is
// marked partial with the dropped count.
func (g *Generator) Generate(ctx context.Context, question string, retrieved models.QueryResult) (models.Answer, error) {
	if len(retrieved) == 0 {
		return models.Answer{
			Text:   models.NoContextMessage,
			Status: models.StatusFailure,
		}, ErrNoContext
	}

	kept, dropped, truncated := clip(retrieved, g.contextBudget)

	var contextText strings.Builder
	sources := make([]models.Chunk, 0, len(kept))
	for i, text := range kept {
		if i > 0 {
			contextText.WriteString(models.ContextSeparator)
		}
		contextText.WriteString(fmt.Sprintf(models.SourceTagFormat, retrieved[i].Chunk.Index, text))
		sources = append(sources, retrieved[i].Chunk)
	}
	prompt := fmt.Sprintf(models.AnswerPromptTemplate, contextText.String(), question)

	answer, err := g.client.Complete(ctx, prompt, g.temperature, g.maxTokens)
	if err != nil {
		return models.Answer{Status: models.StatusFailure}, err
	}

	status := models.StatusSuccess
	if dropped > 0 || truncated {
		status = models.StatusPartial
		log.Debug().Int("dropped", dropped).Bool("truncated", truncated).Msg("context clipped to budget")
	}
	return models.Answer{
		Text:          answer,
		Sources:       sources,
		Status:        status,
		DroppedChunks: dropped,
	}, nil
}

// clip keeps retrieved chunk texts, in order, while their total rune count
// fits the budget. The most similar chunk is always kept; if it alone
// exceeds the budget it is truncated rather than dropped.
func clip(retrieved models.QueryResult, budget int) (kept []string, dropped int, truncated bool) {
	used := 0
	for i, r := range retrieved {
		runes := []rune(r.Chunk.Text)
		if used+len(runes) > budget {
			if i == 0 {
				kept = append(kept, string(runes[:budget]))
				truncated = true
				used = budget
				continue
			}
			break
		}
		kept = append(kept, r.Chunk.Text)
		used += len(runes)
	}
	dropped = len(retrieved) - len(kept)
	return kept, dropped, truncated
}
