package gemini

import (
	"context"
	"errors"
	"strings"
)

// Embedding task types understood by the Gemini embedding models.
const (
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

type vectorGenerator interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	EmbeddingModel() string
}

// Embedder adapts the generator to the embedding provider contract.
type Embedder struct {
	generator vectorGenerator
	taskType  string
}

// NewEmbedder returns an embedder tuned for comparing short skill phrases.
func NewEmbedder(generator vectorGenerator) *Embedder {
	return &Embedder{generator: generator, taskType: TaskSemanticSimilarity}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text to embed must not be empty")
	}

	vectors, err := e.generator.Embed(ctx, []string{text}, e.taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) Name() string {
	return providerName + "/" + e.generator.EmbeddingModel()
}
