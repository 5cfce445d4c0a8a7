package semantic

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ShivaAryal/constitution-search/pkg/config"
)

// Embedder produces fixed-dimension vectors for arbitrary text. The query
// embedder must be the same model that precomputed the corpus vectors;
// corpus loading enforces the model identity.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// openAIEmbedder implements Embedder against any OpenAI-compatible embedding
// endpoint (OpenAI itself, Ollama, llama.cpp, ...).
type openAIEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

// NewOpenAIEmbedder builds an embedder from the semantic config. Local
// endpoints that need no authentication get a placeholder token.
func NewOpenAIEmbedder(cfg config.SemanticConfig) (Embedder, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrapping embedder: %w", err)
	}
	return &openAIEmbedder{embedder: emb}, nil
}

func (e *openAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vec, nil
}

func (e *openAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vecs, nil
}
