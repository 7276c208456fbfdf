package genaiadapter

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Embedder implements ports.Embedder with Gemini embeddings.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates an Embedder.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &Embedder{client: client, model: model}
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// Model names the embedding model; vectors from different models are not comparable.
func (e *Embedder) Model() string { return e.model }
