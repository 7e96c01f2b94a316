package vpsearch

import "context"

// Embedder converts text to a vector embedding.
// Required for SearchVPRoles and for ingesting records without a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector, the model that produced it and token counts.
// An empty Model is stamped with the client's configured model.
type EmbeddingResult struct {
	Embedding    []float32
	Model        string
	PromptTokens int
	TotalTokens  int
}
