package search

import (
	"context"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
)

// Repository defines the vector index contract for search operations.
type Repository interface {
	// SearchKNN runs one filtered ANN query. An empty model disables the model filter.
	SearchKNN(ctx context.Context, req request.Request, model string) ([]result.Hit, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
