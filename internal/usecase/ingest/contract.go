package ingest

import (
	"context"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
)

// Repository persists person records into the vector index.
type Repository interface {
	Insert(ctx context.Context, rec person.Record) (person.Record, error)
}

// Embedder vectorizes role text. Must be the same provider used for queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
