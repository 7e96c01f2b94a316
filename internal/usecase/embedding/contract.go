package embedding

import (
	"context"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// Provider is the raw embedding backend (transport, cache or instrumented chain).
type Provider interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
