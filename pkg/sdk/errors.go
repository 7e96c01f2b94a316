package vpsearch

import "github.com/kailas-cloud/vpsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration          = domain.ErrConfiguration
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrIndexUnavailable       = domain.ErrIndexUnavailable
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrEmbeddingSpaceMismatch = domain.ErrEmbeddingSpaceMismatch
)
