package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
)

// DefaultTimeout bounds one embedding call when none is configured.
const DefaultTimeout = 10 * time.Second

// Service is the EmbeddingProvider used by search and ingestion.
// It normalizes text, bounds the call and verifies the result belongs to the configured space.
type Service struct {
	provider Provider
	space    domain.Space
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates an embedding service.
func New(p Provider, space domain.Space, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: p, space: space, timeout: timeout, logger: logger}
}

// Space returns the embedding space vectors from this service belong to.
func (s *Service) Space() domain.Space { return s.space }

// Embed converts text into a vector of the configured space.
func (s *Service) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	normalized := domain.NormalizeText(text)
	if strings.TrimSpace(normalized) == "" {
		return domain.EmbeddingResult{}, domain.InvalidArgument("text must not be blank")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.provider.Embed(ctx, normalized)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrConfiguration):
			return domain.EmbeddingResult{}, fmt.Errorf("embedding: %w", err)
		default:
			return domain.EmbeddingResult{}, fmt.Errorf("embedding: %w: %w", domain.ErrEmbeddingUnavailable, err)
		}
	}

	if res.Model == "" {
		res.Model = s.space.Model
	}
	if err := s.space.Check(res.Model, res.Embedding); err != nil {
		metrics.SpaceRejected(metrics.SourceProvider)
		s.logger.Error("embedding outside configured space",
			zap.String("model", res.Model),
			zap.Int("dimensions", len(res.Embedding)),
			zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embedding: %w", err)
	}

	return res, nil
}

// HealthCheck delegates to the provider when it supports health checks.
func (s *Service) HealthCheck(ctx context.Context) error {
	hc, ok := s.provider.(domain.HealthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health: %w", err)
	}
	return nil
}
