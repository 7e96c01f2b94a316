package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
)

// DefaultWriteTimeout bounds one index write when none is configured.
const DefaultWriteTimeout = 5 * time.Second

// Ingest outcome labels for metrics.
const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusFailed  = "failed"
)

// Service writes person records into the vector index.
//
// Writes are visible to search once the backend has indexed them: redis indexes
// on write, Atlas search indexes are eventually consistent.
type Service struct {
	repo    Repository
	embed   Embedder
	space   domain.Space
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an ingestion service. embed may be nil when every record carries its vector.
func New(repo Repository, embed Embedder, space domain.Space, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, space: space, timeout: timeout, logger: logger}
}

// Store validates rec against the configured embedding space and inserts it.
// Returns the id the record was stored under.
func (s *Service) Store(ctx context.Context, rec person.Record) (string, error) {
	if err := person.ValidateFields(rec.Name(), rec.Role(), rec.NormalizedRole()); err != nil {
		metrics.IngestTotal.WithLabelValues(statusInvalid).Inc()
		return "", fmt.Errorf("validate person: %w", err)
	}
	if len(rec.Vector()) == 0 {
		metrics.IngestTotal.WithLabelValues(statusInvalid).Inc()
		return "", domain.InvalidArgument("roleVector is required")
	}
	if err := s.space.Check(rec.Model(), rec.Vector()); err != nil {
		metrics.IngestTotal.WithLabelValues(statusInvalid).Inc()
		metrics.SpaceRejected(metrics.SourceRecord)
		return "", fmt.Errorf("validate person: %w", err)
	}
	if rec.Model() == "" && s.space.Model != "" {
		rec = person.Reconstruct(rec.ID(), rec.Name(), rec.Role(), rec.NormalizedRole(), rec.Vector(), s.space.Model)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(statusFailed).Inc()
		s.logger.Error("person write failed", zap.String("name", rec.Name()), zap.Error(err))
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		return "", fmt.Errorf("store person: %w", err)
	}

	metrics.IngestTotal.WithLabelValues(statusOK).Inc()
	s.logger.Debug("person stored",
		zap.String("id", stored.ID()),
		zap.String("normalized_role", stored.NormalizedRole()))

	return stored.ID(), nil
}

// EmbedAndStore embeds role with the query-side provider and stores the record.
func (s *Service) EmbedAndStore(ctx context.Context, name, role, normalizedRole string) (string, error) {
	if err := person.ValidateFields(name, role, normalizedRole); err != nil {
		metrics.IngestTotal.WithLabelValues(statusInvalid).Inc()
		return "", fmt.Errorf("validate person: %w", err)
	}
	if s.embed == nil {
		return "", fmt.Errorf("%w: no embedding provider for ingestion", domain.ErrConfiguration)
	}

	emb, err := s.embed.Embed(ctx, role)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(statusFailed).Inc()
		return "", fmt.Errorf("vectorize role: %w", err)
	}

	rec, err := person.New(name, role, normalizedRole, emb.Embedding, emb.Model)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(statusInvalid).Inc()
		return "", fmt.Errorf("build person: %w", err)
	}
	return s.Store(ctx, rec)
}
