package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
)

// DefaultIndexTimeout bounds one index query when none is configured.
const DefaultIndexTimeout = 5 * time.Second

// Search outcome labels for metrics.
const (
	statusOK      = "ok"
	statusEmpty   = "empty"
	statusFailed  = "failed"
	statusInvalid = "invalid"
)

// Config holds retrieval settings.
type Config struct {
	RolePrefix     string
	FilterRole     string
	CandidateLimit int
	// NumCandidates is the ANN candidate pool. 0 means "same as the limit".
	NumCandidates int
	Space         domain.Space
	// TagModel restricts matches to documents embedded with Space.Model.
	TagModel     bool
	IndexTimeout time.Duration
}

// DefaultConfig returns the stock VP retrieval settings for the given embedding space.
func DefaultConfig(space domain.Space) Config {
	return Config{
		RolePrefix:     domain.DefaultRolePrefix,
		FilterRole:     domain.DefaultFilterRole,
		CandidateLimit: domain.DefaultCandidateLimit,
		Space:          space,
		TagModel:       true,
		IndexTimeout:   DefaultIndexTimeout,
	}
}

// Service runs filtered semantic retrieval over the vector index.
// Stateless between calls, safe for concurrent use.
type Service struct {
	repo   Repository
	embed  Embedder
	cfg    Config
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.IndexTimeout <= 0 {
		cfg.IndexTimeout = DefaultIndexTimeout
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = domain.DefaultCandidateLimit
	}
	if cfg.FilterRole == "" {
		cfg.FilterRole = domain.DefaultFilterRole
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, cfg: cfg, logger: logger}
}

// Config returns the effective retrieval settings.
func (s *Service) Config() Config { return s.cfg }

// SearchVPRoles finds people whose normalized role is the configured filter role,
// ranked by how close their role is to "<role prefix> <department>".
func (s *Service) SearchVPRoles(ctx context.Context, department string) (result.Outcome, error) {
	return s.SearchDepartment(ctx, s.cfg.FilterRole, department, s.cfg.CandidateLimit)
}

// SearchDepartment embeds the department query and runs Search.
// Argument errors are reported before any embedding or index call.
func (s *Service) SearchDepartment(
	ctx context.Context, filterRole, department string, limit int,
) (result.Outcome, error) {
	q, err := query.New(s.cfg.RolePrefix, department)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(statusInvalid).Inc()
		return result.Outcome{}, fmt.Errorf("build query: %w", err)
	}
	if strings.TrimSpace(filterRole) == "" {
		metrics.SearchRequestsTotal.WithLabelValues(statusInvalid).Inc()
		return result.Outcome{}, domain.InvalidArgument("filter role is required")
	}
	if limit <= 0 || limit > request.MaxLimit {
		metrics.SearchRequestsTotal.WithLabelValues(statusInvalid).Inc()
		return result.Outcome{}, domain.InvalidArgument("candidate limit must be in 1..%d, got %d", request.MaxLimit, limit)
	}

	if s.embed == nil {
		return result.Outcome{}, fmt.Errorf("%w: no embedding provider for queries", domain.ErrConfiguration)
	}

	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(statusFailed).Inc()
		return result.Outcome{}, fmt.Errorf("vectorize query: %w", err)
	}

	req, err := request.New(filterRole, emb.Embedding, limit, s.numCandidates(limit))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(statusInvalid).Inc()
		return result.Outcome{}, fmt.Errorf("build request: %w", err)
	}

	return s.Search(ctx, req)
}

// numCandidates widens a configured pool that is smaller than the limit.
func (s *Service) numCandidates(limit int) int {
	n := s.cfg.NumCandidates
	if n > 0 && n < limit {
		return limit
	}
	return n
}

// Search runs one filtered ANN query for a validated request.
// Index failures are returned as a failed Outcome, not as an error.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Outcome, error) {
	if err := s.cfg.Space.Check("", req.Vector()); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(statusInvalid).Inc()
		metrics.SpaceRejected(metrics.SourceQuery)
		return result.Outcome{}, fmt.Errorf("query vector: %w", err)
	}

	model := ""
	if s.cfg.TagModel {
		model = s.cfg.Space.Model
	}

	ictx, cancel := context.WithTimeout(ctx, s.cfg.IndexTimeout)
	defer cancel()

	start := time.Now()
	hits, err := s.repo.SearchKNN(ictx, req, model)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, domain.ErrIndexUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		s.logger.Error("vector index query failed",
			zap.String("filter_role", req.FilterRole()),
			zap.Int("limit", req.Limit()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		metrics.SearchRequestsTotal.WithLabelValues(statusFailed).Inc()
		return result.Failed(err), nil
	}

	results := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if h.NormalizedRole != req.FilterRole() || (model != "" && h.Model != model) {
			s.logger.Warn("index returned a document outside the filter",
				zap.String("key", h.Key),
				zap.String("normalized_role", h.NormalizedRole),
				zap.String("embedding_model", h.Model))
			metrics.SearchFilteredTotal.Inc()
			continue
		}
		results = append(results, h.Result())
	}

	results = result.Rank(results, req.Limit())

	metrics.SearchResults.Observe(float64(len(results)))
	if len(results) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues(statusEmpty).Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues(statusOK).Inc()
	}

	return result.Succeeded(results), nil
}
