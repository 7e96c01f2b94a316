package vpsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/db"
	dbMongo "github.com/kailas-cloud/vpsearch/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/vpsearch/internal/db/redis"
	"github.com/kailas-cloud/vpsearch/internal/domain"
	dombatch "github.com/kailas-cloud/vpsearch/internal/domain/batch"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
	personrepo "github.com/kailas-cloud/vpsearch/internal/repository/person"
	"github.com/kailas-cloud/vpsearch/internal/repository/schema"
	searchrepo "github.com/kailas-cloud/vpsearch/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/vpsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vpsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vpsearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vpsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/vpsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type searchUseCase interface {
	SearchDepartment(ctx context.Context, filterRole, department string, limit int) (result.Outcome, error)
	Search(ctx context.Context, req request.Request) (result.Outcome, error)
}

type ingestUseCase interface {
	Store(ctx context.Context, rec person.Record) (string, error)
	EmbedAndStore(ctx context.Context, name, role, normalizedRole string) (string, error)
	IngestJSONL(ctx context.Context, r io.Reader, workers int) ([]dombatch.Result, error)
}

type schemaUseCase interface {
	Ensure(ctx context.Context) (bool, error)
	Drop(ctx context.Context) error
}

// Client is the vpsearch SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	schema    schemaUseCase
	healthSvc healthUseCase
	obs       *observer

	filterRole     string
	candidateLimit int
	numCandidates  int
}

// New creates a vpsearch Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	emb, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vpsearch: database not ready: %w", err)
	}

	return wireClient(store, emb, cfg, obs), nil
}

func defaultClientConfig() *clientConfig {
	space := domain.DefaultSpace()
	return &clientConfig{
		model:          space.Model,
		dimensions:     space.Dimensions,
		indexName:      domain.DefaultIndexName,
		keyPrefix:      domain.DefaultKeyPrefix,
		filterRole:     domain.DefaultFilterRole,
		candidateLimit: domain.DefaultCandidateLimit,
		tagModel:       true,
	}
}

func (c *clientConfig) validate() error {
	switch c.driver {
	case driverRedis:
		if len(c.addrs) == 0 || c.addrs[0] == "" {
			return fmt.Errorf("%w: redis address required", domain.ErrConfiguration)
		}
	case driverMongo:
		if c.mongoURI == "" || c.mongoDatabase == "" || c.mongoCollection == "" {
			return fmt.Errorf("%w: mongo uri, database and collection required", domain.ErrConfiguration)
		}
	case "":
		return errors.New("vpsearch: database required (use WithRedis or WithMongo)")
	default:
		return fmt.Errorf("vpsearch: unknown driver %q", c.driver)
	}
	if c.dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}
	if c.candidateLimit <= 0 || c.candidateLimit > request.MaxLimit {
		return fmt.Errorf("%w: candidate limit must be in 1..%d", domain.ErrConfiguration, request.MaxLimit)
	}
	return nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("vpsearch: create redis store: %w", err)
		}
		return s, nil
	case driverMongo:
		s, err := dbMongo.NewStore(ctx, dbMongo.Config{
			URI:        cfg.mongoURI,
			Database:   cfg.mongoDatabase,
			Collection: cfg.mongoCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("vpsearch: create mongo store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vpsearch: unknown driver %q", cfg.driver)
	}
}

// createEmbedder returns nil when neither WithEmbedder nor WithOpenAI is given:
// the client then only serves raw vector search and pre-embedded ingestion.
func createEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}, nil
	}
	if cfg.openAIKey == "" {
		return nil, nil
	}
	e, err := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:  cfg.openAIKey,
		BaseURL: cfg.openAIBaseURL,
		Model:   cfg.model,
	})
	if err != nil {
		return nil, fmt.Errorf("vpsearch: openai embedder: %w", err)
	}
	return e, nil
}

func wireClient(store db.Store, emb domain.Embedder, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()
	space := domain.Space{Model: cfg.model, Dimensions: cfg.dimensions}
	fields := domain.DefaultFieldNames()

	persons := personrepo.New(store, cfg.keyPrefix, fields)
	schemaRepo := schema.New(store, schema.Params{
		IndexName:  cfg.indexName,
		KeyPrefix:  persons.KeyPrefix(),
		Fields:     fields,
		Dimensions: cfg.dimensions,
	})

	// Pass nil interface (not typed nil pointer) when no embedder is configured.
	var (
		queryEmb  searchuc.Embedder
		docEmb    ingestuc.Embedder
		healthEmb healthuc.EmbeddingChecker
	)
	if emb != nil {
		svc := embeddinguc.New(emb, space, embeddinguc.DefaultTimeout, logger)
		queryEmb, docEmb, healthEmb = svc, svc, svc
	}

	searchCfg := searchuc.DefaultConfig(space)
	searchCfg.FilterRole = cfg.filterRole
	searchCfg.CandidateLimit = cfg.candidateLimit
	searchCfg.NumCandidates = cfg.numCandidates
	searchCfg.TagModel = cfg.tagModel

	return &Client{
		store:          store,
		searchSvc:      searchuc.New(searchrepo.New(store, cfg.indexName, fields), queryEmb, searchCfg, logger),
		ingestSvc:      ingestuc.New(persons, docEmb, space, 0, logger),
		schema:         schemaRepo,
		healthSvc:      healthuc.New(store, schemaRepo, healthEmb, logger),
		obs:            obs,
		filterRole:     cfg.filterRole,
		candidateLimit: cfg.candidateLimit,
		numCandidates:  cfg.numCandidates,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the vector index if it does not exist.
// Returns nil when the index already exists.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	if _, err = c.schema.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// DropIndex drops the vector index. Stored records are kept.
func (c *Client) DropIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("drop_index", start, err) }()

	if err = c.schema.Drop(ctx); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		Model:        r.Model,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
