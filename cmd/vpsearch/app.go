package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/config"
	"github.com/kailas-cloud/vpsearch/internal/db"
	dbMongo "github.com/kailas-cloud/vpsearch/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/vpsearch/internal/db/redis"
	"github.com/kailas-cloud/vpsearch/internal/domain"
	logpkg "github.com/kailas-cloud/vpsearch/internal/logger"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
	"github.com/kailas-cloud/vpsearch/internal/repository/embcache"
	personrepo "github.com/kailas-cloud/vpsearch/internal/repository/person"
	"github.com/kailas-cloud/vpsearch/internal/repository/schema"
	searchrepo "github.com/kailas-cloud/vpsearch/internal/repository/search"
	geminiEmb "github.com/kailas-cloud/vpsearch/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/vpsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vpsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vpsearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vpsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/vpsearch/internal/usecase/search"
)

// app is the composition root shared by all subcommands.
type app struct {
	env      string
	cfg      config.Config
	logger   *zap.Logger
	store    db.Store
	schema   *schema.Repo
	embedder *embeddinguc.Service
	search   *searchuc.Service
	ingest   *ingestuc.Service
	health   *healthuc.Service
}

// appOptions select which parts of the pipeline a command needs.
type appOptions struct {
	env           string
	configPath    string
	needsEmbedder bool
	// optionalEmbedder keeps going without a provider when its config is unusable.
	optionalEmbedder bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	env := opts.env
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	algo, err := db.ParseVectorAlgorithm(cfg.Index.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	// Провайдер собирается до подключения к БД: неверный ключ не должен ждать readiness.
	var base domain.Embedder
	if opts.needsEmbedder {
		base, err = buildProvider(ctx, &cfg, logger)
		switch {
		case err == nil:
		case opts.optionalEmbedder && errors.Is(err, domain.ErrConfiguration):
			logger.Warn("Embedding provider disabled, records without roleVector will fail", zap.Error(err))
		default:
			return nil, err
		}
	}

	store, err := buildStore(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	a := &app{env: env, cfg: cfg, logger: logger, store: store}

	fields := cfg.Fields()
	persons := personrepo.New(store, cfg.Index.KeyPrefix, fields)
	a.schema = schema.New(store, schema.Params{
		IndexName:  cfg.Index.Name,
		KeyPrefix:  persons.KeyPrefix(),
		Fields:     fields,
		Dimensions: cfg.Embedding.Dimensions,
		Algorithm:  algo,
		HNSW: schema.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
			EFRuntime:   cfg.Index.HNSWEFRuntime,
		},
	})

	var healthEmb healthuc.EmbeddingChecker
	if base != nil {
		a.embedder = buildEmbedder(base, &cfg, store, logger)
		healthEmb = a.embedder
	}

	searchCfg := searchuc.DefaultConfig(cfg.Space())
	searchCfg.RolePrefix = cfg.Search.RolePrefix
	searchCfg.FilterRole = cfg.Search.FilterRole
	searchCfg.CandidateLimit = cfg.Search.CandidateLimit
	searchCfg.NumCandidates = cfg.Search.NumCandidates
	searchCfg.TagModel = cfg.TagModel()
	searchCfg.IndexTimeout = cfg.IndexTimeout()

	// a.embedder may be nil for commands that never embed; keep the interface nil too.
	var queryEmb searchuc.Embedder
	var docEmb ingestuc.Embedder
	if a.embedder != nil {
		queryEmb = a.embedder
		docEmb = a.embedder
	}

	a.search = searchuc.New(searchrepo.New(store, cfg.Index.Name, fields), queryEmb, searchCfg, logger)
	a.ingest = ingestuc.New(persons, docEmb, cfg.Space(), cfg.IndexTimeout(), logger)
	a.health = healthuc.New(store, a.schema, healthEmb, logger)

	return a, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func buildStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	case config.DriverMongo:
		s, err := dbMongo.NewStore(ctx, dbMongo.Config{
			URI:        cfg.Database.URI,
			Database:   cfg.Database.Database,
			Collection: cfg.Database.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("create mongo store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", domain.ErrConfiguration, cfg.Database.Driver)
	}
}

func buildProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		e, err := geminiEmb.NewEmbedder(ctx, &geminiEmb.Config{
			APIKey:           cfg.Embedding.APIKey,
			BaseURL:          cfg.Embedding.BaseURL,
			Model:            cfg.Embedding.Model,
			OutputDimensions: cfg.Embedding.Dimensions,
			Logger:           logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		return e, nil
	default:
		var dims int
		if cfg.Embedding.SendDims {
			dims = cfg.Embedding.Dimensions
		}
		e, err := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:            cfg.Embedding.APIKey,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			RequestDimensions: dims,
			Provider:          cfg.Embedding.Provider,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		return e, nil
	}
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> service.
func buildEmbedder(base domain.Embedder, cfg *config.Config, store db.Store, logger *zap.Logger) *embeddinguc.Service {
	embedder := base
	if kv, ok := store.(db.KVStore); ok && cfg.Embedding.Cache {
		embedder = embcache.New(base, kv, embcache.Config{
			KeyPrefix: cfg.Index.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       cfg.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)
	return embeddinguc.New(embedder, cfg.Space(), cfg.EmbedTimeout(), logger)
}
