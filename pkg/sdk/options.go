package vpsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverRedis = "redis"
	driverMongo = "mongo"
)

type clientConfig struct {
	driver   string // "redis" or "mongo"
	addrs    []string
	password string

	mongoURI        string
	mongoDatabase   string
	mongoCollection string

	embedder      Embedder
	openAIKey     string
	openAIBaseURL string

	model      string
	dimensions int

	indexName      string
	keyPrefix      string
	filterRole     string
	candidateLimit int
	numCandidates  int
	tagModel       bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to use a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMongo configures the client to use a MongoDB Atlas collection with a vector search index.
func WithMongo(uri, database, collection string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMongo
		c.mongoURI = uri
		c.mongoDatabase = database
		c.mongoCollection = collection
	})
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses the OpenAI embeddings API (or a compatible host when baseURL is set).
// Ignored when WithEmbedder is also given.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
	})
}

// WithModel sets the embedding model. Defaults to text-embedding-ada-002.
// Stored vectors tagged with another model are excluded from search.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithDimensions sets the embedding dimensionality. Defaults to 1536.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithIndex sets the vector index name and the key prefix of person records.
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	})
}

// WithFilterRole sets the normalized role SearchVPRoles filters on. Defaults to "VP".
func WithFilterRole(role string) Option {
	return optionFunc(func(c *clientConfig) {
		c.filterRole = role
	})
}

// WithCandidateLimit sets the default number of results. Defaults to 100.
func WithCandidateLimit(limit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidateLimit = limit
	})
}

// WithNumCandidates sets the ANN candidate pool. Zero means the same as the limit.
func WithNumCandidates(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.numCandidates = n
	})
}

// WithoutModelFilter searches vectors regardless of the model they were tagged with.
// Use for collections written before model tagging existed.
func WithoutModelFilter() Option {
	return optionFunc(func(c *clientConfig) {
		c.tagModel = false
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
