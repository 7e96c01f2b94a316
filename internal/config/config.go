package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// Database drivers.
const (
	DriverRedis = "redis"
	DriverMongo = "mongo"
)

// Vector index algorithms.
const (
	AlgorithmHNSW = "hnsw"
	AlgorithmFlat = "flat"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the vpsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, mongo (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	URI              string   `yaml:"uri"`
	Database         string   `yaml:"database"`
	Collection       string   `yaml:"collection"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Name            string       `yaml:"name"`
	KeyPrefix       string       `yaml:"key_prefix"`
	Algorithm       string       `yaml:"algorithm"` // hnsw, flat (default: hnsw; flat is redis only)
	HNSWM           int          `yaml:"hnsw_m"`
	HNSWEFConstruct int          `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int          `yaml:"hnsw_ef_runtime"`
	Fields          FieldsConfig `yaml:"fields"`
}

// FieldsConfig maps logical record fields to stored field names.
// Empty values keep the defaults (name, role, normalizedRole, embeddingModel, roleVector).
type FieldsConfig struct {
	Name           string `yaml:"name"`
	Role           string `yaml:"role"`
	NormalizedRole string `yaml:"normalized_role"`
	EmbeddingModel string `yaml:"embedding_model"`
	RoleVector     string `yaml:"role_vector"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // openai, gemini (default: openai)
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	SendDims    bool   `yaml:"send_dimensions"`
	Cache       bool   `yaml:"cache"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // 0 = no expiry
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	RolePrefix        string `yaml:"role_prefix"`
	FilterRole        string `yaml:"filter_role"`
	CandidateLimit    int    `yaml:"candidate_limit"`
	NumCandidates     int    `yaml:"num_candidates"` // 0 = same as candidate_limit
	TagEmbeddingModel *bool  `yaml:"tag_embedding_model"`
	IngestWorkers     int    `yaml:"ingest_workers"`
}

// TimeoutsConfig bounds calls to external systems.
type TimeoutsConfig struct {
	EmbedMS int `yaml:"embed_ms"`
	IndexMS int `yaml:"index_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w: %w", domain.ErrConfiguration, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = domain.DefaultIndexName
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = domain.DefaultKeyPrefix
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = AlgorithmHNSW
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = domain.DefaultModel
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = domain.DefaultDimensions
	}
	if c.Search.RolePrefix == "" {
		c.Search.RolePrefix = domain.DefaultRolePrefix
	}
	if c.Search.FilterRole == "" {
		c.Search.FilterRole = domain.DefaultFilterRole
	}
	if c.Search.CandidateLimit <= 0 {
		c.Search.CandidateLimit = domain.DefaultCandidateLimit
	}
	if c.Search.TagEmbeddingModel == nil {
		on := true
		c.Search.TagEmbeddingModel = &on
	}
	if c.Search.IngestWorkers <= 0 {
		c.Search.IngestWorkers = 4
	}
	if c.Timeouts.EmbedMS <= 0 {
		c.Timeouts.EmbedMS = 10000
	}
	if c.Timeouts.IndexMS <= 0 {
		c.Timeouts.IndexMS = 5000
	}
}

// Validate checks the configuration for correctness. Every failure matches domain.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		add("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			add("database.addrs is required for the redis driver")
		}
	case DriverMongo:
		if c.Database.URI == "" {
			add("database.uri is required for the mongo driver")
		}
		if c.Database.Database == "" || c.Database.Collection == "" {
			add("database.database and database.collection are required for the mongo driver")
		}
	default:
		add("database.driver must be %q or %q, got %q", DriverRedis, DriverMongo, c.Database.Driver)
	}

	switch c.Index.Algorithm {
	case AlgorithmHNSW:
	case AlgorithmFlat:
		// Atlas Vector Search строит только HNSW.
		if c.Database.Driver == DriverMongo {
			add("index.algorithm %q is not supported by the mongo driver", AlgorithmFlat)
		}
	default:
		add("index.algorithm must be %q or %q, got %q", AlgorithmHNSW, AlgorithmFlat, c.Index.Algorithm)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		add("embedding.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		add("embedding.dimensions must be positive")
	}

	if c.Search.NumCandidates < 0 {
		add("search.num_candidates must not be negative")
	}
	if c.Search.NumCandidates > 0 && c.Search.NumCandidates < c.Search.CandidateLimit {
		add("search.num_candidates (%d) must be >= search.candidate_limit (%d)",
			c.Search.NumCandidates, c.Search.CandidateLimit)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
}

// Fields returns the stored field names, defaults applied.
func (c *Config) Fields() domain.FieldNames {
	return domain.FieldNames{
		Name:           c.Index.Fields.Name,
		Role:           c.Index.Fields.Role,
		NormalizedRole: c.Index.Fields.NormalizedRole,
		EmbeddingModel: c.Index.Fields.EmbeddingModel,
		RoleVector:     c.Index.Fields.RoleVector,
	}.WithDefaults()
}

// Space returns the configured embedding space.
func (c *Config) Space() domain.Space {
	return domain.Space{Model: c.Embedding.Model, Dimensions: c.Embedding.Dimensions}
}

// TagModel reports whether searches filter on the embedding model tag.
func (c *Config) TagModel() bool {
	return c.Search.TagEmbeddingModel == nil || *c.Search.TagEmbeddingModel
}

// EmbedTimeout returns the embedding call bound.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Timeouts.EmbedMS) * time.Millisecond
}

// IndexTimeout returns the index call bound.
func (c *Config) IndexTimeout() time.Duration {
	return time.Duration(c.Timeouts.IndexMS) * time.Millisecond
}

// CacheTTL returns the embedding cache TTL; 0 means no expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Embedding.CacheTTLSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(strings.TrimSpace(varName))
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
