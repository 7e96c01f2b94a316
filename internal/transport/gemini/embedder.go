// Package gemini is an embedding provider backed by the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
)

const provider = "gemini"

// Config holds Gemini embedder settings.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
	Model   string
	// OutputDimensions truncates the returned vector when > 0.
	OutputDimensions int
	Logger           *zap.Logger
}

// Embedder wraps a genai.Client and implements domain.Embedder.
type Embedder struct {
	client *genai.Client
	model  string
	dims   int
	logger *zap.Logger
}

// NewEmbedder creates the genai client for the Gemini API backend.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is not set", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: gemini model is not set", domain.ErrConfiguration)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w: %w", domain.ErrConfiguration, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client: client,
		model:  cfg.Model,
		dims:   cfg.OutputDimensions,
		logger: logger,
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	cfg := &genai.EmbedContentConfig{}
	if e.dims > 0 {
		d := int32(e.dims) //nolint:gosec // dims validated by config
		cfg.OutputDimensionality = &d
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveEmbedding(provider, e.model, duration, "api_error")
		e.logger.Debug("gemini embed failed", zap.Duration("duration", duration), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("gemini embed: %s: %w", err.Error(), domain.ErrEmbeddingUnavailable)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		metrics.ObserveEmbedding(provider, e.model, duration, "empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingUnavailable)
	}

	metrics.ObserveEmbedding(provider, e.model, duration, "")

	// Gemini не отдает usage для embeddings
	return domain.EmbeddingResult{
		Embedding: resp.Embeddings[0].Values,
		Model:     e.model,
	}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	return nil
}
