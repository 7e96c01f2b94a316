package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	emb, err := NewEmbedder(context.Background(), &Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "text-embedding-004",
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	return emb
}

func TestEmbedder_Embed(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// batch и single форматы ответа
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.5,0.25,0.125]}],"embedding":{"values":[0.5,0.25,0.125]}}`))
	})

	res, err := emb.Embed(context.Background(), "Vice President Sales")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float32{0.5, 0.25, 0.125}
	if len(res.Embedding) != len(want) {
		t.Fatalf("len = %d, want %d", len(res.Embedding), len(want))
	}
	for i := range want {
		if res.Embedding[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, res.Embedding[i], want[i])
		}
	}
	if res.Model != "text-embedding-004" {
		t.Errorf("Model = %q", res.Model)
	}
}

func TestEmbedder_ServerError(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	})

	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestNewEmbedder_Validation(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), &Config{Model: "m"}); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing key: got %v", err)
	}
	if _, err := NewEmbedder(context.Background(), &Config{APIKey: "k"}); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing model: got %v", err)
	}
}
