package domain

import (
	"context"
	"math"
	"strings"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector, the producing model and token usage
// through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	Model        string
	PromptTokens int
	TotalTokens  int
}

// Space identifies an embedding space: vectors are comparable only within one space.
type Space struct {
	Model      string
	Dimensions int
}

// Check verifies that a vector produced by model belongs to the space.
// An empty model skips the model comparison.
func (s Space) Check(model string, vec []float32) error {
	got := Space{Model: model, Dimensions: len(vec)}
	if s.Dimensions > 0 && len(vec) != s.Dimensions {
		return &SpaceMismatchError{Want: s, Got: got}
	}
	if model != "" && s.Model != "" && model != s.Model {
		return &SpaceMismatchError{Want: s, Got: got}
	}
	return nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeText replaces every line break with a single space.
func NormalizeText(text string) string {
	return lineBreaks.Replace(text)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors and length mismatches yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
