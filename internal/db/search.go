package db

import "github.com/kailas-cloud/vpsearch/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName   string
	VectorField string
	Vector      []float32
	// Filters are applied before ranking: only matching documents are candidates.
	Filters filter.Expression
	// K is the number of results; NumCandidates is the ANN candidate pool (>= K).
	K             int
	NumCandidates int
	ReturnFields  []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score is cosine similarity in [-1, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
