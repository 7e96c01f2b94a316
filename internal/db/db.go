package db

import (
	"context"
	"time"
)

// Store is the vector index facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces only.
type Store interface {
	Pinger
	Writer
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is a single record written to the index: string fields plus named vectors.
type Document struct {
	Key     string
	Fields  map[string]string
	Vectors map[string][]float32
}

// Writer inserts documents. Insert never overwrites: an existing key yields ErrKeyExists.
type Writer interface {
	Insert(ctx context.Context, doc *Document) error
}

// KVStore provides simple key-value operations. Optional: only some backends implement it.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides vector index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs approximate nearest-neighbor queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
