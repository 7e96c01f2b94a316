package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// store is the consumer interface for index lifecycle (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig HNSW index parameters. Zero values use backend defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
	EFRuntime   int
}

// Params describe the person vector index.
type Params struct {
	IndexName  string
	KeyPrefix  string // person key prefix, e.g. "vpsearch:person:"
	Fields     domain.FieldNames
	Dimensions int
	// Algorithm is HNSW when empty. HNSW settings are ignored for FLAT.
	Algorithm db.VectorAlgorithm
	HNSW      HNSWConfig
}

// Repo manages the person vector index.
type Repo struct {
	store  store
	params Params
}

// New creates a schema repository.
func New(s store, p Params) *Repo {
	p.Fields = p.Fields.WithDefaults()
	return &Repo{store: s, params: p}
}

// Definition builds the index: TAG filters on normalized role and embedding model,
// a COSINE vector field on the role vector.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	f := r.params.Fields
	def, err := db.NewIndex(r.params.IndexName, r.params.KeyPrefix).
		Filters(f.NormalizedRole, f.EmbeddingModel).
		Vector(f.RoleVector, db.VectorSpec{
			Algorithm:   r.params.Algorithm,
			Dim:         r.params.Dimensions,
			Distance:    db.DistanceCosine,
			M:           r.params.HNSW.M,
			EFConstruct: r.params.HNSW.EFConstruct,
			EFRuntime:   r.params.HNSW.EFRuntime,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: index definition: %w", domain.ErrConfiguration, err)
	}
	return def, nil
}

// Ensure creates the index unless it exists. Reports whether it was created.
func (r *Repo) Ensure(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.params.IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.params.IndexName, err)
	}
	if exists {
		return false, nil
	}

	def, err := r.Definition()
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.params.IndexName, err)
	}
	return true, nil
}

// Drop removes the index; stored documents are kept.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.params.IndexName); err != nil {
		return fmt.Errorf("drop index %s: %w", r.params.IndexName, err)
	}
	return nil
}

// Exists reports whether the index is present.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.params.IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.params.IndexName, err)
	}
	return ok, nil
}
